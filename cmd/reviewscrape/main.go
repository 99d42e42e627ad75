package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"review-extractor/adapters"
	"review-extractor/internal/types"
	"review-extractor/utils"
)

var (
	configPath string
	verbose    bool
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "reviewscrape",
		Short:        "Scrape, score and summarise retailer product reviews",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./reviewscrape.yaml)")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	root.AddCommand(newScrapeCmd(), newScoreCmd(), newProbeCmd(), newRetailersCmd())
	return root
}

// newLogger sets up logrus the same way for every subcommand
func newLogger() *logrus.Logger {
	logger := logrus.New()

	// Set timestamp format with milliseconds
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	// Set log level from LOG_LEVEL env if present
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

// newDriver opens the configured browser engine
func newDriver(config types.BrowserConfig, logger types.Logger) (utils.Driver, error) {
	switch config.Engine {
	case "rod":
		return utils.NewRodSession(config, logger)
	case "chromedp", "":
		return utils.NewChromeSession(config, logger)
	default:
		return nil, fmt.Errorf("unknown browser engine %q", config.Engine)
	}
}

func newRetailersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retailers",
		Short: "List the supported retailers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(adapters.Names(), "\n"))
		},
	}
}
