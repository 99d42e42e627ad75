package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"review-extractor/adapters"
	"review-extractor/extractor"
	"review-extractor/internal/config"
	"review-extractor/internal/types"
	"review-extractor/storage"
)

type scrapeFlags struct {
	retailer   string
	categories string
	products   int
	reviews    int
	pages      int
	outputDir  string
	prefix     string
	engine     string
	headful    bool
	score      bool
	metrics    string
	mongoURI   string
}

func newScrapeCmd() *cobra.Command {
	var f scrapeFlags
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape reviews for one retailer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyScrapeFlags(cmd, &cfg, f)
			if err := config.Validate(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScrape(ctx, cfg, newLogger())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.retailer, "retailer", "", "Retailer to scrape ("+strings.Join(adapters.Names(), ", ")+")")
	flags.StringVar(&f.categories, "categories", "", "Comma-separated search categories")
	flags.IntVar(&f.products, "products", 0, "Products per category")
	flags.IntVar(&f.reviews, "reviews", 0, "Reviews per product")
	flags.IntVar(&f.pages, "max-pages", 0, "Review page advance ceiling (0 keeps the retailer default)")
	flags.StringVar(&f.outputDir, "output-dir", "", "Output directory")
	flags.StringVar(&f.prefix, "prefix", "", "Output file prefix (default <retailer>_reviews)")
	flags.StringVar(&f.engine, "engine", "", "Browser engine (chromedp or rod)")
	flags.BoolVar(&f.headful, "headful", false, "Show the browser window")
	flags.BoolVar(&f.score, "score", true, "Score sentiment and write the CSV summary after scraping")
	flags.StringVar(&f.metrics, "metrics-file", "", "Write Prometheus metrics to this textfile")
	flags.StringVar(&f.mongoURI, "mongo-uri", "", "Also store products in MongoDB")
	return cmd
}

// applyScrapeFlags copies explicitly set flags over the loaded configuration
func applyScrapeFlags(cmd *cobra.Command, cfg *types.Config, f scrapeFlags) {
	changed := cmd.Flags().Changed
	if changed("retailer") {
		cfg.Retailer = f.retailer
	}
	if changed("categories") {
		cfg.Categories = nil
		for _, c := range strings.Split(f.categories, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cfg.Categories = append(cfg.Categories, c)
			}
		}
	}
	if changed("products") {
		cfg.ProductsPerCategory = f.products
	}
	if changed("reviews") {
		cfg.ReviewsPerProduct = f.reviews
	}
	if changed("max-pages") {
		cfg.MaxReviewPages = f.pages
	}
	if changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if changed("prefix") {
		cfg.OutputPrefix = f.prefix
	}
	if changed("engine") {
		cfg.Browser.Engine = f.engine
	}
	if changed("headful") {
		cfg.Browser.Headless = !f.headful
	}
	if changed("score") {
		cfg.Score = f.score
	}
	if changed("metrics-file") {
		cfg.MetricsFile = f.metrics
	}
	if changed("mongo-uri") {
		cfg.Mongo.URI = f.mongoURI
	}
	if cfg.OutputPrefix == "" {
		cfg.OutputPrefix = adapters.Normalize(cfg.Retailer) + "_reviews"
	}
}

func runScrape(ctx context.Context, cfg types.Config, logger *logrus.Logger) error {
	driver, err := newDriver(cfg.Browser, logger)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			logger.Warnf("Failed to close browser: %v", err)
		}
	}()

	adapter, err := adapters.New(cfg.Retailer, driver, cfg, logger)
	if err != nil {
		return err
	}

	metrics := extractor.NewMetrics()
	ext := extractor.NewExtractor(adapter, cfg, logger, metrics)

	startTime := time.Now()
	doc, runErr := ext.ExtractAll(ctx)
	if runErr != nil {
		logger.Errorf("Extraction stopped early: %v", runErr)
	}

	// Partial results are still written
	outputPath := storage.OutputPath(cfg.OutputDir, cfg.OutputPrefix, startTime)
	if err := storage.WriteDocument(outputPath, doc); err != nil {
		return err
	}
	logger.Infof("Results written to: %s", outputPath)

	if cfg.Score {
		if err := scoreDocument(outputPath, doc, logger); err != nil {
			return err
		}
	}

	if cfg.Mongo.URI != "" {
		if err := storeInMongo(ctx, cfg.Mongo, doc.Products, logger); err != nil {
			logger.Warnf("MongoDB copy failed: %v", err)
		}
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warnf("Failed to write metrics: %v", err)
		}
	}

	reviews := 0
	for _, p := range doc.Products {
		reviews += len(p.Reviews)
	}
	logger.Infof("Extraction completed in %v", time.Since(startTime))
	logger.Infof("Total products found: %d", len(doc.Products))
	logger.Infof("Total reviews collected: %d", reviews)
	return runErr
}

// mongoCopyTimeout bounds the whole MongoDB copy once extraction is over
const mongoCopyTimeout = 45 * time.Second

// storeInMongo ignores cancellation of ctx so an interrupted run still
// copies its partial results, like the file write does.
func storeInMongo(ctx context.Context, config types.MongoConfig, products []types.ProductRecord, logger types.Logger) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mongoCopyTimeout)
	defer cancel()

	sink, err := storage.NewMongoSink(ctx, config, logger)
	if err != nil {
		return err
	}
	defer sink.Close()
	return sink.Store(ctx, products)
}
