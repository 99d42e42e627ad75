package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"review-extractor/adapters"
	"review-extractor/internal/config"
	"review-extractor/utils"
)

func newProbeCmd() *cobra.Command {
	var engine string
	cmd := &cobra.Command{
		Use:   "probe <retailer> <url>",
		Short: "Report which selector strategies match on a live page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if engine != "" {
				cfg.Browser.Engine = engine
			}
			cfg.Retailer = args[0]
			if err := config.Validate(cfg); err != nil {
				return err
			}
			logger := newLogger()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			driver, err := newDriver(cfg.Browser, logger)
			if err != nil {
				return fmt.Errorf("failed to start browser: %w", err)
			}
			defer driver.Close()

			adapter, err := adapters.New(cfg.Retailer, driver, cfg, logger)
			if err != nil {
				return err
			}
			prober, ok := adapter.(adapters.Prober)
			if !ok {
				return fmt.Errorf("%s exposes no probes", adapter.Name())
			}

			if err := driver.Navigate(ctx, args[1]); err != nil {
				return err
			}
			if err := utils.Settle(ctx, cfg.Browser.SettleDelay); err != nil {
				return err
			}

			locator := utils.NewLocator(driver, cfg.Browser.LocateWait, cfg.Browser.PollInterval, logger)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "=== Probing %s at %s ===\n", adapter.Name(), args[1])
			for _, result := range adapters.RunProbes(ctx, locator, prober.Probes()) {
				status := "NO MATCH"
				if result.Matched >= 0 {
					status = fmt.Sprintf("matched strategy %d", result.Matched+1)
				}
				fmt.Fprintf(out, "%s: %s\n", result.Name, status)
				for i, s := range result.Strategies {
					fmt.Fprintf(out, "  %d: %s -> %d found, %d visible\n", i+1, s, result.Counts[i], result.Visible[i])
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "", "Browser engine (chromedp or rod)")
	return cmd
}
