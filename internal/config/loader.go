// Package config loads the run configuration from defaults, an optional
// YAML file and REVIEWS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"review-extractor/internal/types"
)

// EnvPrefix prefixes every environment override, e.g. REVIEWS_BROWSER_ENGINE.
const EnvPrefix = "REVIEWS"

// Engines are the supported browser drivers.
var Engines = []string{"chromedp", "rod"}

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults. CLI flags
// are applied by the caller on top.
func Load(configPath string) (types.Config, error) {
	cfg := types.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("reviewscrape")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg types.Config) {
	v.SetDefault("retailer", cfg.Retailer)
	v.SetDefault("categories", cfg.Categories)
	v.SetDefault("products_per_category", cfg.ProductsPerCategory)
	v.SetDefault("reviews_per_product", cfg.ReviewsPerProduct)
	v.SetDefault("max_review_pages", cfg.MaxReviewPages)
	v.SetDefault("output_dir", cfg.OutputDir)
	v.SetDefault("output_prefix", cfg.OutputPrefix)
	v.SetDefault("score", cfg.Score)
	v.SetDefault("metrics_file", cfg.MetricsFile)

	v.SetDefault("browser.engine", cfg.Browser.Engine)
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.window_width", cfg.Browser.WindowWidth)
	v.SetDefault("browser.window_height", cfg.Browser.WindowHeight)
	v.SetDefault("browser.timeout", cfg.Browser.Timeout)
	v.SetDefault("browser.locate_wait", cfg.Browser.LocateWait)
	v.SetDefault("browser.poll_interval", cfg.Browser.PollInterval)
	v.SetDefault("browser.settle_delay", cfg.Browser.SettleDelay)

	v.SetDefault("mongo.uri", cfg.Mongo.URI)
	v.SetDefault("mongo.database", cfg.Mongo.Database)
	v.SetDefault("mongo.collection", cfg.Mongo.Collection)
}

// Validate rejects configurations that cannot drive a run.
func Validate(cfg types.Config) error {
	var problems []string
	if len(cfg.Categories) == 0 {
		problems = append(problems, "at least one category is required")
	}
	if cfg.ProductsPerCategory <= 0 {
		problems = append(problems, "products_per_category must be positive")
	}
	if cfg.ReviewsPerProduct <= 0 {
		problems = append(problems, "reviews_per_product must be positive")
	}
	if cfg.MaxReviewPages < 0 {
		problems = append(problems, "max_review_pages must not be negative")
	}
	if !knownEngine(cfg.Browser.Engine) {
		problems = append(problems, fmt.Sprintf("unknown browser engine %q (want %s)", cfg.Browser.Engine, strings.Join(Engines, " or ")))
	}
	if cfg.Browser.Timeout <= 0 || cfg.Browser.LocateWait <= 0 {
		problems = append(problems, "browser timeout and locate_wait must be positive")
	}
	if cfg.Mongo.URI != "" && (cfg.Mongo.Database == "" || cfg.Mongo.Collection == "") {
		problems = append(problems, "mongo database and collection are required with a mongo uri")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func knownEngine(engine string) bool {
	for _, e := range Engines {
		if e == engine {
			return true
		}
	}
	return false
}
