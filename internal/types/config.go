package types

import "time"

// Config is the immutable configuration of one scrape run. Components take
// it by value at construction.
type Config struct {
	Retailer            string        `mapstructure:"retailer"`
	Categories          []string      `mapstructure:"categories"`
	ProductsPerCategory int           `mapstructure:"products_per_category"`
	ReviewsPerProduct   int           `mapstructure:"reviews_per_product"`
	MaxReviewPages      int           `mapstructure:"max_review_pages"`
	OutputDir           string        `mapstructure:"output_dir"`
	OutputPrefix        string        `mapstructure:"output_prefix"`
	Score               bool          `mapstructure:"score"`
	MetricsFile         string        `mapstructure:"metrics_file"`
	Browser             BrowserConfig `mapstructure:"browser"`
	Mongo               MongoConfig   `mapstructure:"mongo"`
}

// BrowserConfig holds the controlled browser settings and wait bounds
type BrowserConfig struct {
	Engine       string        `mapstructure:"engine"`
	Headless     bool          `mapstructure:"headless"`
	UserAgent    string        `mapstructure:"user_agent"`
	WindowWidth  int           `mapstructure:"window_width"`
	WindowHeight int           `mapstructure:"window_height"`
	Timeout      time.Duration `mapstructure:"timeout"`
	LocateWait   time.Duration `mapstructure:"locate_wait"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
}

// MongoConfig enables the optional MongoDB sink when URI is set
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Retailer:            "chemistwarehouse",
		Categories:          []string{"cleanser", "toner", "serum", "moisturizer", "sunscreen"},
		ProductsPerCategory: 12,
		ReviewsPerProduct:   20,
		OutputDir:           ".",
		Score:               true,
		Browser: BrowserConfig{
			Engine:       "chromedp",
			Headless:     true,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
			WindowWidth:  1366,
			WindowHeight: 1024,
			Timeout:      15 * time.Second,
			LocateWait:   3 * time.Second,
			PollInterval: 250 * time.Millisecond,
			SettleDelay:  1200 * time.Millisecond,
		},
		Mongo: MongoConfig{
			Database:   "reviews",
			Collection: "products",
		},
	}
}
