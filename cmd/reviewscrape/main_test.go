package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-extractor/internal/types"
	"review-extractor/storage"
)

func TestApplyScrapeFlags(t *testing.T) {
	cmd := &cobra.Command{}
	flags := cmd.Flags()
	flags.String("categories", "", "")
	flags.Int("reviews", 0, "")
	flags.Bool("headful", false, "")
	flags.String("retailer", "", "")
	require.NoError(t, flags.Set("categories", " serum, ,toner "))
	require.NoError(t, flags.Set("headful", "true"))
	require.NoError(t, flags.Set("retailer", "Mecca"))

	cfg := types.DefaultConfig()
	applyScrapeFlags(cmd, &cfg, scrapeFlags{
		retailer:   "Mecca",
		categories: " serum, ,toner ",
		reviews:    99,
		headful:    true,
	})

	assert.Equal(t, "Mecca", cfg.Retailer)
	assert.Equal(t, []string{"serum", "toner"}, cfg.Categories)
	assert.Equal(t, 20, cfg.ReviewsPerProduct, "unchanged flags keep the loaded value")
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "mecca_reviews", cfg.OutputPrefix)
}

func TestRetailersCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newRetailersCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "chemistwarehouse\nmecca\nmyer\n", out.String())
}

func TestScoreDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cw_reviews_20250101_000000.json")
	doc := types.Document{Products: []types.ProductRecord{{
		ProductName: "Gentle Cleanser",
		Category:    "cleanser",
		Reviews: []types.ReviewRecord{
			{Body: "I love this, great for dry skin"},
			{Title: "Terrible, it burned"},
		},
	}}}
	require.NoError(t, storage.WriteDocument(path, doc))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	require.NoError(t, scoreDocument(path, doc, logger))

	scored, err := storage.ReadDocument(storage.DerivedPath(path, "_sentiment.json"))
	require.NoError(t, err)
	reviews := scored.Products[0].Reviews
	require.NotNil(t, reviews[0].Sentiment)
	assert.Equal(t, "Positive", reviews[0].Sentiment.Label)
	assert.Equal(t, "Negative", reviews[1].Sentiment.Label)

	summary, err := os.ReadFile(storage.DerivedPath(path, "_summary.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Gentle Cleanser,cleanser,")

	original, err := storage.ReadDocument(path)
	require.NoError(t, err)
	assert.Nil(t, original.Products[0].Reviews[0].Sentiment)
}

func TestStoreInMongo_OutlivesCanceledRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	err := storeInMongo(ctx, types.MongoConfig{
		URI:        "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=50&connectTimeoutMS=50",
		Database:   "reviews",
		Collection: "products",
	}, []types.ProductRecord{{ProductName: "A"}}, logger)

	require.Error(t, err)
	assert.NotErrorIs(t, err, context.Canceled)
	assert.ErrorContains(t, err, "mongodb ping")
}
