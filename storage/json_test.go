package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-extractor/internal/types"
)

func sampleProduct(keyed bool) types.ProductRecord {
	return types.ProductRecord{
		Retailer:    "Chemist Warehouse",
		Category:    "serum",
		ProductName: "Crème Sérum <Niacinamide & Zinc>",
		ProductURL:  "https://shop.test/buy/1",
		Price:       "$12.99",
		ReviewSummary: types.ReviewSummary{
			AverageRating:   "4.6",
			TotalCount:      "2",
			RatingHistogram: map[string]string{"5 stars": "1"},
		},
		ReviewsCollected: 2,
		Reviews: []types.ReviewRecord{
			{ReviewerName: "Zoë", RatingText: "5", Title: "Love", Date: "01/02/2025", Body: "Works <really> well & fast"},
			{ReviewerName: types.AnonymousReviewer, RatingText: "2", Body: "Pilled under sunscreen"},
		},
		KeyedReviews: keyed,
	}
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, filepath.Join("out", "cw_reviews_20250304_050607.json"), OutputPath("out", "cw_reviews", now))
}

func TestDerivedPath(t *testing.T) {
	assert.Equal(t, "out/cw_20250101_summary.csv", DerivedPath("out/cw_20250101.json", "_summary.csv"))
	assert.Equal(t, "cw_sentiment.json", DerivedPath("cw", "_sentiment.json"))
}

func TestWriteDocument_FlatRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "flat.json")
	doc := types.Document{Products: []types.ProductRecord{sampleProduct(true)}}

	require.NoError(t, WriteDocument(path, doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "[\n  {"), text)
	assert.Contains(t, text, `"customer_review_001"`)
	assert.Contains(t, text, "Crème Sérum <Niacinamide & Zinc>")
	assert.Contains(t, text, "Works <really> well & fast")
	assert.NotContains(t, text, `\u003c`)

	got, err := ReadDocument(path)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteDocument_WrappedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrapped.json")
	doc := types.Document{
		Search: &types.SearchInfo{
			Categories: []string{"serum"},
			Base:       "https://shop.test/search?q=",
			ScrapedAt:  "2025-03-04T05:06:07Z",
		},
		Products: []types.ProductRecord{sampleProduct(false)},
	}

	require.NoError(t, WriteDocument(path, doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"search": {`)
	assert.Contains(t, string(data), `"reviews": [`)

	got, err := ReadDocument(path)
	require.NoError(t, err)
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadDocument_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadDocument(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = ReadDocument(bad)
	assert.ErrorContains(t, err, "failed to decode")
}
