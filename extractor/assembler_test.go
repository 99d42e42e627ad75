package extractor

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"review-extractor/internal/types"
)

func TestAssembler_Product(t *testing.T) {
	a := Assembler{Retailer: "Chemist Warehouse", Shape: types.OutputShape{KeyedReviews: true}}
	reviews := []types.ReviewRecord{review("Jo", "Great")}

	got := a.Product("serum", "https://shop.test/buy/1", types.ProductDetails{Name: "Serum", Price: "24.99"},
		types.ReviewSummary{AverageRating: "4.5 out of 5"}, reviews)

	want := types.ProductRecord{
		Retailer:    "Chemist Warehouse",
		Category:    "serum",
		ProductName: "Serum",
		ProductURL:  "https://shop.test/buy/1",
		Price:       "24.99",
		ReviewSummary: types.ReviewSummary{
			AverageRating:   "4.5 out of 5",
			RatingHistogram: map[string]string{},
		},
		ReviewsCollected: 1,
		Reviews:          reviews,
		KeyedReviews:     true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("product mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembler_EmptyProduct(t *testing.T) {
	got := Assembler{Retailer: "Myer"}.Product("toner", "https://shop.test/p/x", types.ProductDetails{}, types.ReviewSummary{}, nil)

	assert.Equal(t, 0, got.ReviewsCollected)
	assert.NotNil(t, got.Reviews)
	assert.NotNil(t, got.ReviewSummary.RatingHistogram)
	assert.Equal(t, "https://shop.test/p/x", got.Identifier())
}

func TestAssembler_Document(t *testing.T) {
	at := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)

	flat := Assembler{}.Document([]string{"serum"}, "https://shop.test", nil, at)
	assert.Nil(t, flat.Search)
	assert.NotNil(t, flat.Products)

	wrapped := Assembler{Shape: types.OutputShape{Wrapped: true}}.Document([]string{"serum"}, "https://shop.test", nil, at)
	assert.Equal(t, &types.SearchInfo{Categories: []string{"serum"}, Base: "https://shop.test", ScrapedAt: "2025-01-02 15:04:05"}, wrapped.Search)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveProduct("Myer", "ok", time.Second)
		m.AddReviews("Myer", 3)
		m.AddPages("Myer", 1)
		m.IncError("Myer", "canceled")
	})
	assert.NoError(t, m.WriteTextfile("ignored.prom"))
}
