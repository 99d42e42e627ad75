package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-extractor/internal/types"
	"review-extractor/utils"
	"review-extractor/utils/browsertest"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"chemistwarehouse", "mecca", "myer"}, Names())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "chemistwarehouse", Normalize(" Chemist Warehouse "))
	assert.Equal(t, "chemistwarehouse", Normalize("chemist-warehouse"))
	assert.Equal(t, "myer", Normalize("MYER"))
}

func TestNew(t *testing.T) {
	driver := browsertest.New()

	tests := []struct {
		name     string
		wantName string
		shape    types.OutputShape
	}{
		{"chemist warehouse", "Chemist Warehouse", types.OutputShape{KeyedReviews: true}},
		{"mecca", "Mecca", types.OutputShape{Wrapped: true}},
		{"Myer", "Myer", types.OutputShape{Wrapped: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := New(tt.name, driver, testConfig(), testLogger())
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, adapter.Name())
			assert.Equal(t, tt.shape, adapter.Output())
			assert.Positive(t, adapter.Pagination().MaxAdvances)

			_, ok := adapter.(Prober)
			assert.True(t, ok)
		})
	}
}

func TestNew_UnknownRetailer(t *testing.T) {
	_, err := New("sephora", browsertest.New(), testConfig(), testLogger())

	assert.ErrorIs(t, err, types.ErrUnknownRetailer)
	assert.Contains(t, err.Error(), "chemistwarehouse")
}

func TestRunProbes(t *testing.T) {
	browser := browsertest.New().AddPage("https://shop.test/buy/1", `<html><body>
		<input data-cy="global-search-input" style="display:none">
		<input aria-label="Search">
		<button aria-label="Next page">Next</button>
	</body></html>`)
	require.NoError(t, browser.Load("https://shop.test/buy/1"))
	locator := utils.NewLocator(browser, 0, 0, testLogger())

	results := RunProbes(context.Background(), locator, []Probe{
		{Name: "search input", Strategies: cwSearchInputs},
		{Name: "next page", Strategies: cwNextPage},
		{Name: "cookie banner", Strategies: cwCookieBanner},
	})

	require.Len(t, results, 3)

	assert.Equal(t, "search input", results[0].Name)
	assert.Equal(t, []int{1, 1, 0}, results[0].Counts)
	assert.Equal(t, []int{0, 1, 0}, results[0].Visible)
	assert.Equal(t, 1, results[0].Matched)

	assert.Equal(t, 1, results[1].Matched)
	assert.Equal(t, 1, results[1].Counts[2])

	assert.Equal(t, -1, results[2].Matched)
}
