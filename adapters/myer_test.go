package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-extractor/internal/types"
	"review-extractor/utils/browsertest"
)

func TestMyer_SearchWalksResultPages(t *testing.T) {
	browser := browsertest.New().
		AddPage("https://www.myer.com.au/search?query=moisturiser", `<html><head>
<link rel="next" href="?query=moisturiser&pageNumber=2"></head><body>
<a href="/p/clinique-moisture-surge?colour=none">Moisture Surge</a>
<a href="/p/clinique-moisture-surge">Moisture Surge</a>
<a href="/c/beauty">Beauty</a>
<a href="/p/kiehls-ultra-facial">Ultra Facial</a>
</body></html>`).
		AddPage("https://www.myer.com.au/search?query=moisturiser&pageNumber=2", `<html><body>
<a href="/p/kiehls-ultra-facial">Ultra Facial</a>
<a href="/p/origins-ginzing">GinZing</a>
<a href="/p/laneige-water-bank">Water Bank</a>
</body></html>`)
	myer := NewMyerAdapter(browser, testConfig(), testLogger())

	resultsURL, handles, err := myer.Search(context.Background(), "moisturiser", 3)

	require.NoError(t, err)
	assert.Equal(t, "https://www.myer.com.au/search?query=moisturiser", resultsURL)
	assert.Equal(t, []types.SearchResultHandle{
		{Index: 1, URL: "https://www.myer.com.au/p/clinique-moisture-surge"},
		{Index: 2, URL: "https://www.myer.com.au/p/kiehls-ultra-facial"},
		{Index: 3, URL: "https://www.myer.com.au/p/origins-ginzing"},
	}, handles)
	assert.Greater(t, browser.ScrollY, 0)
}

func TestMyer_ProductDetailsFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   types.ProductDetails
	}{
		{
			name: "json-ld",
			markup: `<html><head><script type="application/ld+json">{"@type":"Product","name":"Ultra Facial Cream","offers":{"price":"54"}}</script></head>
<body><h1>Ignored</h1></body></html>`,
			want: types.ProductDetails{Name: "Ultra Facial Cream", Price: "54"},
		},
		{
			name: "og title and meta price",
			markup: `<html><head><meta property="og:title" content="Water Bank Cream | MYER"><meta itemprop="price" content="65.00"></head>
<body></body></html>`,
			want: types.ProductDetails{Name: "Water Bank Cream", Price: "65.00"},
		},
		{
			name: "title tag and price class",
			markup: `<html><head><title>GinZing Gel | MYER Online</title></head>
<body><div class="product-price">Now $1,299.00</div></body></html>`,
			want: types.ProductDetails{Name: "GinZing Gel", Price: "1,299.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			browser := browsertest.New().AddPage("https://www.myer.com.au/p/item", tt.markup)
			myer := NewMyerAdapter(browser, testConfig(), testLogger())
			handle := types.SearchResultHandle{Index: 1, URL: "https://www.myer.com.au/p/item"}

			require.NoError(t, myer.OpenProduct(context.Background(), handle))
			assert.Equal(t, tt.want, myer.ProductDetails(context.Background(), handle))
		})
	}
}

const myerProduct = `<html><head><script type="application/ld+json">{"@type":"Product","name":"Cream",
"aggregateRating":{"ratingValue":"4.7","reviewCount":"88"}}</script></head>
<body><button>Reviews (88)</button><div data-automation="bazaar-voice-reviews"></div></body></html>`

func myerReview(id, title, body, rating string) string {
	return `<section id="bv-review-` + id + `"><h3 itemprop="name">` + title + `</h3>` +
		`<div role="img" aria-label="` + rating + ` out of 5 stars"></div>` +
		`<div itemprop="reviewBody">` + body + `</div></section>`
}

func TestMyer_ShadowReviewsAndPaging(t *testing.T) {
	page1 := "https://www.myer.com.au/p/cream"
	page2 := "https://www.myer.com.au/p/cream?bvstate=pg:2/ct:r"
	browser := browsertest.New().
		AddPage(page1, myerProduct).
		AddShadow(page1, myerReviewHost, myerReview("1", "Rich", "Very hydrating", "5")+
			myerReview("2", "", "", "3")+
			`<a class="next" role="button" href="?bvstate=pg:2/ct:r">Next</a>`).
		AddPage(page2, myerProduct).
		AddShadow(page2, myerReviewHost, myerReview("3", "Greasy", "Too heavy for summer", "2")+
			`<a class="next" role="button" aria-disabled="true" href="?bvstate=pg:3/ct:r">Next</a>`)
	myer := NewMyerAdapter(browser, testConfig(), testLogger())
	ctx := context.Background()

	require.NoError(t, myer.OpenProduct(ctx, types.SearchResultHandle{URL: page1}))
	require.NoError(t, myer.OpenReviews(ctx))
	assert.Equal(t, []string{"Reviews (88)"}, browser.Clicks)

	summary := myer.Summary(ctx)
	assert.Equal(t, "4.7", summary.AverageRating)
	assert.Equal(t, "88", summary.TotalCount)

	pager, err := myer.Reviews(ctx)
	require.NoError(t, err)

	first, err := pager.Cards(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, types.ReviewRecord{ReviewerName: types.AnonymousReviewer, RatingText: "5", Title: "Rich", Body: "Very hydrating"}, first[0])
	assert.True(t, first[1].IsEmpty())

	advanced, err := pager.Advance(ctx)
	require.NoError(t, err)
	assert.True(t, advanced)
	current, _ := myer.CurrentURL(ctx)
	assert.Equal(t, page2, current)

	second, err := pager.Cards(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Greasy", second[0].Title)

	advanced, err = pager.Advance(ctx)
	require.NoError(t, err)
	assert.False(t, advanced)
}

func TestTrimMyerSuffix(t *testing.T) {
	assert.Equal(t, "Moisture Surge", trimMyerSuffix("Moisture Surge | MYER"))
	assert.Equal(t, "Moisture Surge", trimMyerSuffix("  Moisture   Surge  "))
	assert.Equal(t, "1,299.00", priceNumber("$ 1,299.00"))
	assert.Equal(t, "", priceNumber("free"))
}
