package adapters

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"review-extractor/internal/types"
	"review-extractor/utils"
)

const (
	myerSearchBase = "https://www.myer.com.au/search"

	// myerResultPages is how many search result pages are walked per category
	myerResultPages = 2
	// myerScrollSteps triggers the lazy loader on a results page
	myerScrollSteps = 5

	// myerReviewHost hosts the Bazaarvoice widget's shadow root
	myerReviewHost = `div[data-automation="bazaar-voice-reviews"]`
)

// MyerAdapter drives myer.com.au search pages and Bazaarvoice reviews.
type MyerAdapter struct {
	*BaseAdapter
}

// NewMyerAdapter creates a new Myer adapter
func NewMyerAdapter(driver utils.Driver, config types.Config, logger types.Logger) *MyerAdapter {
	return &MyerAdapter{
		BaseAdapter: NewBaseAdapter(driver, config, logger),
	}
}

var (
	myerProductLinks = utils.CSS(`a[href*="/p/"]`)

	myerNextResults = []utils.Strategy{
		utils.CSS(`link[rel="next"]`),
		utils.XPath(`//a[contains(@aria-label,"Next") or normalize-space()="Next"]`),
	}

	myerReviewsTab = []utils.Strategy{
		utils.XPath(`//button[contains(.,"Reviews")]`),
		utils.XPath(`//a[contains(.,"Reviews")]`),
		utils.XPath(`//*[@role="tab" and contains(., "Reviews")]`),
	}

	myerNameHeadings = []utils.Strategy{
		utils.CSS(`h1, h2, [data-automation*="title"], [class*="product-title"]`),
	}

	myerCards = CardSpec{
		Cards: []utils.Strategy{utils.CSS(`section[id^="bv-review-"]`)},
		Title: []utils.Strategy{utils.CSS(`h3[itemprop="name"]`), utils.CSS(`[itemprop="name"]`)},
		Body:  []utils.Strategy{utils.CSS(`[itemprop="reviewBody"]`)},
		Rating: RatingSpec{
			Labelled: []utils.Strategy{utils.CSS(`[role="img"][aria-label*="out of 5"]`)},
			Format:   Bare,
		},
		RequireText: true,
	}

	myerNextReviews = utils.CSS(`a.next[role="button"], a.next`)

	myerSuffix      = regexp.MustCompile(`(?i)\s*\|\s*MYER.*$`)
	myerPriceNumber = regexp.MustCompile(`\$?\s*([\d.,]+)`)
)

// Name returns the retailer name used in records
func (m *MyerAdapter) Name() string { return "Myer" }

// Output emits a {search, products} document with review lists
func (m *MyerAdapter) Output() types.OutputShape {
	return types.OutputShape{Wrapped: true}
}

// Pagination allows one page turn, the first page plus one "next"
func (m *MyerAdapter) Pagination() types.PaginationPolicy {
	return types.PaginationPolicy{MaxAdvances: 1, Settle: 2 * time.Second}
}

// SearchBase returns the search endpoint recorded in documents
func (m *MyerAdapter) SearchBase() string { return myerSearchBase }

// Prepare is a no-op; every search starts from its own URL
func (m *MyerAdapter) Prepare(ctx context.Context) error {
	return ctx.Err()
}

// Search collects product links across up to two result pages
func (m *MyerAdapter) Search(ctx context.Context, category string, limit int) (string, []types.SearchResultHandle, error) {
	searchURL := myerSearchBase + "?" + url.Values{"query": {category}}.Encode()
	if err := m.Visit(ctx, searchURL); err != nil {
		return "", nil, err
	}

	var links []string
	for page := 0; page < myerResultPages && len(links) < limit; page++ {
		for i := 0; i < myerScrollSteps; i++ {
			_ = m.driver.ScrollBy(ctx, 1600)
			if err := utils.Settle(ctx, m.config.Browser.PollInterval); err != nil {
				return searchURL, nil, err
			}
		}

		doc, err := m.Snapshot(ctx)
		if err != nil {
			return searchURL, nil, &types.StepError{Step: "search", URL: searchURL, Err: err}
		}
		current, _ := m.CurrentURL(ctx)
		utils.Find(doc.Selection, myerProductLinks).Each(func(_ int, a *goquery.Selection) {
			href := m.StripQuery(m.AbsoluteURL(current, a.AttrOr("href", "")))
			if strings.Contains(href, "/p/") {
				links = append(links, href)
			}
		})
		links = m.RemoveDuplicateURLs(links)
		if len(links) >= limit {
			break
		}

		next, ok := utils.FirstAttr(doc.Selection, "href", myerNextResults...)
		if !ok {
			break
		}
		if err := m.Visit(ctx, m.AbsoluteURL(current, next)); err != nil {
			m.logger.Warnf("Failed to open next results page: %v", err)
			break
		}
	}

	if len(links) > limit {
		links = links[:limit]
	}
	if len(links) == 0 {
		return searchURL, nil, &types.StepError{Step: "search", URL: searchURL, Err: types.ErrResultNotFound}
	}

	handles := make([]types.SearchResultHandle, 0, len(links))
	for i, link := range links {
		handles = append(handles, types.SearchResultHandle{Index: i + 1, URL: link})
	}
	m.logger.Infof("Found %d product URLs for %q", len(handles), category)
	return searchURL, handles, nil
}

// Reset is a no-op: products are opened by URL, so there is no results view
// position to restore
func (m *MyerAdapter) Reset(ctx context.Context, resultsURL string) error {
	return ctx.Err()
}

// OpenProduct navigates straight to the product URL
func (m *MyerAdapter) OpenProduct(ctx context.Context, handle types.SearchResultHandle) error {
	return m.Visit(ctx, handle.URL)
}

// ProductDetails reads name and price with JSON-LD first and DOM fallbacks
func (m *MyerAdapter) ProductDetails(ctx context.Context, handle types.SearchResultHandle) types.ProductDetails {
	doc, err := m.Snapshot(ctx)
	if err != nil {
		return types.ProductDetails{Name: handle.Name}
	}
	page := doc.Selection
	ld, _ := ProductJSONLD(page)

	name := utils.OrDefault(handle.Name,
		func() (string, bool) { return ld.Name, ld.Name != "" },
		func() (string, bool) { return utils.FirstText(page, myerNameHeadings...) },
		func() (string, bool) {
			og, ok := utils.FirstAttr(page, "content", utils.CSS(`meta[property="og:title"], meta[name="og:title"]`))
			return trimMyerSuffix(og), ok && trimMyerSuffix(og) != ""
		},
		func() (string, bool) {
			title := trimMyerSuffix(utils.TextOf(page.Find("title")))
			return title, title != ""
		},
	)

	price := utils.OrDefault("",
		func() (string, bool) { return ld.Price, ld.Price != "" },
		func() (string, bool) {
			content, ok := utils.FirstAttr(page, "content", utils.CSS(`meta[itemprop="price"]`))
			return priceNumber(content), ok && priceNumber(content) != ""
		},
		func() (string, bool) {
			text, _ := utils.FirstText(page, utils.CSS(`[itemprop="price"]`))
			return priceNumber(text), priceNumber(text) != ""
		},
		func() (string, bool) {
			text, _ := utils.FirstText(page, utils.CSS(`[data-automation*="price"]`), utils.CSS(`[class*="price"]`))
			return priceNumber(text), priceNumber(text) != ""
		},
	)

	return types.ProductDetails{Name: name, Price: price}
}

func trimMyerSuffix(s string) string {
	return strings.TrimSpace(myerSuffix.ReplaceAllString(utils.CleanText(s), ""))
}

func priceNumber(s string) string {
	if m := myerPriceNumber.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// OpenReviews clicks the reviews tab and waits for the Bazaarvoice host,
// scrolling to the bottom once if it has not rendered
func (m *MyerAdapter) OpenReviews(ctx context.Context) error {
	if tab, err := m.locator.Locate(ctx, myerReviewsTab...); err == nil {
		_ = m.driver.ScrollIntoView(ctx, tab.Ref)
		if err := m.driver.Click(ctx, tab.Ref); err != nil {
			m.logger.Debugf("Failed to click reviews tab: %v", err)
		}
		if err := utils.Settle(ctx, m.config.Browser.SettleDelay); err != nil {
			return err
		}
	}

	hosts := m.locator.WaitAll(ctx, utils.CSS(myerReviewHost))
	if len(hosts) == 0 {
		_ = m.driver.ScrollTo(ctx, 1<<20)
		if err := utils.Settle(ctx, m.config.Browser.SettleDelay); err != nil {
			return err
		}
		hosts = m.locator.WaitAll(ctx, utils.CSS(myerReviewHost))
	}
	if len(hosts) == 0 {
		m.logger.Debug("Bazaarvoice widget not rendered")
		return nil
	}
	return m.driver.ScrollIntoView(ctx, hosts[0].Ref)
}

// Summary reads the aggregate rating from JSON-LD
func (m *MyerAdapter) Summary(ctx context.Context) types.ReviewSummary {
	doc, err := m.Snapshot(ctx)
	if err != nil {
		return types.ReviewSummary{RatingHistogram: map[string]string{}}
	}
	ld, _ := ProductJSONLD(doc.Selection)
	return SummaryFromJSONLD(ld)
}

// Reviews reads cards from the widget's shadow root and turns pages by
// following the widget's next link
func (m *MyerAdapter) Reviews(ctx context.Context) (types.ReviewPager, error) {
	snapshot := func(ctx context.Context) (*goquery.Document, error) {
		return m.ShadowSnapshot(ctx, myerReviewHost)
	}
	pager, err := NewCardPager(myerCards, snapshot, m.nextReviews, m.logger)
	if err != nil {
		return nil, err
	}
	return pager, nil
}

func (m *MyerAdapter) nextReviews(ctx context.Context) (bool, error) {
	root, err := m.ShadowSnapshot(ctx, myerReviewHost)
	if err != nil {
		return false, err
	}

	var next string
	utils.Find(root.Selection, myerNextReviews).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		switch strings.ToLower(a.AttrOr("aria-disabled", "")) {
		case "true", "1":
			return true
		}
		if href := a.AttrOr("href", ""); strings.Contains(href, "bvstate=pg:") {
			next = href
			return false
		}
		return true
	})
	if next == "" {
		return false, nil
	}

	current, _ := m.CurrentURL(ctx)
	if err := m.Visit(ctx, m.AbsoluteURL(current, next)); err != nil {
		return false, err
	}
	return true, m.OpenReviews(ctx)
}

// Probes lists the strategy chains of the adapter for drift diagnosis
func (m *MyerAdapter) Probes() []Probe {
	return []Probe{
		{Name: "product links", Strategies: []utils.Strategy{myerProductLinks}},
		{Name: "next results", Strategies: myerNextResults},
		{Name: "reviews tab", Strategies: myerReviewsTab},
		{Name: "review host", Strategies: []utils.Strategy{utils.CSS(myerReviewHost)}},
		{Name: "product name", Strategies: myerNameHeadings},
	}
}
