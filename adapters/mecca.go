package adapters

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"review-extractor/internal/types"
	"review-extractor/utils"
)

const (
	meccaBase = "https://www.mecca.com"

	// meccaScrollAttempts bounds the lazy-load loop on the search page
	meccaScrollAttempts = 40
)

// MeccaAdapter drives mecca.com search tiles and the embedded review widget.
type MeccaAdapter struct {
	*BaseAdapter
}

// NewMeccaAdapter creates a new Mecca adapter
func NewMeccaAdapter(driver utils.Driver, config types.Config, logger types.Logger) *MeccaAdapter {
	return &MeccaAdapter{
		BaseAdapter: NewBaseAdapter(driver, config, logger),
	}
}

var (
	meccaBanners = []utils.Strategy{
		utils.XPath("//button[contains(translate(., 'ABCDEFGHIJKLMNOPQRSTUVWXYZ','abcdefghijklmnopqrstuvwxyz'),'accept')]"),
		utils.XPath("//button[contains(.,'Got it')]"),
		utils.XPath("//button[contains(.,'Close')]"),
	}

	meccaTiles      = utils.CSS("div[data-testid='ProductTile']")
	meccaTileTitle  = utils.CSS("div[data-testid='ProductTitle']")
	meccaTileAnchor = utils.CSS("div[data-testid='ProductTile'] a[href*='/en-au/']")
	meccaReviewForm = utils.CSS("#ugc-form")

	meccaCards = CardSpec{
		Cards: []utils.Strategy{utils.CSS("#ugc-form section article")},
		Title: []utils.Strategy{utils.CSS("div.css-7qt0pw > span")},
		Body:  []utils.Strategy{utils.CSS("[data-testid='mui-expandable-copy'] [role='region']")},
		Rating: RatingSpec{
			Numeric:  []utils.Strategy{utils.CSS("span.css-13q2n6h")},
			Labelled: []utils.Strategy{utils.CSS("[aria-label*='out of 5'],[aria-label*='out of five']")},
			Format:   Bare,
		},
		LongestText:   true,
		StripReadMore: true,
		RequireBody:   true,
	}

	meccaLoadMore = []utils.Strategy{
		utils.CSS("#ugc-form button").WithText("read more reviews"),
		utils.CSS("button").WithText("read more reviews"),
	}

	meccaExpanders = utils.CSS("#ugc-form button, #ugc-form a").WithText("read more")

	pricePattern = regexp.MustCompile(`\$\s*\d`)
)

// Name returns the retailer name used in records
func (m *MeccaAdapter) Name() string { return "Mecca" }

// Output emits a {search, products} document with review lists
func (m *MeccaAdapter) Output() types.OutputShape {
	return types.OutputShape{Wrapped: true}
}

// Pagination allows up to ten "load more" clicks per product
func (m *MeccaAdapter) Pagination() types.PaginationPolicy {
	return types.PaginationPolicy{MaxAdvances: 10, Settle: 1400 * time.Millisecond}
}

// SearchBase returns the search endpoint recorded in documents
func (m *MeccaAdapter) SearchBase() string { return meccaBase + "/en-au/search" }

// Prepare is a no-op; every search starts from its own URL
func (m *MeccaAdapter) Prepare(ctx context.Context) error {
	return ctx.Err()
}

// Search opens the search URL and scrolls until enough tiles have rendered
func (m *MeccaAdapter) Search(ctx context.Context, category string, limit int) (string, []types.SearchResultHandle, error) {
	searchURL := meccaBase + "/en-au/search/?searchTerm=" + url.QueryEscape(category)
	if err := m.Visit(ctx, searchURL); err != nil {
		return "", nil, err
	}
	m.Dismiss(ctx, meccaBanners...)
	m.locator.WaitAll(ctx, utils.CSS("div[data-testid='search-product-tabs']"))

	var handles []types.SearchResultHandle
	seen := make(map[string]bool)
	for attempt := 0; len(handles) < limit && attempt < meccaScrollAttempts; attempt++ {
		before := len(handles)
		for _, h := range m.tiles(ctx, searchURL) {
			if seen[h.URL] || h.Name == "" {
				continue
			}
			seen[h.URL] = true
			h.Index = len(handles) + 1
			handles = append(handles, h)
			if len(handles) >= limit {
				break
			}
		}
		if len(handles) >= limit {
			break
		}

		if err := m.driver.ScrollBy(ctx, 1200); err != nil {
			m.logger.Debugf("Failed to scroll results: %v", err)
		}
		if err := utils.Settle(ctx, m.config.Browser.SettleDelay); err != nil {
			return searchURL, handles, err
		}
		// Nudge back up on every third stalled attempt to retrigger the
		// lazy loader.
		if len(handles) == before && attempt%3 == 2 {
			_ = m.driver.ScrollBy(ctx, -350)
		}
	}

	if len(handles) == 0 {
		for _, a := range m.locator.WaitAll(ctx, meccaTileAnchor) {
			name := a.Text
			if name == "" {
				name = "Unknown product"
			}
			handles = append(handles, types.SearchResultHandle{Index: 1, URL: m.AbsoluteURL(searchURL, a.Attr("href")), Name: name})
			break
		}
	}
	if len(handles) == 0 {
		return searchURL, nil, &types.StepError{Step: "search", URL: searchURL, Err: types.ErrResultNotFound}
	}

	m.logger.Infof("Collected %d tiles for %q", len(handles), category)
	return searchURL, handles, nil
}

// tiles reads every product tile currently rendered
func (m *MeccaAdapter) tiles(ctx context.Context, base string) []types.SearchResultHandle {
	doc, err := m.Snapshot(ctx)
	if err != nil {
		m.logger.Debugf("Failed to snapshot results: %v", err)
		return nil
	}

	var handles []types.SearchResultHandle
	utils.Find(doc.Selection, meccaTiles).Each(func(_ int, tile *goquery.Selection) {
		title := utils.Find(tile, meccaTileTitle).First()
		anchor := title.Find("a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}

		h := types.SearchResultHandle{
			URL:   m.AbsoluteURL(base, href),
			Name:  utils.CleanText(anchor.Text()),
			Price: shortestPrice(tile.Find("p, span, div"), "$"),
		}
		if prev := title.Prev(); goquery.NodeName(prev) == "p" {
			h.Brand = utils.CleanText(prev.Text())
		}
		handles = append(handles, h)
	})
	return handles
}

// shortestPrice returns the shortest text of at most 40 characters that
// looks like a price.
func shortestPrice(sel *goquery.Selection, marker string) string {
	var texts []string
	sel.Each(func(_ int, el *goquery.Selection) {
		text := utils.CleanText(el.Text())
		if text != "" && len(text) <= 40 && strings.Contains(text, marker) {
			texts = append(texts, text)
		}
	})
	sort.SliceStable(texts, func(i, j int) bool { return len(texts[i]) < len(texts[j]) })
	if len(texts) == 0 {
		return ""
	}
	return texts[0]
}

// Reset is a no-op: products are opened by URL, so there is no results view
// position to restore
func (m *MeccaAdapter) Reset(ctx context.Context, resultsURL string) error {
	return ctx.Err()
}

// OpenProduct navigates straight to the tile's URL
func (m *MeccaAdapter) OpenProduct(ctx context.Context, handle types.SearchResultHandle) error {
	if err := m.Visit(ctx, handle.URL); err != nil {
		return err
	}
	m.Dismiss(ctx, meccaBanners...)
	return nil
}

// ProductDetails combines JSON-LD, the page heading and the tile
func (m *MeccaAdapter) ProductDetails(ctx context.Context, handle types.SearchResultHandle) types.ProductDetails {
	brand, name, price := handle.Brand, handle.Name, handle.Price

	doc, err := m.Snapshot(ctx)
	if err != nil {
		return types.ProductDetails{Name: combineProductName(brand, name), Price: price}
	}

	if ld, ok := ProductJSONLD(doc.Selection); ok {
		if ld.Brand != "" {
			brand = ld.Brand
		}
		if ld.Name != "" {
			name = ld.Name
		}
		if ld.Price != "" {
			price = ld.Price
			if !strings.HasPrefix(price, "$") {
				price = "$" + price
			}
		}
	}
	if h1, ok := utils.FirstText(doc.Selection, utils.XPath("//h1[normalize-space()]")); ok {
		name = h1
	}
	if brand == "" || strings.EqualFold(strings.TrimSpace(brand), strings.TrimSpace(name)) {
		if fromURL := brandFromURL(handle.URL); fromURL != "" {
			brand = fromURL
		}
	}
	if price == "" {
		var candidates []string
		utils.Find(doc.Selection, utils.XPath("//*[self::span or self::p or self::div][contains(., '$') and string-length(normalize-space())<=40]")).
			Each(func(_ int, el *goquery.Selection) {
				if text := utils.CleanText(el.Text()); pricePattern.MatchString(text) {
					candidates = append(candidates, text)
				}
			})
		sort.SliceStable(candidates, func(i, j int) bool { return len(candidates[i]) < len(candidates[j]) })
		if len(candidates) > 0 {
			price = candidates[0]
		}
	}

	return types.ProductDetails{Name: combineProductName(brand, name), Price: price}
}

// brandFromURL title-cases the first path segment after /en-au/
func brandFromURL(raw string) string {
	_, path, ok := strings.Cut(raw, "/en-au/")
	if !ok {
		return ""
	}
	slug, _, _ := strings.Cut(path, "/")
	if unescaped, err := url.PathUnescape(slug); err == nil {
		slug = unescaped
	}
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == ' ' })
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// combineProductName prefixes the brand unless the name already starts with it
func combineProductName(brand, name string) string {
	switch {
	case brand != "" && name != "":
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(brand)) {
			return name
		}
		return brand + " " + name
	case name != "":
		return name
	default:
		return brand
	}
}

// OpenReviews scrolls the review widget into view
func (m *MeccaAdapter) OpenReviews(ctx context.Context) error {
	forms := m.locator.WaitAll(ctx, meccaReviewForm)
	if len(forms) == 0 {
		m.logger.Debug("Review widget not rendered")
		return nil
	}
	_ = m.driver.ScrollIntoView(ctx, forms[0].Ref)
	_ = m.driver.ScrollBy(ctx, 360)
	return utils.Settle(ctx, m.config.Browser.SettleDelay)
}

// Summary reads the aggregate rating from JSON-LD
func (m *MeccaAdapter) Summary(ctx context.Context) types.ReviewSummary {
	doc, err := m.Snapshot(ctx)
	if err != nil {
		return types.ReviewSummary{RatingHistogram: map[string]string{}}
	}
	ld, _ := ProductJSONLD(doc.Selection)
	return SummaryFromJSONLD(ld)
}

// Reviews loads more cards with the "Read more reviews" button, expanding
// truncated bodies before every read
func (m *MeccaAdapter) Reviews(ctx context.Context) (types.ReviewPager, error) {
	pager, err := NewCardPager(meccaCards, m.Snapshot, func(ctx context.Context) (bool, error) {
		return m.ClickNext(ctx, meccaLoadMore...)
	}, m.logger)
	if err != nil {
		return nil, err
	}
	return pager.WithPrepare(m.expandCards).WithParser(parseMeccaCard), nil
}

// expandCards clicks every "Read more" trigger inside the widget
func (m *MeccaAdapter) expandCards(ctx context.Context) {
	for _, el := range m.locator.All(ctx, meccaExpanders) {
		if strings.Contains(strings.ToLower(el.Text), "reviews") {
			continue
		}
		if err := m.driver.Click(ctx, el.Ref); err != nil {
			m.logger.Debugf("Failed to expand card: %v", err)
		}
	}
}

var meccaChrome = regexp.MustCompile(`(?i)read\s+more|read\s+less`)

// parseMeccaCard reads the inner card wrapper when present and falls back to
// the first short span for the title
func parseMeccaCard(card *goquery.Selection) types.ReviewRecord {
	node := card
	if inner := card.Find("div.css-1q22pos").First(); inner.Length() > 0 {
		node = inner
	}

	record := ParseCard(node, meccaCards)
	if record.IsEmpty() || record.Title != "" {
		return record
	}
	node.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := utils.CleanText(s.Text())
		if text != "" && len(text) <= 100 && !meccaChrome.MatchString(text) {
			record.Title = text
			return false
		}
		return true
	})
	return record
}

// Probes lists the strategy chains of the adapter for drift diagnosis
func (m *MeccaAdapter) Probes() []Probe {
	return []Probe{
		{Name: "banners", Strategies: meccaBanners},
		{Name: "product tiles", Strategies: []utils.Strategy{meccaTiles}},
		{Name: "review widget", Strategies: []utils.Strategy{meccaReviewForm}},
		{Name: "review cards", Strategies: meccaCards.Cards},
		{Name: "load more", Strategies: meccaLoadMore},
	}
}
