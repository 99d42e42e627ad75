package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"review-extractor/internal/types"
	"review-extractor/utils"
)

const (
	chemistWarehouseHome = "https://www.chemistwarehouse.com.au/"

	cwTitle  = "h6[contains(@class,'headline') and contains(@class,'title')]"
	cwColumn = "div[contains(@class,'flex') and contains(@class,'flex-col')]"
)

// innermost builds an XPath for the deepest container elements holding a
// target, the nearest-ancestor lookup without a positional predicate on a
// reverse axis. Snapshot XPath applies such predicates across the whole
// node-set, which keeps only the first card.
func innermost(container, target string) string {
	return "//" + container + "[.//" + target + "][not(.//" + container + "//" + target + ")]"
}

// ChemistWarehouseAdapter drives chemistwarehouse.com.au through its search
// box and results list.
type ChemistWarehouseAdapter struct {
	*BaseAdapter
}

// NewChemistWarehouseAdapter creates a new Chemist Warehouse adapter
func NewChemistWarehouseAdapter(driver utils.Driver, config types.Config, logger types.Logger) *ChemistWarehouseAdapter {
	return &ChemistWarehouseAdapter{
		BaseAdapter: NewBaseAdapter(driver, config, logger),
	}
}

var (
	cwCookieBanner = []utils.Strategy{
		utils.CSS("#onetrust-accept-btn-handler"),
		utils.XPath("//button[@id='onetrust-accept-btn-handler' or normalize-space()='CLOSE']"),
		utils.CSS("button#onetrust-accept-btn-handler, .onetrust-close-btn-handler"),
	}

	cwSearchInputs = []utils.Strategy{
		utils.CSS("input[data-cy='global-search-input']"),
		utils.CSS("input[aria-label='Search']"),
		utils.XPath("//input[@type='search' and not(ancestor::*[contains(@class,'hidden')])]"),
	}

	cwSearchSubmit = []utils.Strategy{
		utils.CSS("button[aria-label='Open search'], button[type='submit'][aria-label='Search']"),
	}

	cwResults = ResultList{
		Items:     utils.XPath("//li[.//a[contains(@href,'/buy/')]]"),
		Anchor:    utils.XPath(".//a[contains(@href,'/buy/')]"),
		Sponsored: func(n utils.Node) bool { return strings.Contains(n.Text, "Sponsored") },
		DetailURL: "/buy/",
	}

	cwReviewsToggle = []utils.Strategy{
		utils.XPath("//button[.//text()[contains(.,'Reviews')]] | //h3[normalize-space()='Reviews']/parent::div/preceding-sibling::button"),
	}

	cwSummary = SummarySpec{
		Average: []utils.Strategy{
			utils.XPath("(//span[contains(@class,'text') and normalize-space()][contains(.,'.')])[1]"),
		},
		Total: []utils.Strategy{
			utils.XPath("//span[contains(.,'Reviews')]"),
		},
		Histogram: []utils.Strategy{
			utils.XPath(innermost("div[contains(@class,'flex-col')]", "span[normalize-space()='Ratings snapshot']")),
			utils.XPath(innermost("div[contains(@class,'flex-col')]", "span[contains(.,'Ratings snapshot')]")),
			utils.XPath("//div[.//span[contains(.,'Ratings snapshot')]][contains(@class,'flex-col')]"),
		},
		Rows: []utils.Strategy{
			utils.XPath(".//button[.//span[contains(.,'star')]]"),
		},
		Counts: []utils.Strategy{
			utils.XPath(".//span[contains(@class,'text-right') or contains(@class,'text-black')]"),
		},
		AverageFormat: func(v string) string { return v + " out of 5" },
		TotalFormat:   func(v string) string { return v + " Reviews" },
	}

	cwCards = CardSpec{
		Cards: []utils.Strategy{
			utils.XPath(innermost(cwColumn, cwTitle)),
		},
		Title:    []utils.Strategy{utils.XPath(".//" + cwTitle)},
		Reviewer: []utils.Strategy{utils.XPath(".//span[contains(@class,'text-colour-body-grey')]")},
		Date:     []utils.Strategy{utils.XPath(".//span[contains(@class,'text-cw-grey-200')]")},
		Body:     []utils.Strategy{utils.XPath(".//p[contains(@class,'text-colour-body-grey') and contains(@class,'body')]")},
		Rating: RatingSpec{
			Labelled: []utils.Strategy{
				utils.XPath(".//*[contains(@aria-label,'out of 5')]"),
				utils.XPath(".//*[contains(@title,'out of 5')]"),
				utils.XPath(".//span[contains(normalize-space(.), 'out of 5')]"),
			},
			StarGroups: []utils.Strategy{
				utils.XPath(".//div[contains(@class,'flex') and contains(@class,'items-center')][.//*[local-name()='svg']]"),
			},
			Glyphs: true,
			Format: StarsText,
		},
	}

	// The pager has no stable id; the absolute path is what the site renders
	// today, the rest are looser fallbacks.
	cwNextPage = []utils.Strategy{
		utils.XPath("/html/body/div[1]/div/div/main/div[2]/div/div[2]/section/div/div[2]/div/div/div/div[4]/div/div/button[2]"),
		utils.CSS("button[aria-label='Next page'], button[aria-label='Next']"),
		utils.XPath("//button[normalize-space()='Next' or .//span[normalize-space()='Next']]"),
	}
)

// Name returns the retailer name used in records
func (c *ChemistWarehouseAdapter) Name() string { return "Chemist Warehouse" }

// Output emits a flat product list with reviews keyed customer_review_NNN
func (c *ChemistWarehouseAdapter) Output() types.OutputShape {
	return types.OutputShape{KeyedReviews: true}
}

// Pagination allows up to ten "next" clicks per product
func (c *ChemistWarehouseAdapter) Pagination() types.PaginationPolicy {
	return types.PaginationPolicy{MaxAdvances: 10, Settle: 2 * time.Second}
}

// SearchBase returns the home page the search box lives on
func (c *ChemistWarehouseAdapter) SearchBase() string { return chemistWarehouseHome }

// Prepare opens the home page and closes the cookie banner
func (c *ChemistWarehouseAdapter) Prepare(ctx context.Context) error {
	if err := c.Visit(ctx, chemistWarehouseHome); err != nil {
		return err
	}
	if !c.Dismiss(ctx, cwCookieBanner...) {
		c.logger.Info("No cookie popup found")
	}
	return nil
}

// Search submits the category through the search box. Handles are positions
// in the non-sponsored results, reopened by position after every reset.
func (c *ChemistWarehouseAdapter) Search(ctx context.Context, category string, limit int) (string, []types.SearchResultHandle, error) {
	if err := c.SubmitSearch(ctx, category, cwSearchInputs, cwSearchSubmit); err != nil {
		return "", nil, err
	}
	if err := utils.Settle(ctx, c.config.Browser.SettleDelay); err != nil {
		return "", nil, err
	}

	resultsURL, err := c.CurrentURL(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read results url: %w", err)
	}

	anchors := c.Results(ctx, cwResults)
	if len(anchors) == 0 {
		return resultsURL, nil, &types.StepError{Step: "search", URL: resultsURL, Err: types.ErrResultNotFound}
	}

	var handles []types.SearchResultHandle
	for i, a := range anchors {
		if i >= limit {
			break
		}
		handles = append(handles, types.SearchResultHandle{
			Index: i + 1,
			URL:   c.AbsoluteURL(resultsURL, a.Attr("href")),
			Name:  a.Text,
		})
	}
	c.logger.Infof("Found %d results for %q", len(handles), category)
	return resultsURL, handles, nil
}

// OpenProduct clicks the handle's position in the results list
func (c *ChemistWarehouseAdapter) OpenProduct(ctx context.Context, handle types.SearchResultHandle) error {
	_, err := c.OpenNthResult(ctx, handle.Index, cwResults)
	return err
}

// ProductDetails reads the product name from JSON-LD or the page heading
func (c *ChemistWarehouseAdapter) ProductDetails(ctx context.Context, handle types.SearchResultHandle) types.ProductDetails {
	details := types.ProductDetails{Name: handle.Name}
	doc, err := c.Snapshot(ctx)
	if err != nil {
		return details
	}
	ld, _ := ProductJSONLD(doc.Selection)
	details.Name = utils.OrDefault(handle.Name,
		func() (string, bool) { return ld.Name, ld.Name != "" },
		func() (string, bool) { return utils.FirstText(doc.Selection, utils.CSS("h1")) },
	)
	details.Price = ld.Price
	return details
}

// OpenReviews scrolls down and toggles the reviews accordion
func (c *ChemistWarehouseAdapter) OpenReviews(ctx context.Context) error {
	_, err := c.ExpandReviewsPanel(ctx, 1000, cwReviewsToggle...)
	return err
}

// Summary reads average, total and the ratings snapshot
func (c *ChemistWarehouseAdapter) Summary(ctx context.Context) types.ReviewSummary {
	doc, err := c.Snapshot(ctx)
	if err != nil {
		c.logger.Debugf("Failed to snapshot page for summary: %v", err)
		return types.ReviewSummary{RatingHistogram: map[string]string{}}
	}
	return ExtractSummary(doc.Selection, cwSummary)
}

// Reviews pages through the cards with the next button
func (c *ChemistWarehouseAdapter) Reviews(ctx context.Context) (types.ReviewPager, error) {
	pager, err := NewCardPager(cwCards, c.Snapshot, func(ctx context.Context) (bool, error) {
		return c.ClickNext(ctx, cwNextPage...)
	}, c.logger)
	if err != nil {
		return nil, err
	}
	return pager, nil
}

// Probes lists the strategy chains of the adapter for drift diagnosis
func (c *ChemistWarehouseAdapter) Probes() []Probe {
	return []Probe{
		{Name: "cookie banner", Strategies: cwCookieBanner},
		{Name: "search input", Strategies: cwSearchInputs},
		{Name: "search submit", Strategies: cwSearchSubmit},
		{Name: "result items", Strategies: []utils.Strategy{cwResults.Items}},
		{Name: "reviews toggle", Strategies: cwReviewsToggle},
		{Name: "review cards", Strategies: cwCards.Cards},
		{Name: "next page", Strategies: cwNextPage},
	}
}
