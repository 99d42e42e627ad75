package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"review-extractor/internal/types"
	"review-extractor/utils"
)

// BaseAdapter provides the navigation primitives shared by retailer adapters.
// Retailers embed it and differ only in the strategy lists they hand to it.
type BaseAdapter struct {
	config  types.Config
	logger  types.Logger
	driver  utils.Driver
	locator *utils.Locator
}

// NewBaseAdapter creates a base adapter over an open browser session
func NewBaseAdapter(driver utils.Driver, config types.Config, logger types.Logger) *BaseAdapter {
	return &BaseAdapter{
		config:  config,
		logger:  logger,
		driver:  driver,
		locator: utils.NewLocator(driver, config.Browser.LocateWait, config.Browser.PollInterval, logger),
	}
}

// Config returns the run configuration
func (b *BaseAdapter) Config() types.Config {
	return b.config
}

// Locator returns the element locator bound to the session
func (b *BaseAdapter) Locator() *utils.Locator {
	return b.locator
}

// CurrentURL returns the URL of the page the session is on
func (b *BaseAdapter) CurrentURL(ctx context.Context) (string, error) {
	return b.driver.CurrentURL(ctx)
}

// Visit navigates to target and waits the settle delay
func (b *BaseAdapter) Visit(ctx context.Context, target string) error {
	if err := b.driver.Navigate(ctx, target); err != nil {
		return &types.StepError{Step: "navigate", URL: target, Err: fmt.Errorf("%w: %v", types.ErrNavigationTimeout, err)}
	}
	return utils.Settle(ctx, b.config.Browser.SettleDelay)
}

// Reset re-navigates to the saved results view
func (b *BaseAdapter) Reset(ctx context.Context, resultsURL string) error {
	if resultsURL == "" {
		return nil
	}
	b.logger.Debugf("Resetting to results view %s", resultsURL)
	return b.Visit(ctx, resultsURL)
}

// Dismiss clicks the first overlay control found. A missing overlay is not an
// error.
func (b *BaseAdapter) Dismiss(ctx context.Context, strategies ...utils.Strategy) bool {
	node, err := b.locator.Locate(ctx, strategies...)
	if err != nil {
		b.logger.Debug("No overlay to dismiss")
		return false
	}
	if err := b.driver.Click(ctx, node.Ref); err != nil {
		b.logger.Debugf("Failed to dismiss overlay: %v", err)
		return false
	}
	b.logger.Debugf("Dismissed overlay %q", node.Text)
	_ = utils.Settle(ctx, b.config.Browser.PollInterval)
	return true
}

// SubmitSearch types query into the first visible search box and submits it,
// preferring a submit control over the Enter key.
func (b *BaseAdapter) SubmitSearch(ctx context.Context, query string, inputs, submits []utils.Strategy) error {
	if err := b.driver.ScrollTo(ctx, 0); err != nil {
		b.logger.Debugf("Failed to scroll to top: %v", err)
	}

	box, err := b.locator.Locate(ctx, inputs...)
	if err != nil {
		return b.stepError(ctx, "submit_search", fmt.Errorf("%w (%v)", types.ErrInputNotFound, err))
	}

	if err := b.driver.Type(ctx, box.Ref, query, len(submits) == 0); err != nil {
		return b.stepError(ctx, "submit_search", fmt.Errorf("%w: %v", types.ErrUnexpectedPageState, err))
	}
	if len(submits) == 0 {
		return nil
	}

	button, err := b.locator.Locate(ctx, submits...)
	if err == nil {
		if err = b.driver.Click(ctx, button.Ref); err == nil {
			b.logger.Debugf("Search %q submitted by button", query)
			return nil
		}
	}

	b.logger.Debugf("No submit control (%v), sending Enter", err)
	if err := b.driver.Type(ctx, box.Ref, query, true); err != nil {
		return b.stepError(ctx, "submit_search", fmt.Errorf("%w: %v", types.ErrUnexpectedPageState, err))
	}
	return nil
}

// ResultList describes a search results view.
type ResultList struct {
	// Items selects one element per result
	Items utils.Strategy
	// Anchor selects the product link inside an item
	Anchor utils.Strategy
	// Sponsored reports whether an item is an ad placement
	Sponsored utils.Filter
	// DetailURL is a fragment every detail page URL contains
	DetailURL string
}

// Results returns the product anchors of the non-sponsored results in order.
func (b *BaseAdapter) Results(ctx context.Context, list ResultList) []utils.Node {
	var anchors []utils.Node
	for _, item := range b.locator.WaitAll(ctx, list.Items) {
		if list.Sponsored != nil && list.Sponsored(item) {
			continue
		}
		if item.Tag == "a" && item.Attr("href") != "" {
			anchors = append(anchors, item)
			continue
		}
		if found := b.locator.AllIn(ctx, item.Ref, list.Anchor); len(found) > 0 {
			anchors = append(anchors, found[0])
		}
	}
	return anchors
}

// OpenNthResult opens the n-th (1-indexed) non-sponsored result with a
// script-level click and waits until the URL shows a detail page.
func (b *BaseAdapter) OpenNthResult(ctx context.Context, n int, list ResultList) (string, error) {
	anchors := b.Results(ctx, list)
	if len(anchors) < n {
		return "", b.stepError(ctx, "open_nth_result",
			fmt.Errorf("%w: wanted #%d, %d non-sponsored results", types.ErrResultNotFound, n, len(anchors)))
	}

	anchor := anchors[n-1]
	if err := b.driver.ScrollIntoView(ctx, anchor.Ref); err != nil {
		b.logger.Debugf("Failed to scroll result #%d into view: %v", n, err)
	}
	if err := b.driver.Click(ctx, anchor.Ref); err != nil {
		return "", b.stepError(ctx, "open_nth_result", fmt.Errorf("%w: %v", types.ErrUnexpectedPageState, err))
	}

	current, err := b.locator.WaitForURL(ctx, list.DetailURL, b.config.Browser.Timeout)
	if err != nil {
		return "", &types.StepError{Step: "open_nth_result", URL: current, Err: err}
	}
	b.logger.Debugf("Opened result #%d: %s", n, current)
	return current, utils.Settle(ctx, b.config.Browser.SettleDelay)
}

// ExpandReviewsPanel scrolls down by offset and clicks the first reviews
// toggle found. It reports whether a toggle was clicked; a missing toggle
// means the panel is already open.
func (b *BaseAdapter) ExpandReviewsPanel(ctx context.Context, offset int, toggles ...utils.Strategy) (bool, error) {
	if offset != 0 {
		if err := b.driver.ScrollBy(ctx, offset); err != nil {
			b.logger.Debugf("Failed to scroll: %v", err)
		}
	}

	toggle, err := b.locator.Locate(ctx, toggles...)
	if err != nil {
		if errors.Is(err, types.ErrElementNotFound) {
			b.logger.Debug("No reviews toggle, assuming reviews are already open")
			return false, nil
		}
		return false, err
	}

	_ = b.driver.ScrollIntoView(ctx, toggle.Ref)
	if err := b.driver.Click(ctx, toggle.Ref); err != nil {
		b.logger.Debugf("Failed to click reviews toggle: %v", err)
		return false, nil
	}
	b.logger.Debug("Reviews section toggled open")
	return true, utils.Settle(ctx, b.config.Browser.SettleDelay)
}

// ClickNext clicks the first next-page control found. An absent or disabled
// control reports false. The caller owns the settle delay.
func (b *BaseAdapter) ClickNext(ctx context.Context, controls ...utils.Strategy) (bool, error) {
	next, err := b.locator.Locate(ctx, controls...)
	if err != nil {
		if errors.Is(err, types.ErrElementNotFound) {
			return false, nil
		}
		return false, err
	}
	if next.Disabled() {
		b.logger.Debug("Next control is disabled")
		return false, nil
	}

	_ = b.driver.ScrollIntoView(ctx, next.Ref)
	if err := b.driver.Click(ctx, next.Ref); err != nil {
		return false, fmt.Errorf("failed to click next control: %w", err)
	}
	return true, nil
}

// Snapshot parses the current document
func (b *BaseAdapter) Snapshot(ctx context.Context) (*goquery.Document, error) {
	html, err := b.driver.HTML(ctx, "")
	if err != nil {
		return nil, err
	}
	return utils.ParseHTML(html)
}

// ShadowSnapshot parses the shadow root attached to the host. A missing host
// or root yields an empty document.
func (b *BaseAdapter) ShadowSnapshot(ctx context.Context, hostSelector string) (*goquery.Document, error) {
	html, err := b.driver.ShadowHTML(ctx, hostSelector)
	if err != nil {
		return nil, err
	}
	return utils.ParseHTML(html)
}

// AbsoluteURL resolves href against base
func (b *BaseAdapter) AbsoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

// StripQuery drops the query string and fragment of a URL
func (b *BaseAdapter) StripQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}

// RemoveDuplicateURLs removes duplicate URLs from the slice, keeping order
func (b *BaseAdapter) RemoveDuplicateURLs(urls []string) []string {
	seen := make(map[string]bool)
	var uniqueURLs []string

	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			uniqueURLs = append(uniqueURLs, u)
		}
	}

	return uniqueURLs
}

func (b *BaseAdapter) stepError(ctx context.Context, step string, err error) error {
	current, _ := b.driver.CurrentURL(ctx)
	return &types.StepError{Step: step, URL: current, Err: err}
}
