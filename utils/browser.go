package utils

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"review-extractor/internal/types"
)

// ChromeSession drives one Chrome tab through chromedp. It is acquired once
// per run and must be closed.
type ChromeSession struct {
	config      types.BrowserConfig
	logger      types.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// NewChromeSession launches Chrome and installs the fingerprint mask
func NewChromeSession(config types.BrowserConfig, logger types.Logger) (*ChromeSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", "en-AU"),
		chromedp.NoSandbox,
		chromedp.WindowSize(config.WindowWidth, config.WindowHeight),
		chromedp.UserAgent(config.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	// Route chromedp's own chatter to debug level
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Debugf),
		chromedp.WithErrorf(logger.Debugf),
	)

	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(maskScript).Do(ctx)
		return err
	}))
	if err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Debugf("Chrome session started (headless=%v, %dx%d)", config.Headless, config.WindowWidth, config.WindowHeight)
	return &ChromeSession{
		config:      config,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
	}, nil
}

// run executes actions on the tab bounded by the page timeout and by ctx
func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.config.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url in the session tab
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// CurrentURL returns the location of the tab
func (s *ChromeSession) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// Query snapshots the nodes matching selector, optionally within the
// element tagged with scope
func (s *ChromeSession) Query(ctx context.Context, scope string, by By, selector string) ([]Node, error) {
	var raw string
	if err := s.run(ctx, chromedp.Evaluate(invoke(queryFunc, scope, by.String(), selector), &raw)); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}

	var nodes []Node
	if err := json.Unmarshal([]byte(raw), &nodes); err != nil {
		return nil, fmt.Errorf("failed to decode query result: %w", err)
	}
	return nodes, nil
}

// Click dispatches a script-level click on the referenced element
func (s *ChromeSession) Click(ctx context.Context, ref string) error {
	var ok bool
	if err := s.run(ctx, chromedp.Evaluate(clickExpr(ref), &ok)); err != nil {
		return fmt.Errorf("failed to click %s: %w", ref, err)
	}
	if !ok {
		return fmt.Errorf("click %s: %w", ref, types.ErrElementNotFound)
	}
	return nil
}

// Type clears the referenced input, types text and optionally presses Enter
func (s *ChromeSession) Type(ctx context.Context, ref, text string, submit bool) error {
	sel := refSelector(ref)
	actions := []chromedp.Action{
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, text, chromedp.ByQuery),
	}
	if submit {
		actions = append(actions, chromedp.SendKeys(sel, kb.Enter, chromedp.ByQuery))
	}
	if err := s.run(ctx, actions...); err != nil {
		return fmt.Errorf("failed to type into %s: %w", ref, err)
	}
	return nil
}

// ScrollBy scrolls the window vertically by dy pixels
func (s *ChromeSession) ScrollBy(ctx context.Context, dy int) error {
	return s.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", dy), nil))
}

// ScrollTo scrolls the window to vertical offset y
func (s *ChromeSession) ScrollTo(ctx context.Context, y int) error {
	return s.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollTo(0, %d)", y), nil))
}

// ScrollIntoView centres the referenced element in the viewport
func (s *ChromeSession) ScrollIntoView(ctx context.Context, ref string) error {
	var ok bool
	if err := s.run(ctx, chromedp.Evaluate(scrollIntoViewExpr(ref), &ok)); err != nil {
		return fmt.Errorf("failed to scroll to %s: %w", ref, err)
	}
	if !ok {
		return fmt.Errorf("scroll to %s: %w", ref, types.ErrElementNotFound)
	}
	return nil
}

// HTML returns the outer HTML of the referenced element, or of the page
// when ref is empty
func (s *ChromeSession) HTML(ctx context.Context, ref string) (string, error) {
	sel := "html"
	if ref != "" {
		sel = refSelector(ref)
	}

	var html string
	if err := s.run(ctx, chromedp.OuterHTML(sel, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}
	return html, nil
}

// ShadowHTML returns the inner HTML of the shadow root under hostSelector
func (s *ChromeSession) ShadowHTML(ctx context.Context, hostSelector string) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.Evaluate(shadowHTMLExpr(hostSelector), &html)); err != nil {
		return "", fmt.Errorf("failed to read shadow root of %s: %w", hostSelector, err)
	}
	return html, nil
}

// Close shuts the browser down and releases the allocator
func (s *ChromeSession) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.allocCancel()
	return err
}
