package utils

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"review-extractor/internal/types"
)

// RodSession drives one stealth page through Rod.
type RodSession struct {
	config   types.BrowserConfig
	logger   types.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// NewRodSession launches Chromium and opens a stealth page
func NewRodSession(config types.BrowserConfig, logger types.Logger) (*RodSession, error) {
	l := launcher.New().
		Headless(config.Headless).
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", config.WindowWidth, config.WindowHeight))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open stealth page: %w", err)
	}

	if config.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: config.UserAgent}); err != nil {
			logger.Warnf("Failed to set user agent: %v", err)
		}
	}
	if _, err := page.EvalOnNewDocument(maskScript); err != nil {
		logger.Warnf("Failed to install fingerprint mask: %v", err)
	}

	logger.Debugf("Rod session started (headless=%v)", config.Headless)
	return &RodSession{
		config:   config,
		logger:   logger,
		launcher: l,
		browser:  browser,
		page:     page,
	}, nil
}

// pageFor returns the page bound to the page timeout and to ctx
func (s *RodSession) pageFor(ctx context.Context) (*rod.Page, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	return s.page.Context(runCtx), cancel
}

func (s *RodSession) eval(ctx context.Context, fn string, args ...interface{}) (*proto.RuntimeRemoteObject, error) {
	p, cancel := s.pageFor(ctx)
	defer cancel()
	return p.Eval(fn, args...)
}

// Navigate loads url and waits for the load event
func (s *RodSession) Navigate(ctx context.Context, url string) error {
	p, cancel := s.pageFor(ctx)
	defer cancel()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	return nil
}

// CurrentURL returns the location of the page
func (s *RodSession) CurrentURL(ctx context.Context) (string, error) {
	p, cancel := s.pageFor(ctx)
	defer cancel()

	info, err := p.Info()
	if err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return info.URL, nil
}

// Query snapshots the nodes matching selector, optionally within the
// element tagged with scope
func (s *RodSession) Query(ctx context.Context, scope string, by By, selector string) ([]Node, error) {
	res, err := s.eval(ctx, queryFunc, scope, by.String(), selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", selector, err)
	}

	var nodes []Node
	if err := json.Unmarshal([]byte(res.Value.Str()), &nodes); err != nil {
		return nil, fmt.Errorf("failed to decode query result: %w", err)
	}
	return nodes, nil
}

// Click dispatches a script-level click on the referenced element
func (s *RodSession) Click(ctx context.Context, ref string) error {
	res, err := s.eval(ctx, clickFunc, ref)
	if err != nil {
		return fmt.Errorf("failed to click %s: %w", ref, err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("click %s: %w", ref, types.ErrElementNotFound)
	}
	return nil
}

// Type clears the referenced input, types text and optionally presses Enter
func (s *RodSession) Type(ctx context.Context, ref, text string, submit bool) error {
	p, cancel := s.pageFor(ctx)
	defer cancel()

	el, err := p.Element(refSelector(ref))
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", ref, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", ref, err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("failed to type into %s: %w", ref, err)
	}
	if submit {
		if err := el.Type(input.Enter); err != nil {
			return fmt.Errorf("failed to submit %s: %w", ref, err)
		}
	}
	return nil
}

// ScrollBy scrolls the window vertically by dy pixels
func (s *RodSession) ScrollBy(ctx context.Context, dy int) error {
	_, err := s.eval(ctx, `(dy) => window.scrollBy(0, dy)`, dy)
	return err
}

// ScrollTo scrolls the window to vertical offset y
func (s *RodSession) ScrollTo(ctx context.Context, y int) error {
	_, err := s.eval(ctx, `(y) => window.scrollTo(0, y)`, y)
	return err
}

// ScrollIntoView centres the referenced element in the viewport
func (s *RodSession) ScrollIntoView(ctx context.Context, ref string) error {
	res, err := s.eval(ctx, scrollIntoViewFunc, ref)
	if err != nil {
		return fmt.Errorf("failed to scroll to %s: %w", ref, err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("scroll to %s: %w", ref, types.ErrElementNotFound)
	}
	return nil
}

// HTML returns the outer HTML of the referenced element, or of the page
// when ref is empty
func (s *RodSession) HTML(ctx context.Context, ref string) (string, error) {
	p, cancel := s.pageFor(ctx)
	defer cancel()

	if ref == "" {
		html, err := p.HTML()
		if err != nil {
			return "", fmt.Errorf("failed to get page content: %w", err)
		}
		return html, nil
	}

	el, err := p.Element(refSelector(ref))
	if err != nil {
		return "", fmt.Errorf("failed to find %s: %w", ref, err)
	}
	return el.HTML()
}

// ShadowHTML returns the inner HTML of the shadow root under hostSelector
func (s *RodSession) ShadowHTML(ctx context.Context, hostSelector string) (string, error) {
	res, err := s.eval(ctx, shadowHTMLFunc, hostSelector)
	if err != nil {
		return "", fmt.Errorf("failed to read shadow root of %s: %w", hostSelector, err)
	}
	return res.Value.Str(), nil
}

// Close shuts the browser down and kills the launched process
func (s *RodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	return err
}
