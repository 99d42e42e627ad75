package utils

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// By selects how a strategy selector is resolved.
type By int

const (
	ByCSS By = iota
	ByXPath
)

func (b By) String() string {
	if b == ByXPath {
		return "xpath"
	}
	return "css"
}

// Strategy is one way of selecting an element. Text, when set, keeps only
// elements whose visible text contains it (case-insensitive).
type Strategy struct {
	By       By
	Selector string
	Text     string
}

// CSS returns a CSS selector strategy.
func CSS(selector string) Strategy { return Strategy{By: ByCSS, Selector: selector} }

// XPath returns an XPath strategy.
func XPath(expr string) Strategy { return Strategy{By: ByXPath, Selector: expr} }

// WithText returns a copy of s that also requires the given visible text.
func (s Strategy) WithText(text string) Strategy {
	s.Text = text
	return s
}

func (s Strategy) String() string {
	if s.Text != "" {
		return fmt.Sprintf("%s(%s)[text~%q]", s.By, s.Selector, s.Text)
	}
	return fmt.Sprintf("%s(%s)", s.By, s.Selector)
}

// Node is a snapshot of one element matched in the live page. Ref is a
// stable handle the driver uses to act on the element later.
type Node struct {
	Ref    string            `json:"ref"`
	Tag    string            `json:"tag"`
	Text   string            `json:"text"`
	Attrs  map[string]string `json:"attrs"`
	Width  float64           `json:"width"`
	Height float64           `json:"height"`
}

// Visible reports whether the element has a rendered size.
func (n Node) Visible() bool {
	return n.Width > 0 && n.Height > 0
}

// Attr returns an attribute value or "".
func (n Node) Attr(name string) string {
	return n.Attrs[name]
}

// Disabled reports whether the element carries an explicit disabled state.
func (n Node) Disabled() bool {
	if _, ok := n.Attrs["disabled"]; ok {
		return true
	}
	switch strings.ToLower(n.Attrs["aria-disabled"]) {
	case "true", "1":
		return true
	}
	return false
}

// Driver is the remote-control capability over one controlled browser page.
// All methods are called sequentially.
type Driver interface {
	// Navigate loads url and waits for the document to load
	Navigate(ctx context.Context, url string) error

	// CurrentURL returns the URL of the current document
	CurrentURL(ctx context.Context) (string, error)

	// Query returns every element matching by/selector under scope, or under
	// the document when scope is empty
	Query(ctx context.Context, scope string, by By, selector string) ([]Node, error)

	// Click dispatches a script-level click on the element
	Click(ctx context.Context, ref string) error

	// Type clears the element, types text and optionally sends Enter
	Type(ctx context.Context, ref, text string, submit bool) error

	// ScrollBy scrolls the window vertically by dy pixels
	ScrollBy(ctx context.Context, dy int) error

	// ScrollTo scrolls the window to the vertical offset y
	ScrollTo(ctx context.Context, y int) error

	// ScrollIntoView centers the element in the viewport
	ScrollIntoView(ctx context.Context, ref string) error

	// HTML returns the outer HTML of the element, or of the document when
	// ref is empty
	HTML(ctx context.Context, ref string) (string, error)

	// ShadowHTML returns the inner HTML of the shadow root attached to the
	// first element matching the CSS selector
	ShadowHTML(ctx context.Context, hostSelector string) (string, error)

	// Close tears the browser down
	Close() error
}

// Settle waits d unless ctx ends first.
func Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// refSelector is the CSS selector of an element stamped with ref.
func refSelector(ref string) string {
	return fmt.Sprintf(`[data-rx-ref=%q]`, ref)
}
