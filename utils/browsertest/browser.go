// Package browsertest provides an in-memory utils.Driver backed by HTML
// fixtures, so navigation and extraction logic can be exercised without a
// real browser.
package browsertest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"review-extractor/utils"
)

// Page is one registered fixture.
type Page struct {
	HTML string
	// Shadow maps a host CSS selector to the markup of its shadow root
	Shadow map[string]string
}

// Browser is a fake single-tab browser. Clicking an anchor whose href is a
// registered page navigates to it; everything else is scripted through the
// hooks.
type Browser struct {
	pages map[string]*Page
	url   string
	doc   *goquery.Document
	seq   int

	// OnClick runs before the default click behaviour. Returning handled=true
	// skips the default.
	OnClick func(b *Browser, el *goquery.Selection) (handled bool, err error)
	// OnSubmit runs when text is typed with submit set.
	OnSubmit func(b *Browser, el *goquery.Selection, text string) error
	// OnScroll runs after every scroll with the new offset.
	OnScroll func(b *Browser, y int)

	Clicks      []string
	Typed       []string
	Navigations []string
	ScrollY     int
	Closed      bool
}

// New returns an empty browser.
func New() *Browser {
	return &Browser{pages: make(map[string]*Page)}
}

// AddPage registers markup under url.
func (b *Browser) AddPage(url, markup string) *Browser {
	b.pages[url] = &Page{HTML: markup, Shadow: make(map[string]string)}
	return b
}

// AddShadow attaches shadow-root markup to a host on a registered page.
func (b *Browser) AddShadow(url, hostSelector, markup string) *Browser {
	p, ok := b.pages[url]
	if !ok {
		p = &Page{Shadow: make(map[string]string)}
		b.pages[url] = p
	}
	p.Shadow[hostSelector] = markup
	return b
}

// Load navigates without a context.
func (b *Browser) Load(target string) error {
	p, ok := b.pages[target]
	if !ok {
		return fmt.Errorf("browsertest: no page registered for %s", target)
	}
	doc, err := utils.ParseHTML(p.HTML)
	if err != nil {
		return err
	}
	b.url = target
	b.doc = doc
	b.ScrollY = 0
	b.Navigations = append(b.Navigations, target)
	return nil
}

// Replace swaps the current document markup while keeping the URL, the way
// an in-place re-render would.
func (b *Browser) Replace(markup string) error {
	doc, err := utils.ParseHTML(markup)
	if err != nil {
		return err
	}
	b.doc = doc
	return nil
}

// Append adds markup to the end of the element matched by the CSS selector.
func (b *Browser) Append(selector, markup string) {
	b.doc.Find(selector).First().AppendHtml(markup)
}

// Document exposes the current document.
func (b *Browser) Document() *goquery.Document {
	return b.doc
}

func (b *Browser) Navigate(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.Load(target)
}

func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	return b.url, ctx.Err()
}

func (b *Browser) Query(ctx context.Context, scope string, by utils.By, selector string) ([]utils.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.doc == nil {
		return nil, nil
	}

	root := b.doc.Selection
	if scope != "" {
		root = b.byRef(scope)
		if root.Length() == 0 {
			return nil, nil
		}
	}

	var nodes []utils.Node
	utils.Find(root, utils.Strategy{By: by, Selector: selector}).Each(func(_ int, sel *goquery.Selection) {
		nodes = append(nodes, b.snapshot(sel))
	})
	return nodes, nil
}

func (b *Browser) Click(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	el := b.byRef(ref)
	if el.Length() == 0 {
		return fmt.Errorf("browsertest: no element %s", ref)
	}
	b.Clicks = append(b.Clicks, utils.CleanText(el.Text()))

	if b.OnClick != nil {
		handled, err := b.OnClick(b, el)
		if err != nil || handled {
			return err
		}
	}

	anchor := el.Closest("a[href]")
	if anchor.Length() == 0 {
		return nil
	}
	target := b.resolve(anchor.AttrOr("href", ""))
	if _, ok := b.pages[target]; ok {
		return b.Load(target)
	}
	return nil
}

func (b *Browser) Type(ctx context.Context, ref, text string, submit bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	el := b.byRef(ref)
	if el.Length() == 0 {
		return fmt.Errorf("browsertest: no element %s", ref)
	}
	el.SetAttr("value", text)
	b.Typed = append(b.Typed, text)
	if submit && b.OnSubmit != nil {
		return b.OnSubmit(b, el, text)
	}
	return nil
}

func (b *Browser) ScrollBy(ctx context.Context, dy int) error {
	return b.ScrollTo(ctx, b.ScrollY+dy)
}

func (b *Browser) ScrollTo(ctx context.Context, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if y < 0 {
		y = 0
	}
	b.ScrollY = y
	if b.OnScroll != nil {
		b.OnScroll(b, y)
	}
	return nil
}

func (b *Browser) ScrollIntoView(ctx context.Context, ref string) error {
	if b.byRef(ref).Length() == 0 {
		return fmt.Errorf("browsertest: no element %s", ref)
	}
	return ctx.Err()
}

func (b *Browser) HTML(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b.doc == nil {
		return "", fmt.Errorf("browsertest: no page loaded")
	}
	if ref == "" {
		return b.doc.Html()
	}
	el := b.byRef(ref)
	if el.Length() == 0 {
		return "", fmt.Errorf("browsertest: no element %s", ref)
	}
	return goquery.OuterHtml(el)
}

func (b *Browser) ShadowHTML(ctx context.Context, hostSelector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, ok := b.pages[b.url]
	if !ok || b.doc.Find(hostSelector).Length() == 0 {
		return "", nil
	}
	return p.Shadow[hostSelector], nil
}

func (b *Browser) Close() error {
	b.Closed = true
	return nil
}

func (b *Browser) byRef(ref string) *goquery.Selection {
	return b.doc.Find(fmt.Sprintf(`[data-rx-ref=%q]`, ref))
}

// snapshot stamps sel with a ref and reports it the way the page script does.
func (b *Browser) snapshot(sel *goquery.Selection) utils.Node {
	ref, ok := sel.Attr("data-rx-ref")
	if !ok {
		b.seq++
		ref = fmt.Sprintf("rx%d", b.seq)
		sel.SetAttr("data-rx-ref", ref)
	}

	attrs := make(map[string]string)
	for _, a := range sel.Nodes[0].Attr {
		attrs[a.Key] = a.Val
	}

	node := utils.Node{
		Ref:   ref,
		Tag:   goquery.NodeName(sel),
		Text:  utils.CleanText(sel.Text()),
		Attrs: attrs,
	}
	if !hidden(sel) {
		node.Width, node.Height = 100, 20
	}
	return node
}

// hidden treats the hidden attribute and inline display:none on the element
// or any ancestor as unrendered.
func hidden(sel *goquery.Selection) bool {
	for s := sel; s.Length() > 0; s = s.Parent() {
		if _, ok := s.Attr("hidden"); ok {
			return true
		}
		style := strings.ReplaceAll(strings.ToLower(s.AttrOr("style", "")), " ", "")
		if strings.Contains(style, "display:none") {
			return true
		}
	}
	return false
}

func (b *Browser) resolve(href string) string {
	base, err := url.Parse(b.url)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
