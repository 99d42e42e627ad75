package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// ParseHTML parses a page, card or shadow-root snapshot into a goquery
// document
func ParseHTML(markup string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return doc, nil
}

// Find resolves a strategy against a parsed snapshot. CSS goes through
// goquery, XPath through htmlquery; both come back as a goquery selection in
// document order. An invalid expression yields an empty selection.
func Find(scope *goquery.Selection, s Strategy) *goquery.Selection {
	var found *goquery.Selection
	switch s.By {
	case ByXPath:
		var nodes []*html.Node
		for _, root := range scope.Nodes {
			matches, err := htmlquery.QueryAll(root, s.Selector)
			if err != nil {
				return empty(scope)
			}
			nodes = append(nodes, matches...)
		}
		found = empty(scope).AddNodes(nodes...)
	default:
		found = scope.Find(s.Selector)
	}

	if s.Text == "" {
		return found
	}
	want := strings.ToLower(s.Text)
	return found.FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(sel.Text()), want)
	})
}

// FindFirst returns the matches of the first strategy that matches anything.
func FindFirst(scope *goquery.Selection, strategies ...Strategy) (*goquery.Selection, bool) {
	for _, s := range strategies {
		if sel := Find(scope, s); sel.Length() > 0 {
			return sel, true
		}
	}
	return empty(scope), false
}

// empty returns a selection with no nodes that keeps scope's document and
// history. Slice(0, 0) alone would share scope's backing array, so appending
// to it overwrites the caller's nodes.
func empty(scope *goquery.Selection) *goquery.Selection {
	sel := scope.Slice(0, 0)
	sel.Nodes = nil
	return sel
}

// CleanText collapses runs of whitespace and trims.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TextOf returns the cleaned text of the first element in sel.
func TextOf(sel *goquery.Selection) string {
	return CleanText(sel.First().Text())
}

// TextEval builds a fallback link that yields the first non-empty text among
// the elements s matches.
func TextEval(scope *goquery.Selection, s Strategy) Evaluator[string] {
	return func() (string, bool) {
		var text string
		Find(scope, s).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text = CleanText(sel.Text())
			return text == ""
		})
		return text, text != ""
	}
}

// FirstText returns the first non-empty text produced by the strategies.
func FirstText(scope *goquery.Selection, strategies ...Strategy) (string, bool) {
	evals := make([]Evaluator[string], 0, len(strategies))
	for _, s := range strategies {
		evals = append(evals, TextEval(scope, s))
	}
	return FirstOf(evals...)
}

// FirstAttr returns the first non-empty attribute value among the elements
// the strategies match.
func FirstAttr(scope *goquery.Selection, attr string, strategies ...Strategy) (string, bool) {
	for _, s := range strategies {
		var value string
		Find(scope, s).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			value = strings.TrimSpace(sel.AttrOr(attr, ""))
			return value == ""
		})
		if value != "" {
			return value, true
		}
	}
	return "", false
}

// Fingerprint returns a stable hex digest of the parts. Parts are separated so
// that ("ab", "c") and ("a", "bc") differ.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0x1f})
	}
	return hex.EncodeToString(h.Sum(nil))
}
