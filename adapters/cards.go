package adapters

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"

	"review-extractor/internal/types"
	"review-extractor/utils"
)

var (
	outOfFivePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*out\s*of\s*(?:5|five)`)
	numberPattern    = regexp.MustCompile(`\d+(?:\.\d+)?`)
	readMorePattern  = regexp.MustCompile(`(?i)\bRead\s+(?:more|less)\b`)
)

// filledStarXPath matches star icons drawn in a fill colour. Icons dimmed
// with opacity-20 are the empty stars of the same group.
const filledStarXPath = `.//*[local-name()='svg' and not(contains(@class,'opacity-20')) and (` +
	`contains(@class,'text-amber') or contains(@class,'fill-amber') or ` +
	`contains(@class,'text-yellow') or contains(@class,'text-cw-yellow') or ` +
	`contains(@class,'text-cw-amber') or @fill='currentColor')]`

// RatingFormat renders an extracted rating value for the record.
type RatingFormat func(value string) string

// StarsText renders "X out of 5 stars".
func StarsText(value string) string { return value + " out of 5 stars" }

// Bare keeps the number as is.
func Bare(value string) string { return value }

// RatingSpec lists where a card may carry its rating.
type RatingSpec struct {
	// Numeric selects elements whose text is the rating number itself. Tried
	// before the labelled tiers when set.
	Numeric []utils.Strategy
	// Labelled selects elements carrying "X out of 5" in aria-label, title
	// or text
	Labelled []utils.Strategy
	// StarGroups selects the containers of star icons
	StarGroups []utils.Strategy
	// Glyphs enables counting literal star characters
	Glyphs bool
	Format RatingFormat
}

// Chain returns the rating evaluators for card in precedence order.
func (s RatingSpec) Chain(card *goquery.Selection) []utils.Evaluator[string] {
	format := s.Format
	if format == nil {
		format = Bare
	}
	var chain []utils.Evaluator[string]
	if len(s.Numeric) > 0 {
		chain = append(chain, func() (string, bool) { return numericRating(card, s.Numeric, format) })
	}
	if len(s.Labelled) > 0 {
		chain = append(chain, func() (string, bool) { return labelledRating(card, s.Labelled, format) })
	}
	if len(s.StarGroups) > 0 {
		chain = append(chain, func() (string, bool) { return filledStarRating(card, s.StarGroups, format) })
	}
	if s.Glyphs {
		chain = append(chain, func() (string, bool) { return glyphRating(card, format) })
	}
	return chain
}

// Rate returns the first rating the chain produces, or "".
func (s RatingSpec) Rate(card *goquery.Selection) string {
	return utils.OrDefault("", s.Chain(card)...)
}

func numericRating(card *goquery.Selection, strategies []utils.Strategy, format RatingFormat) (string, bool) {
	text, ok := utils.FirstText(card, strategies...)
	if !ok {
		return "", false
	}
	m := numberPattern.FindString(strings.Trim(text, "() "))
	if m == "" {
		return "", false
	}
	return format(m), true
}

func labelledRating(card *goquery.Selection, strategies []utils.Strategy, format RatingFormat) (string, bool) {
	for _, s := range strategies {
		var value string
		utils.Find(card, s).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			raw := el.AttrOr("aria-label", "")
			if raw == "" {
				raw = el.AttrOr("title", "")
			}
			if raw == "" {
				raw = el.Text()
			}
			if m := outOfFivePattern.FindStringSubmatch(raw); m != nil {
				value = m[1]
			}
			return value == ""
		})
		if value != "" {
			return format(value), true
		}
	}
	return "", false
}

func filledStarRating(card *goquery.Selection, groups []utils.Strategy, format RatingFormat) (string, bool) {
	roots, ok := utils.FindFirst(card, groups...)
	if !ok {
		roots = card
	}

	filled := utils.XPath(filledStarXPath)
	for i := range roots.Nodes {
		n := utils.Find(roots.Eq(i), filled).Length()
		if n == 0 {
			continue
		}
		if n > 5 {
			n = 5
		}
		return format(strconv.FormatFloat(float64(n), 'f', 1, 64)), true
	}
	return "", false
}

func glyphRating(card *goquery.Selection, format RatingFormat) (string, bool) {
	text := card.Text()
	n := strings.Count(text, "★")
	if n == 0 {
		n = strings.Count(text, "⭐")
	}
	if n < 1 || n > 5 {
		return "", false
	}
	return format(strconv.FormatFloat(float64(n), 'f', 1, 64)), true
}

// CardSpec lists the per-field strategies of a retailer's review card.
type CardSpec struct {
	Cards    []utils.Strategy
	Title    []utils.Strategy
	Reviewer []utils.Strategy
	Date     []utils.Strategy
	Body     []utils.Strategy
	Rating   RatingSpec

	// LongestText falls back to the longest text block over 30 characters
	// for the body
	LongestText bool
	// StripReadMore removes "Read more" and "Read less" from the body
	StripReadMore bool
	// RequireBody drops cards without a body
	RequireBody bool
	// RequireText drops cards with neither title nor body
	RequireText bool
}

// boilerplate marks text blocks that are card chrome rather than review text.
var boilerplate = regexp.MustCompile(`(?i)like review|dislike review|report|recommends this product`)

// ParseCard folds one card snapshot into a record. Every field defaults on
// failure; a dropped card comes back empty.
func ParseCard(card *goquery.Selection, spec CardSpec) types.ReviewRecord {
	record := types.ReviewRecord{
		ReviewerName: types.AnonymousReviewer,
	}

	if name, ok := utils.FirstText(card, spec.Reviewer...); ok {
		record.ReviewerName = name
	}
	record.Title, _ = utils.FirstText(card, spec.Title...)
	record.Date, _ = utils.FirstText(card, spec.Date...)

	record.Body = utils.OrDefault("",
		func() (string, bool) { return utils.FirstText(card, spec.Body...) },
		func() (string, bool) {
			if !spec.LongestText {
				return "", false
			}
			return longestText(card)
		},
	)
	if spec.StripReadMore {
		record.Body = utils.CleanText(readMorePattern.ReplaceAllString(record.Body, ""))
	}

	if spec.RequireBody && record.Body == "" {
		return types.ReviewRecord{}
	}
	if spec.RequireText && record.Body == "" && record.Title == "" {
		return types.ReviewRecord{}
	}

	record.RatingText = spec.Rating.Rate(card)
	return record
}

func longestText(card *goquery.Selection) (string, bool) {
	var best string
	card.Find("p, div").Each(func(_ int, el *goquery.Selection) {
		text := utils.CleanText(el.Text())
		if len(text) <= 30 || boilerplate.MatchString(text) {
			return
		}
		if len(text) > len(best) {
			best = text
		}
	})
	return best, best != ""
}

// cardCacheSize bounds the per-product parse cache.
const cardCacheSize = 256

// CardPager reads review cards from a page or shadow-root snapshot and
// advances with a retailer-supplied control.
type CardPager struct {
	spec     CardSpec
	snapshot func(ctx context.Context) (*goquery.Document, error)
	prepare  func(ctx context.Context)
	advance  func(ctx context.Context) (bool, error)
	parse    func(card *goquery.Selection) types.ReviewRecord
	cache    *lru.Cache[string, types.ReviewRecord]
	logger   types.Logger
}

// NewCardPager builds a pager. prepare may be nil; parse defaults to
// ParseCard with spec.
func NewCardPager(
	spec CardSpec,
	snapshot func(ctx context.Context) (*goquery.Document, error),
	advance func(ctx context.Context) (bool, error),
	logger types.Logger,
) (*CardPager, error) {
	cache, err := lru.New[string, types.ReviewRecord](cardCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create card cache: %w", err)
	}
	return &CardPager{
		spec:     spec,
		snapshot: snapshot,
		advance:  advance,
		parse:    func(card *goquery.Selection) types.ReviewRecord { return ParseCard(card, spec) },
		cache:    cache,
		logger:   logger,
	}, nil
}

// WithPrepare runs fn before every read, e.g. to expand truncated cards.
func (p *CardPager) WithPrepare(fn func(ctx context.Context)) *CardPager {
	p.prepare = fn
	return p
}

// WithParser replaces the card parser.
func (p *CardPager) WithParser(fn func(card *goquery.Selection) types.ReviewRecord) *CardPager {
	p.parse = fn
	return p
}

// Cards parses every card in the current snapshot. Cards seen before with
// identical markup come from the cache.
func (p *CardPager) Cards(ctx context.Context) ([]types.ReviewRecord, error) {
	if p.prepare != nil {
		p.prepare(ctx)
	}

	doc, err := p.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUnexpectedPageState, err)
	}

	cards, _ := utils.FindFirst(doc.Selection, p.spec.Cards...)
	records := make([]types.ReviewRecord, 0, cards.Length())
	hits := 0
	cards.Each(func(_ int, card *goquery.Selection) {
		markup, err := goquery.OuterHtml(card)
		if err != nil {
			records = append(records, p.parse(card))
			return
		}
		key := utils.Fingerprint(markup)
		if record, ok := p.cache.Get(key); ok {
			hits++
			records = append(records, record)
			return
		}
		record := p.parse(card)
		p.cache.Add(key, record)
		records = append(records, record)
	})

	p.logger.Debugf("Read %d review cards (%d cached)", len(records), hits)
	return records, nil
}

// Advance invokes the retailer's next or load more control
func (p *CardPager) Advance(ctx context.Context) (bool, error) {
	if p.advance == nil {
		return false, nil
	}
	return p.advance(ctx)
}
