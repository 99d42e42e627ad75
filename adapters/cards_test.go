package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-extractor/internal/types"
	"review-extractor/utils"
)

func card(t *testing.T, markup string) *goquery.Selection {
	t.Helper()
	doc, err := utils.ParseHTML(`<html><body><div class="card">` + markup + `</div></body></html>`)
	require.NoError(t, err)
	return doc.Find("div.card").First()
}

const threeFilledStars = `<div class="flex items-center">` +
	`<svg class="text-amber-400"></svg><svg class="text-amber-400"></svg><svg class="text-amber-400"></svg>` +
	`<svg class="text-amber-400 opacity-20"></svg><svg class="opacity-20"></svg></div>`

func TestRatingChain_Precedence(t *testing.T) {
	spec := cwCards.Rating

	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "aria label wins over icons",
			markup: `<span aria-label="4 out of 5 stars"></span>` + threeFilledStars + `★★`,
			want:   "4 out of 5 stars",
		},
		{
			name:   "title attribute",
			markup: `<span title="2.5 out of 5"></span>`,
			want:   "2.5 out of 5 stars",
		},
		{
			name:   "filled icons",
			markup: threeFilledStars + `★★`,
			want:   "3.0 out of 5 stars",
		},
		{
			name:   "glyphs",
			markup: `<p>★★★★☆</p>`,
			want:   "4.0 out of 5 stars",
		},
		{
			name:   "emoji glyphs",
			markup: `<p>⭐⭐</p>`,
			want:   "2.0 out of 5 stars",
		},
		{
			name:   "too many glyphs",
			markup: `<p>★★★★★★</p>`,
			want:   "",
		},
		{
			name:   "no rating",
			markup: `<p>Lovely texture</p>`,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spec.Rate(card(t, tt.markup)))
		})
	}
}

func TestRatingChain_NumericFirst(t *testing.T) {
	sel := card(t, `<span class="css-13q2n6h">(4.5)</span><span aria-label="3 out of 5"></span>`)

	assert.Equal(t, "4.5", meccaCards.Rating.Rate(sel))
	assert.Len(t, meccaCards.Rating.Chain(sel), 2)
}

func TestRatingChain_IconsClampedToFive(t *testing.T) {
	spec := RatingSpec{StarGroups: []utils.Strategy{utils.CSS("div.stars")}, Format: Bare}
	icons := ""
	for i := 0; i < 7; i++ {
		icons += `<svg fill="currentColor"></svg>`
	}

	assert.Equal(t, "5.0", spec.Rate(card(t, `<div class="stars">`+icons+`</div>`)))
}

func TestParseCard(t *testing.T) {
	sel := card(t, `<h6 class="headline title">Holy grail</h6>
		<span class="text-colour-body-grey">Sam</span>
		<span class="text-cw-grey-200">2 weeks ago</span>
		<p class="text-colour-body-grey body">Cleared my skin.</p>
		<span aria-label="5 out of 5"></span>`)

	record := ParseCard(sel, cwCards)

	assert.Equal(t, types.ReviewRecord{
		ReviewerName: "Sam",
		RatingText:   "5 out of 5 stars",
		Title:        "Holy grail",
		Date:         "2 weeks ago",
		Body:         "Cleared my skin.",
	}, record)
}

func TestParseCard_Defaults(t *testing.T) {
	record := ParseCard(card(t, `<h6 class="headline title">Just ok</h6>`), cwCards)

	assert.Equal(t, types.AnonymousReviewer, record.ReviewerName)
	assert.Equal(t, "Just ok", record.Title)
	assert.Empty(t, record.Body)
	assert.Empty(t, record.RatingText)
	assert.False(t, record.IsEmpty())
}

func TestParseCard_RequireBodyDrops(t *testing.T) {
	record := ParseCard(card(t, `<span>Short</span>`), meccaCards)

	assert.True(t, record.IsEmpty())
	assert.Equal(t, types.ReviewRecord{}, record)
}

func TestParseCard_LongestTextAndReadMore(t *testing.T) {
	sel := card(t, `<div>Recommends this product to a friend and family</div>
		<p>This moisturiser sank in quickly and my skin felt soft all day. Read more</p>
		<p>Too short</p>`)

	record := ParseCard(sel, meccaCards)

	assert.Equal(t, "This moisturiser sank in quickly and my skin felt soft all day.", record.Body)
}

func TestParseMeccaCard_TitleFallback(t *testing.T) {
	sel := card(t, `<div class="css-1q22pos">
		<span>Read more</span><span>Worth it</span>
		<div data-testid="mui-expandable-copy"><div role="region">Great serum for dry skin.</div></div>
	</div>`)

	record := parseMeccaCard(sel)

	assert.Equal(t, "Worth it", record.Title)
	assert.Equal(t, "Great serum for dry skin.", record.Body)
	assert.Equal(t, types.AnonymousReviewer, record.ReviewerName)
}

type snapshotStub struct {
	markup []string
	calls  int
	err    error
}

func (s *snapshotStub) snapshot(context.Context) (*goquery.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	i := s.calls
	if i >= len(s.markup) {
		i = len(s.markup) - 1
	}
	s.calls++
	return utils.ParseHTML(s.markup[i])
}

func TestCardPager_ParsesAndCaches(t *testing.T) {
	page := `<div id="ugc-form"><section>
		<article><div data-testid="mui-expandable-copy"><div role="region">First body</div></div></article>
		<article><div data-testid="mui-expandable-copy"><div role="region">Second body</div></div></article>
	</section></div>`
	stub := &snapshotStub{markup: []string{page}}
	parsed := 0

	pager, err := NewCardPager(meccaCards, stub.snapshot, nil, testLogger())
	require.NoError(t, err)
	pager.WithParser(func(sel *goquery.Selection) types.ReviewRecord {
		parsed++
		return ParseCard(sel, meccaCards)
	})

	first, err := pager.Cards(context.Background())
	require.NoError(t, err)
	second, err := pager.Cards(context.Background())
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, "First body", first[0].Body)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, parsed)

	advanced, err := pager.Advance(context.Background())
	assert.NoError(t, err)
	assert.False(t, advanced)
}

func TestCardPager_PrepareRunsBeforeRead(t *testing.T) {
	stub := &snapshotStub{markup: []string{"<html></html>"}}
	var order []string

	pager, err := NewCardPager(cwCards, func(ctx context.Context) (*goquery.Document, error) {
		order = append(order, "snapshot")
		return stub.snapshot(ctx)
	}, nil, testLogger())
	require.NoError(t, err)
	pager.WithPrepare(func(context.Context) { order = append(order, "prepare") })

	records, err := pager.Cards(context.Background())

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, []string{"prepare", "snapshot"}, order)
}

func TestCardPager_SnapshotFailure(t *testing.T) {
	stub := &snapshotStub{err: errors.New("target closed")}
	pager, err := NewCardPager(cwCards, stub.snapshot, nil, testLogger())
	require.NoError(t, err)

	_, err = pager.Cards(context.Background())

	assert.ErrorIs(t, err, types.ErrUnexpectedPageState)
}
