package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-extractor/internal/types"
)

// fixedScorer scores text by lookup so aggregation can be checked exactly.
type fixedScorer map[string]float64

func (f fixedScorer) Score(text string) types.Scores {
	c := f[text]
	s := types.Scores{Compound: c, Neu: 1}
	if c > 0 {
		s.Pos, s.Neu = 0.5, 0.5
	} else if c < 0 {
		s.Neg, s.Neu = 0.5, 0.5
	}
	return s
}

func TestReviewText(t *testing.T) {
	assert.Equal(t, "body", ReviewText(types.ReviewRecord{Title: "title", Body: "body"}))
	assert.Equal(t, "title", ReviewText(types.ReviewRecord{Title: "title"}))
	assert.Equal(t, "", ReviewText(types.ReviewRecord{}))
}

func TestEnrich(t *testing.T) {
	doc := types.Document{Products: []types.ProductRecord{
		{ProductName: "A", Reviews: []types.ReviewRecord{{Body: "great"}, {Title: "meh"}}},
		{ProductName: "B"},
	}}

	n := Enrich(&doc, fixedScorer{"great": 0.8, "meh": -0.02})

	assert.Equal(t, 2, n)
	reviews := doc.Products[0].Reviews
	require.NotNil(t, reviews[0].Sentiment)
	assert.Equal(t, Positive, reviews[0].Sentiment.Label)
	assert.Equal(t, Neutral, reviews[1].Sentiment.Label)
	assert.Equal(t, -0.02, reviews[1].Sentiment.Compound)
}

func TestSummarize(t *testing.T) {
	doc := types.Document{Products: []types.ProductRecord{
		{ProductName: "Serum", Category: "serum", Reviews: []types.ReviewRecord{{Body: "a"}, {Body: "b"}, {Body: "c"}}},
		{ProductURL: "https://shop.test/p/toner", Category: "toner", Reviews: []types.ReviewRecord{{Body: "d"}}},
		{ProductName: "Unscored", Category: "toner", Reviews: []types.ReviewRecord{{Body: "e"}}},
		{ProductName: "Serum", Category: "serum", Reviews: []types.ReviewRecord{{Body: "f"}}},
	}}
	Enrich(&doc, fixedScorer{"a": 0.6, "b": -0.6, "c": 0.3, "d": -0.4, "f": 0.1})
	doc.Products[2].Reviews[0].Sentiment = nil

	rows := Summarize(doc)

	require.Len(t, rows, 2)

	serum := rows[0]
	assert.Equal(t, "Serum", serum.Product)
	assert.Equal(t, "serum", serum.Category)
	assert.Equal(t, 4, serum.TotalReviews)
	assert.Equal(t, 3, serum.PositiveReviews)
	assert.Equal(t, 1, serum.NegativeReviews)
	assert.Equal(t, 0, serum.NeutralReviews)
	assert.InDelta(t, 0.1, serum.AvgCompound, 1e-9)
	assert.Equal(t, Positive, serum.OverallSentiment)

	toner := rows[1]
	assert.Equal(t, "https://shop.test/p/toner", toner.Product)
	assert.Equal(t, Negative, toner.OverallSentiment)
	assert.InDelta(t, 0.5, toner.AvgNeg, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(types.Document{}))
}
