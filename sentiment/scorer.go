// Package sentiment scores review text and aggregates scores per product.
package sentiment

import (
	"math"

	"github.com/jonreiter/govader"

	"review-extractor/internal/types"
)

// Polarity labels.
const (
	Positive = "Positive"
	Negative = "Negative"
	Neutral  = "Neutral"
)

// Scorer maps text to polarity scores. Implementations must be pure.
type Scorer interface {
	Score(text string) types.Scores
}

// Label derives the polarity label from a compound score.
func Label(compound float64) string {
	switch {
	case compound >= 0.05:
		return Positive
	case compound <= -0.05:
		return Negative
	default:
		return Neutral
	}
}

// Vader scores text with the VADER lexicon and rules. The analyzer loads
// its lexicon at construction, so build one per run and reuse it.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVader returns a scorer over the bundled VADER lexicon
func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score computes the compound and proportional scores of text, rounded
// the way vaderSentiment reports them
func (v *Vader) Score(text string) types.Scores {
	s := v.analyzer.PolarityScores(text)
	compound := round(s.Compound, 4)
	return types.Scores{
		Label:    Label(compound),
		Compound: compound,
		Pos:      round(s.Positive, 3),
		Neg:      round(s.Negative, 3),
		Neu:      round(s.Neutral, 3),
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
