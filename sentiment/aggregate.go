package sentiment

import (
	"review-extractor/internal/types"
)

// ReviewText is the text scored for a review: the body, or the title when
// the body is empty.
func ReviewText(r types.ReviewRecord) string {
	if r.Body != "" {
		return r.Body
	}
	return r.Title
}

// Enrich attaches scores to every review in the document in place and
// returns how many reviews were scored.
func Enrich(doc *types.Document, scorer Scorer) int {
	scored := 0
	for i := range doc.Products {
		reviews := doc.Products[i].Reviews
		for j := range reviews {
			scores := scorer.Score(ReviewText(reviews[j]))
			scores.Label = Label(scores.Compound)
			reviews[j].Sentiment = &scores
			scored++
		}
	}
	return scored
}

// ProductSummary is one row of the per-product sentiment summary.
type ProductSummary struct {
	Product          string
	Category         string
	AvgCompound      float64
	AvgPos           float64
	AvgNeg           float64
	AvgNeu           float64
	PositiveReviews  int
	NegativeReviews  int
	NeutralReviews   int
	TotalReviews     int
	OverallSentiment string
}

type summaryKey struct {
	product  string
	category string
}

// Summarize groups scored reviews by (product, category) in first-seen
// order. Products without scored reviews produce no row.
func Summarize(doc types.Document) []ProductSummary {
	var order []summaryKey
	rows := make(map[summaryKey]*ProductSummary)

	for _, p := range doc.Products {
		key := summaryKey{product: p.Identifier(), category: p.Category}
		for _, r := range p.Reviews {
			if r.Sentiment == nil {
				continue
			}
			row, ok := rows[key]
			if !ok {
				row = &ProductSummary{Product: key.product, Category: key.category}
				rows[key] = row
				order = append(order, key)
			}
			s := r.Sentiment
			row.AvgCompound += s.Compound
			row.AvgPos += s.Pos
			row.AvgNeg += s.Neg
			row.AvgNeu += s.Neu
			row.TotalReviews++
			switch Label(s.Compound) {
			case Positive:
				row.PositiveReviews++
			case Negative:
				row.NegativeReviews++
			default:
				row.NeutralReviews++
			}
		}
	}

	out := make([]ProductSummary, 0, len(order))
	for _, key := range order {
		row := rows[key]
		n := float64(row.TotalReviews)
		row.AvgCompound /= n
		row.AvgPos /= n
		row.AvgNeg /= n
		row.AvgNeu /= n
		row.OverallSentiment = Label(row.AvgCompound)
		out = append(out, *row)
	}
	return out
}
