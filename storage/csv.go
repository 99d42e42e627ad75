package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"review-extractor/sentiment"
)

// summaryHeader is the column order of the per-product summary file.
var summaryHeader = []string{
	"product", "category",
	"avg_compound", "avg_pos", "avg_neg", "avg_neu",
	"positive_reviews", "negative_reviews", "neutral_reviews",
	"total_reviews", "overall_sentiment",
}

// WriteSummaryCSV writes one row per product summary
func WriteSummaryCSV(path string, rows []sentiment.ProductSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(summaryHeader); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Product,
			r.Category,
			formatFloat(r.AvgCompound),
			formatFloat(r.AvgPos),
			formatFloat(r.AvgNeg),
			formatFloat(r.AvgNeu),
			strconv.Itoa(r.PositiveReviews),
			strconv.Itoa(r.NegativeReviews),
			strconv.Itoa(r.NeutralReviews),
			strconv.Itoa(r.TotalReviews),
			r.OverallSentiment,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush summary: %w", err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
