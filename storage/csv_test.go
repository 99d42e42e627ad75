package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-extractor/sentiment"
)

func TestWriteSummaryCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_summary.csv")
	rows := []sentiment.ProductSummary{
		{
			Product:          "Serum, 30ml",
			Category:         "serum",
			AvgCompound:      0.25,
			AvgPos:           0.4,
			AvgNeg:           0.1,
			AvgNeu:           0.5,
			PositiveReviews:  3,
			NegativeReviews:  1,
			TotalReviews:     4,
			OverallSentiment: sentiment.Positive,
		},
	}

	require.NoError(t, WriteSummaryCSV(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	firstLine := strings.SplitN(string(data), "\n", 2)[0]
	assert.Equal(t, "product,category,avg_compound,avg_pos,avg_neg,avg_neu,positive_reviews,negative_reviews,neutral_reviews,total_reviews,overall_sentiment", firstLine)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Serum, 30ml", "serum", "0.25", "0.4", "0.1", "0.5", "3", "1", "0", "4", "Positive"}, records[1])
}

func TestWriteSummaryCSV_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	require.NoError(t, WriteSummaryCSV(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
}
