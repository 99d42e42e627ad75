package main

import (
	"github.com/spf13/cobra"

	"review-extractor/internal/types"
	"review-extractor/sentiment"
	"review-extractor/storage"
)

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <file.json>",
		Short: "Score an existing review file and write the sentiment summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			doc, err := storage.ReadDocument(args[0])
			if err != nil {
				return err
			}
			return scoreDocument(args[0], doc, logger)
		},
	}
}

// scoreDocument writes <stem>_sentiment.json and <stem>_summary.csv next to
// path
func scoreDocument(path string, doc types.Document, logger types.Logger) error {
	scored := sentiment.Enrich(&doc, sentiment.NewVader())

	sentimentPath := storage.DerivedPath(path, "_sentiment.json")
	if err := storage.WriteDocument(sentimentPath, doc); err != nil {
		return err
	}

	rows := sentiment.Summarize(doc)
	summaryPath := storage.DerivedPath(path, "_summary.csv")
	if err := storage.WriteSummaryCSV(summaryPath, rows); err != nil {
		return err
	}

	logger.Infof("Scored %d reviews across %d products", scored, len(rows))
	logger.Infof("Sentiment written to: %s", sentimentPath)
	logger.Infof("Summary written to: %s", summaryPath)
	return nil
}
