// Package storage persists output documents, sentiment summaries and the
// optional MongoDB copy of a run.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"review-extractor/internal/types"
)

// timestampLayout is the run timestamp used in output file names.
const timestampLayout = "20060102_150405"

// OutputPath returns <dir>/<prefix>_<YYYYmmdd_HHMMSS>.json
func OutputPath(dir, prefix string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", prefix, now.Format(timestampLayout)))
}

// DerivedPath swaps the extension of path for suffix, so
// "cw_20250101.json" with "_summary.csv" gives "cw_20250101_summary.csv".
func DerivedPath(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

// WriteDocument writes doc as indented JSON with non-ASCII and HTML
// characters kept literal
func WriteDocument(path string, doc types.Document) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	return f.Close()
}

// ReadDocument loads a document written by WriteDocument, flat or wrapped
func ReadDocument(path string) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var doc types.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return types.Document{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return doc, nil
}
