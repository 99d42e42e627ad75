package extractor

import (
	"review-extractor/internal/types"
	"review-extractor/utils"
)

// Accumulator collects the unique, non-empty reviews of one product visit.
// It lives for a single product and is dropped when pagination ends.
type Accumulator struct {
	target  int
	seen    map[string]struct{}
	records []types.ReviewRecord
}

// NewAccumulator creates an accumulator that is full at target records
func NewAccumulator(target int) *Accumulator {
	return &Accumulator{
		target: target,
		seen:   make(map[string]struct{}),
	}
}

// fingerprint identifies a review by its (reviewer, date, title, body) tuple
func fingerprint(r types.ReviewRecord) string {
	return utils.Fingerprint(r.ReviewerName, r.Date, r.Title, r.Body)
}

// Add keeps r unless it is empty or already seen. It reports whether r was
// kept.
func (a *Accumulator) Add(r types.ReviewRecord) bool {
	if r.IsEmpty() {
		return false
	}
	key := fingerprint(r)
	if _, ok := a.seen[key]; ok {
		return false
	}
	a.seen[key] = struct{}{}
	a.records = append(a.records, r)
	return true
}

// AddAll adds a batch and returns how many records were new
func (a *Accumulator) AddAll(batch []types.ReviewRecord) int {
	added := 0
	for _, r := range batch {
		if a.Add(r) {
			added++
		}
	}
	return added
}

// Len returns the number of unique records held
func (a *Accumulator) Len() int {
	return len(a.records)
}

// Full reports whether the target has been reached
func (a *Accumulator) Full() bool {
	return a.target > 0 && len(a.records) >= a.target
}

// Records returns the collected records truncated to the target
func (a *Accumulator) Records() []types.ReviewRecord {
	n := len(a.records)
	if a.target > 0 && n > a.target {
		n = a.target
	}
	out := make([]types.ReviewRecord, n)
	copy(out, a.records[:n])
	return out
}
