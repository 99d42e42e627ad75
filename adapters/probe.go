package adapters

import (
	"context"

	"review-extractor/utils"
)

// ProbeResult reports how each strategy of one chain fared on a page.
// Matched is the index of the first strategy with a visible match, or -1.
type ProbeResult struct {
	Name       string
	Strategies []utils.Strategy
	Counts     []int
	Visible    []int
	Matched    int
}

// RunProbes evaluates every strategy of every chain against the current page.
// Unlike Locate it does not stop at the first hit, so drift in later
// fallbacks shows up too.
func RunProbes(ctx context.Context, locator *utils.Locator, probes []Probe) []ProbeResult {
	results := make([]ProbeResult, 0, len(probes))
	for _, probe := range probes {
		result := ProbeResult{
			Name:       probe.Name,
			Strategies: probe.Strategies,
			Counts:     make([]int, len(probe.Strategies)),
			Visible:    make([]int, len(probe.Strategies)),
			Matched:    -1,
		}
		for i, s := range probe.Strategies {
			nodes := locator.All(ctx, s)
			result.Counts[i] = len(nodes)
			for _, n := range nodes {
				if n.Visible() {
					result.Visible[i]++
				}
			}
			if result.Matched < 0 && result.Visible[i] > 0 {
				result.Matched = i
			}
		}
		results = append(results, result)
	}
	return results
}
