package extractor

import (
	"context"

	"review-extractor/internal/types"
	"review-extractor/utils"
)

// State is a pagination controller state.
type State int

const (
	Collecting State = iota
	Advancing
	Done
)

func (s State) String() string {
	switch s {
	case Collecting:
		return "COLLECTING"
	case Advancing:
		return "ADVANCING"
	default:
		return "DONE"
	}
}

// defaultMaxAdvances bounds pagination when a policy sets no ceiling.
const defaultMaxAdvances = 50

// Stop reasons reported by Paginate.
const (
	StopTarget        = "target reached"
	StopStalled       = "no new reviews"
	StopCeiling       = "page ceiling"
	StopNoNext        = "no next control"
	StopAdvanceFailed = "advance failed"
)

// PageResult is the outcome of paginating one product's reviews.
type PageResult struct {
	Reviews  []types.ReviewRecord
	Reads    int
	Advances int
	Reason   string
}

// Paginator drives a pager through COLLECTING and ADVANCING until the
// target is met, an advance brings nothing new, or the ceiling is hit.
type Paginator struct {
	pager  types.ReviewPager
	target int
	policy types.PaginationPolicy
	logger types.Logger
}

// NewPaginator creates a controller for one product visit
func NewPaginator(pager types.ReviewPager, target int, policy types.PaginationPolicy, logger types.Logger) *Paginator {
	if policy.MaxAdvances <= 0 {
		policy.MaxAdvances = defaultMaxAdvances
	}
	return &Paginator{
		pager:  pager,
		target: target,
		policy: policy,
		logger: logger,
	}
}

// Run executes the state machine. A failed card read aborts with its error;
// a failed advance only ends pagination.
func (p *Paginator) Run(ctx context.Context) (PageResult, error) {
	acc := NewAccumulator(p.target)
	result := PageResult{}
	state := Collecting

	for state != Done {
		switch state {
		case Collecting:
			cards, err := p.pager.Cards(ctx)
			if err != nil {
				result.Reviews = acc.Records()
				return result, err
			}
			result.Reads++
			added := acc.AddAll(cards)
			p.logger.Debugf("Read %d cards, %d new, %d total", len(cards), added, acc.Len())

			switch {
			case acc.Full():
				result.Reason = StopTarget
				state = Done
			case result.Advances > 0 && added == 0:
				result.Reason = StopStalled
				state = Done
			default:
				state = Advancing
			}

		case Advancing:
			if result.Advances >= p.policy.MaxAdvances {
				result.Reason = StopCeiling
				state = Done
				continue
			}

			ok, err := p.pager.Advance(ctx)
			if err != nil {
				if ctx.Err() != nil {
					result.Reviews = acc.Records()
					return result, ctx.Err()
				}
				p.logger.Debugf("Advance failed: %v", err)
				result.Reason = StopAdvanceFailed
				state = Done
				continue
			}
			if !ok {
				result.Reason = StopNoNext
				state = Done
				continue
			}

			result.Advances++
			if err := utils.Settle(ctx, p.policy.Settle); err != nil {
				result.Reviews = acc.Records()
				return result, err
			}
			state = Collecting
		}
	}

	result.Reviews = acc.Records()
	p.logger.Debugf("Pagination done after %d advances: %s", result.Advances, result.Reason)
	return result, nil
}
