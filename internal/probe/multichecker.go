package probe

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MultiChecker runs several probes against one target.
type MultiChecker struct {
	Checkers []Checker
}

func NewMultiChecker(checkers ...Checker) *MultiChecker {
	return &MultiChecker{Checkers: checkers}
}

// Run starts all checkers at once and returns their results in checker
// order. A failed check never cancels the others.
func (m *MultiChecker) Run(ctx context.Context, target string) []CheckResult {
	results := make([]CheckResult, len(m.Checkers))
	var g errgroup.Group
	for i, c := range m.Checkers {
		g.Go(func() error {
			results[i] = c.Check(ctx, target)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed returns the unsuccessful results.
func Failed(results []CheckResult) []CheckResult {
	var out []CheckResult
	for _, r := range results {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}
