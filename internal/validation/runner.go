// Package validation assesses the model against observed adoption data by
// running replicate simulations and aggregating their output.
package validation

import (
	"context"
	"fmt"

	"github.com/giacrava/sbp-adoption-abm/internal/results"
	"github.com/giacrava/sbp-adoption-abm/internal/sim"
)

// MultiRun holds the national series of every replicate run.
type MultiRun struct {
	Seeds  []int64
	Series [][]results.NationalPoint
}

// RunMany executes n replicate runs with consecutive seeds starting at
// baseSeed. build must return a fresh model for each seed; every model is
// stepped through endYear.
func RunMany(ctx context.Context, n int, baseSeed int64, endYear int, build func(seed int64) (*sim.Model, error)) (*MultiRun, error) {
	if n < 1 {
		return nil, fmt.Errorf("need at least one run, got %d", n)
	}

	mr := &MultiRun{}
	for i := 0; i < n; i++ {
		seed := baseSeed + int64(i)

		m, err := build(seed)
		if err != nil {
			return nil, fmt.Errorf("run %d (seed %d): build model: %w", i, seed, err)
		}
		if err := m.Run(ctx, endYear); err != nil {
			return nil, fmt.Errorf("run %d (seed %d): %w", i, seed, err)
		}

		national, _ := results.FromModel(m, m.Year())
		mr.Seeds = append(mr.Seeds, seed)
		mr.Series = append(mr.Series, national)
	}
	return mr, nil
}
