// Package results persists simulation runs and exports them as CSV.
package results

import (
	"context"
	"time"
)

// Run describes one persisted simulation run.
type Run struct {
	ID        int64
	Seed      int64
	StartYear int
	EndYear   int
	CreatedAt time.Time
}

// NationalPoint is one year of the national output series.
type NationalPoint struct {
	Year         int
	YearlyHa     float64
	CumulativeHa float64
}

// Observation is one municipality-year adoption outcome.
type Observation struct {
	Municipality string
	Year         int
	Fraction     float64
	Hectares     float64
}

// RunStore persists runs together with their national series and
// per-municipality observations.
type RunStore interface {
	// SaveRun stores a complete run and returns its id.
	SaveRun(ctx context.Context, seed int64, startYear, endYear int, national []NationalPoint, observations []Observation) (int64, error)

	// GetRun returns run metadata by id.
	GetRun(ctx context.Context, id int64) (*Run, error)

	// ListRuns returns all runs, newest first.
	ListRuns(ctx context.Context) ([]Run, error)

	// NationalSeries returns the national series of a run in year order.
	NationalSeries(ctx context.Context, runID int64) ([]NationalPoint, error)

	// Observations returns the per-municipality observations of a run,
	// ordered by municipality then year.
	Observations(ctx context.Context, runID int64) ([]Observation, error)

	Close() error
}
