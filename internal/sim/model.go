// Package sim implements the agent-based model of SBP adoption by Portuguese
// municipalities. Agents step in two phases each simulated year, mirroring
// simultaneous activation: first every agent plans its adoption increment,
// then every agent commits it, so no agent observes another's decision for
// the same year.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/giacrava/sbp-adoption-abm/internal/dataset"
	"github.com/giacrava/sbp-adoption-abm/internal/logging"
	"github.com/giacrava/sbp-adoption-abm/internal/mlmodel"
)

// firstModelYear is the earliest year the simulation may start: the year the
// historical series begins being predicted.
const firstModelYear = 1996

// historyStartYear is the first year of the historical adoption record.
const historyStartYear = 1995

// Params configures a model instance.
type Params struct {
	// StartYear is the first year whose adoption is predicted. Must be
	// >= 1996.
	StartYear int

	// Seed drives the adoption draws. Equal seed and inputs give equal
	// output.
	Seed int64

	// Logger receives operational output. Nil discards it.
	Logger *slog.Logger

	// Decisions receives per-agent adoption traces. Nil is valid.
	Decisions *logging.DecisionLogger
}

// Model is the simulation: the municipalities, the government, the trained
// models, and the national adoption aggregates.
type Model struct {
	classifier *mlmodel.Classifier
	regressor  *mlmodel.Regressor
	government *Government

	municipalities []*Municipality

	year int

	// National aggregates, over all municipalities.
	pasturesRefNat   float64            // reference pastures area, ha
	yearlyHaNat      dataset.YearSeries // adopted hectares per year since 1995
	cumulHaNat       float64            // adopted hectares over all years
	cumulAdoptionNat float64            // cumulHaNat / pasturesRefNat

	// adoptionInYearHa accumulates agent commits within one step.
	adoptionInYearHa float64

	rng       *rand.Rand
	log       *slog.Logger
	decisions *logging.DecisionLogger
	collector *Collector
}

// New builds a model from a verified dataset bundle and the two trained
// artifacts.
func New(b *dataset.Bundle, classifier *mlmodel.Classifier, regressor *mlmodel.Regressor, p Params) (*Model, error) {
	if p.StartYear < firstModelYear {
		return nil, fmt.Errorf("the model cannot be initialized in a year previous to %d", firstModelYear)
	}

	log := p.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	m := &Model{
		classifier:  classifier,
		regressor:   regressor,
		government:  NewGovernment(b.Payments),
		year:        p.StartYear,
		yearlyHaNat: make(dataset.YearSeries),
		rng:         rand.New(rand.NewSource(p.Seed)),
		log:         log,
		decisions:   p.Decisions,
		collector:   &Collector{},
	}
	for y := historyStartYear; y < p.StartYear; y++ {
		m.yearlyHaNat[y] = 0
	}

	for _, munic := range b.Municipalities {
		agent, err := m.newAgent(b, munic)
		if err != nil {
			return nil, err
		}
		m.municipalities = append(m.municipalities, agent)
	}

	m.cumulHaNat = 0
	for _, ha := range m.yearlyHaNat {
		m.cumulHaNat += ha
	}
	m.cumulAdoptionNat = m.cumulHaNat / m.pasturesRefNat

	// Pre-seed the collector with the year before the start, so output
	// series do not begin at zero when there was earlier adoption.
	prev := p.StartYear - 1
	m.collector.collect(prev, m.cumulHaNat, m.yearlyHaNat[prev])

	log.Info("model initialized",
		"municipalities", len(m.municipalities),
		"start_year", p.StartYear,
		"seed", p.Seed,
		"national_pastures_ref_ha", m.pasturesRefNat,
	)

	return m, nil
}

// newAgent initializes one municipality agent from the bundle and folds its
// history into the national aggregates.
func (m *Model) newAgent(b *dataset.Bundle, munic dataset.Municipality) (*Municipality, error) {
	pastures := b.Pastures[munic.Name]
	ref := pastures[dataset.ReferenceYear]

	agent := &Municipality{
		code:        munic.Code,
		name:        munic.Name,
		district:    munic.District,
		census:      b.Census[munic.Name],
		pastures:    pastures,
		pasturesRef: ref,
		env: &Environment{
			Climate: b.Climate[munic.Name],
			Soil:    b.Soil[munic.Name],
		},
		yearlyAdoption:   make(dataset.YearSeries),
		yearlyAdoptionHa: make(dataset.YearSeries),
	}

	for year, fraction := range b.Adoption[munic.Name] {
		hectares := fraction * ref
		agent.yearlyAdoption[year] = fraction
		agent.yearlyAdoptionHa[year] = hectares
		agent.cumulAdoption += fraction
		agent.cumulAdoptionHa += hectares
		m.yearlyHaNat[year] += hectares
	}

	m.pasturesRefNat += ref
	return agent, nil
}

// Year returns the next year to be simulated.
func (m *Model) Year() int { return m.year }

// Municipalities returns the agents in their stable iteration order.
func (m *Model) Municipalities() []*Municipality { return m.municipalities }

// CumulativeHaNational returns the hectares adopted nationally over all years.
func (m *Model) CumulativeHaNational() float64 { return m.cumulHaNat }

// YearlyHaNational returns a copy of the national adopted-hectares series.
func (m *Model) YearlyHaNational() dataset.YearSeries {
	out := make(dataset.YearSeries, len(m.yearlyHaNat))
	for y, v := range m.yearlyHaNat {
		out[y] = v
	}
	return out
}

// Records returns the collected national rows, including the pre-seeded
// year before the start.
func (m *Model) Records() []Record { return m.collector.Records() }

// Step simulates one year: plan phase, commit phase, national update,
// collection, then the year advances.
func (m *Model) Step() error {
	for _, agent := range m.municipalities {
		if err := agent.plan(m); err != nil {
			return err
		}
	}
	for _, agent := range m.municipalities {
		agent.commit(m)
	}

	m.yearlyHaNat[m.year] = m.adoptionInYearHa
	m.cumulHaNat += m.adoptionInYearHa
	m.cumulAdoptionNat = m.cumulHaNat / m.pasturesRefNat

	m.collector.collect(m.year, m.cumulHaNat, m.adoptionInYearHa)

	m.log.Debug("year simulated",
		"year", m.year,
		"yearly_ha", m.adoptionInYearHa,
		"cumulative_ha", m.cumulHaNat,
	)

	m.adoptionInYearHa = 0
	m.year++
	return nil
}

// Run steps the model through endYear inclusive, honoring ctx cancellation
// between years.
func (m *Model) Run(ctx context.Context, endYear int) error {
	for m.year <= endYear {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Step(); err != nil {
			return fmt.Errorf("year %d: %w", m.year, err)
		}
	}
	return nil
}
