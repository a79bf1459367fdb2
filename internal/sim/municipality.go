package sim

import (
	"context"
	"fmt"

	"github.com/giacrava/sbp-adoption-abm/internal/dataset"
	"github.com/giacrava/sbp-adoption-abm/internal/logging"
	"github.com/giacrava/sbp-adoption-abm/internal/mlmodel"
)

// Municipality is the main agent of the simulation, estimating its own SBP
// adoption each year.
//
// All adoption fractions are relative to the municipality's permanent
// pastures area in the reference year (2009), matching how the models were
// trained.
type Municipality struct {
	code     string
	name     string
	district string

	census   map[int]dataset.Features
	pastures dataset.YearSeries
	env      *Environment

	// pasturesRef is the reference-year pastures area in hectares.
	pasturesRef float64

	yearlyAdoption   dataset.YearSeries // fraction of pasturesRef, per year
	yearlyAdoptionHa dataset.YearSeries
	cumulAdoption    float64 // fraction, all years so far
	cumulAdoptionHa  float64

	// pending holds the fraction planned during the current step, applied
	// by commit once every agent has planned.
	pending float64
}

// Code returns the official municipality code.
func (a *Municipality) Code() string { return a.code }

// Name returns the municipality name.
func (a *Municipality) Name() string { return a.name }

// District returns the district the municipality belongs to.
func (a *Municipality) District() string { return a.district }

// PasturesRef returns the reference-year pastures area in hectares.
func (a *Municipality) PasturesRef() float64 { return a.pasturesRef }

// CumulativeHa returns the hectares switched to SBP over all years so far.
func (a *Municipality) CumulativeHa() float64 { return a.cumulAdoptionHa }

// YearlyHa returns a copy of the per-year adopted hectares.
func (a *Municipality) YearlyHa() dataset.YearSeries {
	out := make(dataset.YearSeries, len(a.yearlyAdoptionHa))
	for y, v := range a.yearlyAdoptionHa {
		out[y] = v
	}
	return out
}

// YearlyFraction returns a copy of the per-year adoption fractions.
func (a *Municipality) YearlyFraction() dataset.YearSeries {
	out := make(dataset.YearSeries, len(a.yearlyAdoption))
	for y, v := range a.yearlyAdoption {
		out[y] = v
	}
	return out
}

// plan decides the adoption fraction for the current year and stores it in
// pending. Municipalities with no pastures area in the year or the previous
// one, or with their whole pastures area already converted, never adopt.
// Otherwise the classifier probability gates a uniform draw and the
// regressor sizes the increment.
func (a *Municipality) plan(m *Model) error {
	year := m.year

	if a.pastures[year] == 0 || a.pastures[year-1] == 0 {
		a.pending = 0
		return nil
	}
	if a.cumulAdoptionHa >= a.pastures[year] {
		a.pending = 0
		return nil
	}

	payment, err := m.government.Payment(year)
	if err != nil {
		return fmt.Errorf("municipality %s: %w", a.name, err)
	}

	clsfX, err := a.buildVector(m, m.classifier.Features(), payment)
	if err != nil {
		return fmt.Errorf("municipality %s, year %d: %w", a.name, year, err)
	}
	regrX, err := a.buildVector(m, m.regressor.Features(), payment)
	if err != nil {
		return fmt.Errorf("municipality %s, year %d: %w", a.name, year, err)
	}

	m.log.Log(context.Background(), logging.LevelTrace, "model inputs",
		"municipality", a.name,
		"year", year,
		"classifier_x", clsfX,
		"regressor_x", regrX,
	)

	return a.estimate(m, clsfX, regrX)
}

// buildVector assembles the model input for this year in the artifact's
// feature order. Census covariates come from the previous year, the
// original publication's lag.
func (a *Municipality) buildVector(m *Model, features []string, payment float64) ([]float64, error) {
	census := a.census[m.year-1]

	return mlmodel.BuildVector(features, func(name string) (float64, bool) {
		switch name {
		case "tot_cumul_adoption_pr_y_munic":
			return a.cumulAdoption, true
		case "tot_cumul_adoption_pr_y_munic_squared":
			return a.cumulAdoption * a.cumulAdoption, true
		case "tot_cumul_adoption_pr_y_port":
			return m.cumulAdoptionNat, true
		case "sbp_payment":
			return payment, true
		}
		if v, ok := census[name]; ok {
			return v, true
		}
		return a.env.feature(name)
	})
}

// estimate runs the two-stage prediction: probability of adopting at all,
// then the area increment if the draw succeeds. Negative increments become
// zero; increments that would push cumulative hectares past the year's
// pastures area are capped at the remainder.
func (a *Municipality) estimate(m *Model, clsfX, regrX []float64) error {
	prob, err := m.classifier.PredictProba(clsfX)
	if err != nil {
		return fmt.Errorf("municipality %s: classifier: %w", a.name, err)
	}

	draw := m.rng.Float64()
	if draw >= prob {
		a.pending = 0
		m.decisions.Adoption(a.name, m.year, prob, draw, 0, 0)
		return nil
	}

	fraction, err := m.regressor.Predict(regrX)
	if err != nil {
		return fmt.Errorf("municipality %s: regressor: %w", a.name, err)
	}

	switch hectares := fraction * a.pasturesRef; {
	case fraction < 0:
		a.pending = 0
	case a.cumulAdoptionHa+hectares > a.pastures[m.year]:
		remainder := a.pastures[m.year] - a.cumulAdoptionHa
		a.pending = remainder / a.pasturesRef
	default:
		a.pending = fraction
	}

	m.decisions.Adoption(a.name, m.year, prob, draw, a.pending, a.pending*a.pasturesRef)
	return nil
}

// commit applies the pending adoption to the agent's series and adds the
// hectares to the model's national accumulator for the year. Called only
// after every agent has planned.
func (a *Municipality) commit(m *Model) {
	year := m.year
	hectares := a.pending * a.pasturesRef

	a.yearlyAdoption[year] = a.pending
	a.yearlyAdoptionHa[year] = hectares
	a.cumulAdoption += a.pending
	a.cumulAdoptionHa += hectares

	m.adoptionInYearHa += hectares
}
