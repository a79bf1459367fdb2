package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/giacrava/sbp-adoption-abm/internal/config"
)

// Bundle holds every prepared input table, joined and verified, ready to
// initialize the simulation.
type Bundle struct {
	Municipalities []Municipality

	// Census holds the transformed census covariates per municipality and year.
	Census CensusTable

	// Climate and Soil hold the transformed environmental covariates.
	Climate FeatureTable
	Soil    FeatureTable

	// Pastures is the permanent-pastures area in hectares per
	// municipality and year.
	Pastures SeriesTable

	// Adoption is the historical adoption fraction per municipality and
	// year, restricted to years before the simulation start.
	Adoption SeriesTable

	// Payments is the PCF payment schedule.
	Payments PaymentSchedule
}

// Load reads, transforms and cross-checks every input dataset.
// startYear bounds the historical adoption series.
func Load(cfg config.DataConfig, startYear int) (*Bundle, error) {
	munics, err := LoadBoundaries(cfg.BoundariesPath)
	if err != nil {
		return nil, fmt.Errorf("boundaries: %w", err)
	}

	census, err := LoadCensus(cfg.CensusPath)
	if err != nil {
		return nil, fmt.Errorf("census: %w", err)
	}
	census, err = TransformCensus(census)
	if err != nil {
		return nil, fmt.Errorf("census: %w", err)
	}

	climate, err := LoadClimate(cfg.ClimatePath)
	if err != nil {
		return nil, fmt.Errorf("climate: %w", err)
	}

	soil, err := LoadSoil(cfg.SoilPath)
	if err != nil {
		return nil, fmt.Errorf("soil: %w", err)
	}

	pastures, err := LoadPastures(cfg.PasturesPath)
	if err != nil {
		return nil, fmt.Errorf("pastures: %w", err)
	}

	adoption, err := LoadAdoption(cfg.AdoptionPath, startYear)
	if err != nil {
		return nil, fmt.Errorf("adoption: %w", err)
	}

	payments, err := LoadPayments(cfg.PaymentsPath)
	if err != nil {
		return nil, fmt.Errorf("payments: %w", err)
	}

	b := &Bundle{
		Municipalities: munics,
		Census:         census,
		Climate:        TransformClimate(climate),
		Soil:           TransformSoil(soil),
		Pastures:       pastures,
		Adoption:       adoption,
		Payments:       payments,
	}
	if err := b.Verify(); err != nil {
		return nil, err
	}
	return b, nil
}

// Verify checks referential consistency: every municipality from the
// boundaries must appear in each covariate table. The error lists every
// missing (source, municipality) pair so a broken dataset surfaces at once.
func (b *Bundle) Verify() error {
	var problems []string

	sources := []struct {
		name    string
		present func(name string) bool
	}{
		{"census", func(n string) bool { _, ok := b.Census[n]; return ok }},
		{"climate", func(n string) bool { _, ok := b.Climate[n]; return ok }},
		{"soil", func(n string) bool { _, ok := b.Soil[n]; return ok }},
		{"pastures", func(n string) bool { _, ok := b.Pastures[n]; return ok }},
		{"adoption", func(n string) bool { _, ok := b.Adoption[n]; return ok }},
	}

	for _, src := range sources {
		var missing []string
		for _, m := range b.Municipalities {
			if !src.present(m.Name) {
				missing = append(missing, m.Name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			problems = append(problems, fmt.Sprintf("%s data missing for: %s",
				src.name, strings.Join(missing, ", ")))
		}
	}

	// The 2009 pastures area anchors every adoption fraction; it has to
	// exist for every municipality.
	var noRef []string
	for _, m := range b.Municipalities {
		series, ok := b.Pastures[m.Name]
		if !ok {
			continue // already reported above
		}
		if _, ok := series[ReferenceYear]; !ok {
			noRef = append(noRef, m.Name)
		}
	}
	if len(noRef) > 0 {
		sort.Strings(noRef)
		problems = append(problems, fmt.Sprintf("pastures reference year %d missing for: %s",
			ReferenceYear, strings.Join(noRef, ", ")))
	}

	if len(problems) > 0 {
		return fmt.Errorf("dataset integrity: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ReferenceYear is the census year whose permanent-pastures area anchors all
// adoption fractions.
const ReferenceYear = 2009
