// Package dataset loads and prepares the per-municipality input tables
// consumed by the simulation: boundaries, census covariates, climate and
// soil averages, permanent-pastures areas, historical adoption, and the
// PCF payment schedule.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Features maps feature names to values for one municipality (and, for the
// census, one year).
type Features map[string]float64

// FeatureTable maps a municipality name to its features.
type FeatureTable map[string]Features

// CensusTable maps a municipality name to per-year census features.
type CensusTable map[string]map[int]Features

// YearSeries maps years to values.
type YearSeries map[int]float64

// SeriesTable maps a municipality name to a yearly series.
type SeriesTable map[string]YearSeries

// readCSV opens a CSV file and returns its header and data rows.
// All rows must have the same field count as the header.
func readCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("read %s: file is empty", path)
	}
	return records[0], records[1:], nil
}

// parseValue parses a CSV cell as float64 with positional context on failure.
func parseValue(path, column string, row int, cell string) (float64, error) {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: row %d, column %s: invalid value %q", path, row, column, cell)
	}
	return v, nil
}

// parseYear parses a CSV cell as a year.
func parseYear(path string, row int, cell string) (int, error) {
	y, err := strconv.Atoi(cell)
	if err != nil {
		return 0, fmt.Errorf("%s: row %d: invalid year %q", path, row, cell)
	}
	return y, nil
}

// columnIndex locates a named column in a header, case-sensitively.
func columnIndex(header []string, name string) (int, bool) {
	for i, h := range header {
		if h == name {
			return i, true
		}
	}
	return 0, false
}
