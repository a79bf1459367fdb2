package dataset

import (
	"fmt"
)

// LoadCensus reads the census covariates CSV. The file is keyed by
// Municipality and Year columns; every remaining column is a feature.
func LoadCensus(path string) (CensusTable, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	municIdx, ok := columnIndex(header, "Municipality")
	if !ok {
		return nil, fmt.Errorf("%s: missing Municipality column", path)
	}
	yearIdx, ok := columnIndex(header, "Year")
	if !ok {
		return nil, fmt.Errorf("%s: missing Year column", path)
	}

	table := make(CensusTable)
	for i, row := range rows {
		munic := row[municIdx]
		year, err := parseYear(path, i+2, row[yearIdx])
		if err != nil {
			return nil, err
		}

		feats := make(Features, len(header)-2)
		for col, cell := range row {
			if col == municIdx || col == yearIdx {
				continue
			}
			v, err := parseValue(path, header[col], i+2, cell)
			if err != nil {
				return nil, err
			}
			feats[header[col]] = v
		}

		if table[munic] == nil {
			table[munic] = make(map[int]Features)
		}
		table[munic][year] = feats
	}
	return table, nil
}

// loadFeatureTable reads a CSV keyed by a single Municipality column.
func loadFeatureTable(path string) (FeatureTable, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	municIdx, ok := columnIndex(header, "Municipality")
	if !ok {
		return nil, fmt.Errorf("%s: missing Municipality column", path)
	}

	table := make(FeatureTable, len(rows))
	for i, row := range rows {
		feats := make(Features, len(header)-1)
		for col, cell := range row {
			if col == municIdx {
				continue
			}
			v, err := parseValue(path, header[col], i+2, cell)
			if err != nil {
				return nil, err
			}
			feats[header[col]] = v
		}
		table[row[municIdx]] = feats
	}
	return table, nil
}

// LoadClimate reads the average climate CSV, one row per municipality.
func LoadClimate(path string) (FeatureTable, error) {
	return loadFeatureTable(path)
}

// LoadSoil reads the soil properties CSV, one row per municipality.
func LoadSoil(path string) (FeatureTable, error) {
	return loadFeatureTable(path)
}

// LoadPastures reads the yearly permanent-pastures area CSV with columns
// Municipality, Year, pastures_area_munic_ha.
func LoadPastures(path string) (SeriesTable, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	municIdx, ok := columnIndex(header, "Municipality")
	if !ok {
		return nil, fmt.Errorf("%s: missing Municipality column", path)
	}
	yearIdx, ok := columnIndex(header, "Year")
	if !ok {
		return nil, fmt.Errorf("%s: missing Year column", path)
	}
	areaIdx, ok := columnIndex(header, "pastures_area_munic_ha")
	if !ok {
		return nil, fmt.Errorf("%s: missing pastures_area_munic_ha column", path)
	}

	table := make(SeriesTable)
	for i, row := range rows {
		year, err := parseYear(path, i+2, row[yearIdx])
		if err != nil {
			return nil, err
		}
		area, err := parseValue(path, "pastures_area_munic_ha", i+2, row[areaIdx])
		if err != nil {
			return nil, err
		}
		munic := row[municIdx]
		if table[munic] == nil {
			table[munic] = make(YearSeries)
		}
		table[munic][year] = area
	}
	return table, nil
}

// LoadAdoption reads the wide historical adoption CSV: a Municipality column
// followed by one column per year, holding the fraction of the reference
// pastures area switched to SBP that year.
//
// Columns for startYear and later are discarded; those years are the ones
// the simulation estimates.
func LoadAdoption(path string, startYear int) (SeriesTable, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	municIdx, ok := columnIndex(header, "Municipality")
	if !ok {
		return nil, fmt.Errorf("%s: missing Municipality column", path)
	}

	years := make(map[int]int) // column index → year
	for col, h := range header {
		if col == municIdx {
			continue
		}
		y, err := parseYear(path, 1, h)
		if err != nil {
			return nil, fmt.Errorf("%s: column %q is not a year", path, h)
		}
		if y < startYear {
			years[col] = y
		}
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("%s: no adoption years before %d", path, startYear)
	}

	table := make(SeriesTable, len(rows))
	for i, row := range rows {
		series := make(YearSeries, len(years))
		for col, year := range years {
			v, err := parseValue(path, header[col], i+2, row[col])
			if err != nil {
				return nil, err
			}
			series[year] = v
		}
		table[row[municIdx]] = series
	}
	return table, nil
}
