package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// WriteNationalCSV writes the national series with columns
// Year, yearly_sbp_ha, cumulative_sbp_ha.
func WriteNationalCSV(w io.Writer, points []NationalPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Year", "yearly_sbp_ha", "cumulative_sbp_ha"}); err != nil {
		return err
	}
	for _, p := range points {
		rec := []string{
			strconv.Itoa(p.Year),
			strconv.FormatFloat(p.YearlyHa, 'f', -1, 64),
			strconv.FormatFloat(p.CumulativeHa, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteObservationsCSV writes per-municipality observations with columns
// Municipality, Year, adoption_fraction, adoption_ha.
func WriteObservationsCSV(w io.Writer, obs []Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Municipality", "Year", "adoption_fraction", "adoption_ha"}); err != nil {
		return err
	}
	for _, o := range obs {
		rec := []string{
			o.Municipality,
			strconv.Itoa(o.Year),
			strconv.FormatFloat(o.Fraction, 'f', -1, 64),
			strconv.FormatFloat(o.Hectares, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportRun writes both CSV files for a run into dir, named by run id.
// It returns the paths written.
func ExportRun(dir string, runID int64, national []NationalPoint, obs []Observation) (nationalPath, obsPath string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}

	nationalPath = filepath.Join(dir, fmt.Sprintf("run_%d_national.csv", runID))
	obsPath = filepath.Join(dir, fmt.Sprintf("run_%d_municipalities.csv", runID))

	nf, err := os.Create(nationalPath)
	if err != nil {
		return "", "", fmt.Errorf("create %s: %w", nationalPath, err)
	}
	defer nf.Close()
	if err := WriteNationalCSV(nf, national); err != nil {
		return "", "", fmt.Errorf("write %s: %w", nationalPath, err)
	}

	of, err := os.Create(obsPath)
	if err != nil {
		return "", "", fmt.Errorf("create %s: %w", obsPath, err)
	}
	defer of.Close()
	if err := WriteObservationsCSV(of, obs); err != nil {
		return "", "", fmt.Errorf("write %s: %w", obsPath, err)
	}

	return nationalPath, obsPath, nil
}
