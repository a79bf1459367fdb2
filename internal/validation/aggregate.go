package validation

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/giacrava/sbp-adoption-abm/internal/results"
)

// YearStats summarizes the replicate runs for one year.
type YearStats struct {
	Year int

	MeanYearlyHa float64

	MeanCumulativeHa float64
	StdCumulativeHa  float64
	MinCumulativeHa  float64
	MaxCumulativeHa  float64
}

// Aggregate combines the national series of replicate runs into per-year
// statistics. Every run must cover the same years.
func Aggregate(series [][]results.NationalPoint) ([]YearStats, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no series to aggregate")
	}

	byYear := make(map[int]struct{ yearly, cumulative []float64 })
	for i, run := range series {
		if len(run) != len(series[0]) {
			return nil, fmt.Errorf("run %d covers %d years, run 0 covers %d", i, len(run), len(series[0]))
		}
		for _, p := range run {
			e := byYear[p.Year]
			e.yearly = append(e.yearly, p.YearlyHa)
			e.cumulative = append(e.cumulative, p.CumulativeHa)
			byYear[p.Year] = e
		}
	}

	years := make([]int, 0, len(byYear))
	for y, e := range byYear {
		if len(e.cumulative) != len(series) {
			return nil, fmt.Errorf("year %d present in %d of %d runs", y, len(e.cumulative), len(series))
		}
		years = append(years, y)
	}
	sort.Ints(years)

	stats := make([]YearStats, 0, len(years))
	for _, y := range years {
		e := byYear[y]
		mean, std := stat.MeanStdDev(e.cumulative, nil)
		if len(e.cumulative) == 1 {
			std = 0
		}
		stats = append(stats, YearStats{
			Year:             y,
			MeanYearlyHa:     stat.Mean(e.yearly, nil),
			MeanCumulativeHa: mean,
			StdCumulativeHa:  std,
			MinCumulativeHa:  floats.Min(e.cumulative),
			MaxCumulativeHa:  floats.Max(e.cumulative),
		})
	}
	return stats, nil
}

// WriteStatsCSV writes the aggregated statistics as CSV.
func WriteStatsCSV(w io.Writer, stats []YearStats) error {
	cw := csv.NewWriter(w)
	header := []string{"Year", "mean_yearly_ha", "mean_cumulative_ha", "std_cumulative_ha", "min_cumulative_ha", "max_cumulative_ha"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range stats {
		rec := []string{
			strconv.Itoa(s.Year),
			strconv.FormatFloat(s.MeanYearlyHa, 'f', -1, 64),
			strconv.FormatFloat(s.MeanCumulativeHa, 'f', -1, 64),
			strconv.FormatFloat(s.StdCumulativeHa, 'f', -1, 64),
			strconv.FormatFloat(s.MinCumulativeHa, 'f', -1, 64),
			strconv.FormatFloat(s.MaxCumulativeHa, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
