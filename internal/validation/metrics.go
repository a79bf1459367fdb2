package validation

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/giacrava/sbp-adoption-abm/internal/dataset"
	"github.com/giacrava/sbp-adoption-abm/internal/results"
)

// Metrics quantifies the error of the simulated national cumulative series
// against the observed one.
type Metrics struct {
	Years int // number of matched years
	RMSE  float64
	MAE   float64
	R2    float64
}

// Compare evaluates the mean simulated cumulative series against observed
// values, matching on year. Years present on only one side are skipped;
// fewer than two matched years is an error.
func Compare(simulated []YearStats, observed map[int]float64) (Metrics, error) {
	var pred, obs []float64
	for _, s := range simulated {
		o, ok := observed[s.Year]
		if !ok {
			continue
		}
		pred = append(pred, s.MeanCumulativeHa)
		obs = append(obs, o)
	}
	if len(pred) < 2 {
		return Metrics{}, fmt.Errorf("only %d matched years between simulated and observed series", len(pred))
	}

	var sumSq, sumAbs float64
	for i := range pred {
		d := pred[i] - obs[i]
		sumSq += d * d
		sumAbs += math.Abs(d)
	}
	n := float64(len(pred))

	obsMean := stat.Mean(obs, nil)
	var ssTot float64
	for _, o := range obs {
		d := o - obsMean
		ssTot += d * d
	}

	m := Metrics{
		Years: len(pred),
		RMSE:  math.Sqrt(sumSq / n),
		MAE:   sumAbs / n,
	}
	if ssTot > 0 {
		m.R2 = 1 - sumSq/ssTot
	} else {
		m.R2 = math.NaN()
	}
	return m, nil
}

// ObservedNational derives the observed national cumulative series in
// hectares from a historical adoption table and the pastures table: each
// municipality's yearly fraction times its reference pastures area, summed
// nationally and accumulated over years.
func ObservedNational(adoption, pastures dataset.SeriesTable) (map[int]float64, error) {
	yearlyHa := make(map[int]float64)
	for munic, series := range adoption {
		pasturesSeries, ok := pastures[munic]
		if !ok {
			return nil, fmt.Errorf("pastures data missing for municipality %s", munic)
		}
		ref, ok := pasturesSeries[dataset.ReferenceYear]
		if !ok {
			return nil, fmt.Errorf("pastures reference year %d missing for municipality %s", dataset.ReferenceYear, munic)
		}
		for year, fraction := range series {
			yearlyHa[year] += fraction * ref
		}
	}

	years := make([]int, 0, len(yearlyHa))
	for y := range yearlyHa {
		years = append(years, y)
	}
	sort.Ints(years)

	cumulative := make(map[int]float64, len(years))
	var total float64
	for _, y := range years {
		total += yearlyHa[y]
		cumulative[y] = total
	}
	return cumulative, nil
}

// CheckNonDecreasingCumulative verifies the engineering invariant that the
// national cumulative series never decreases.
func CheckNonDecreasingCumulative(points []results.NationalPoint) error {
	for i := 1; i < len(points); i++ {
		if points[i].CumulativeHa < points[i-1].CumulativeHa {
			return fmt.Errorf("cumulative adoption decreases from %.2f ha (%d) to %.2f ha (%d)",
				points[i-1].CumulativeHa, points[i-1].Year, points[i].CumulativeHa, points[i].Year)
		}
	}
	return nil
}

// CheckNonNegativeObservations verifies that no municipality ever adopts a
// negative area.
func CheckNonNegativeObservations(obs []results.Observation) error {
	for _, o := range obs {
		if o.Hectares < 0 || o.Fraction < 0 {
			return fmt.Errorf("municipality %s, year %d: negative adoption (%.4f ha)", o.Municipality, o.Year, o.Hectares)
		}
	}
	return nil
}
