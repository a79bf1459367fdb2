package results

import (
	"sort"

	"github.com/giacrava/sbp-adoption-abm/internal/sim"
)

// FromModel extracts the persistable output of a finished model: the
// collected national series and the per-municipality observations for the
// simulated years (startYear through the model's current year, exclusive).
func FromModel(m *sim.Model, startYear int) ([]NationalPoint, []Observation) {
	var national []NationalPoint
	for _, rec := range m.Records() {
		national = append(national, NationalPoint{
			Year:         rec.Year,
			YearlyHa:     rec.YearlyHa,
			CumulativeHa: rec.CumulativeHa,
		})
	}

	var obs []Observation
	for _, agent := range m.Municipalities() {
		fractions := agent.YearlyFraction()
		hectares := agent.YearlyHa()

		years := make([]int, 0, len(fractions))
		for y := range fractions {
			if y >= startYear && y < m.Year() {
				years = append(years, y)
			}
		}
		sort.Ints(years)

		for _, y := range years {
			obs = append(obs, Observation{
				Municipality: agent.Name(),
				Year:         y,
				Fraction:     fractions[y],
				Hectares:     hectares[y],
			})
		}
	}
	return national, obs
}
