package sim

import "github.com/giacrava/sbp-adoption-abm/internal/dataset"

// Environment holds the static climate and soil covariates of one
// municipality. They never change during a run.
type Environment struct {
	Climate dataset.Features
	Soil    dataset.Features
}

// feature resolves a named covariate from climate first, then soil.
func (e *Environment) feature(name string) (float64, bool) {
	if v, ok := e.Climate[name]; ok {
		return v, true
	}
	v, ok := e.Soil[name]
	return v, ok
}
