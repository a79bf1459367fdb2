package mlmodel

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// linearModel is the shared machinery of both artifacts: an ordered feature
// list, optional standardization, and a linear term computed with gonum.
type linearModel struct {
	features  []string
	coef      *mat.VecDense
	intercept float64
	means     []float64
	scales    []float64
}

func newLinearModel(features []string, spec artifactSpec) *linearModel {
	return &linearModel{
		features:  features,
		coef:      mat.NewVecDense(len(spec.Coefficients), spec.Coefficients),
		intercept: spec.Intercept,
		means:     spec.Means,
		scales:    spec.Scales,
	}
}

// Features returns the feature names in training order.
func (m *linearModel) Features() []string {
	out := make([]string, len(m.features))
	copy(out, m.features)
	return out
}

// decision computes intercept + coef · standardize(x).
func (m *linearModel) decision(x []float64) (float64, error) {
	if len(x) != len(m.features) {
		return 0, fmt.Errorf("feature vector has %d values, model expects %d", len(x), len(m.features))
	}

	v := make([]float64, len(x))
	copy(v, x)
	if len(m.means) > 0 {
		for i := range v {
			v[i] -= m.means[i]
		}
	}
	if len(m.scales) > 0 {
		for i := range v {
			v[i] /= m.scales[i]
		}
	}

	return m.intercept + mat.Dot(m.coef, mat.NewVecDense(len(v), v)), nil
}

// Classifier is the logistic model estimating the probability that a
// municipality adopts SBP in a year.
type Classifier struct {
	linearModel
}

// PredictProba returns the adoption probability for an ordered feature vector.
func (c *Classifier) PredictProba(x []float64) (float64, error) {
	z, err := c.decision(x)
	if err != nil {
		return 0, err
	}
	return 1 / (1 + math.Exp(-z)), nil
}

// Regressor is the linear model estimating the fraction of the reference
// pastures area switched to SBP, given that adoption happens.
type Regressor struct {
	linearModel
}

// Predict returns the estimated adoption fraction for an ordered feature
// vector. The value may be negative; callers clamp it.
func (r *Regressor) Predict(x []float64) (float64, error) {
	return r.decision(x)
}

// BuildVector assembles the values for the named features in order, pulling
// each one from lookup. Every unresolvable feature is collected; any at all
// is an error naming them, so a broken dataset fails loudly rather than
// feeding zeros to the models.
func BuildVector(features []string, lookup func(name string) (float64, bool)) ([]float64, error) {
	x := make([]float64, len(features))
	var missing []string
	for i, name := range features {
		v, ok := lookup(name)
		if !ok || math.IsNaN(v) {
			missing = append(missing, name)
			continue
		}
		x[i] = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("features missing for model input: %s", strings.Join(missing, ", "))
	}
	return x, nil
}
