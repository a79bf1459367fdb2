// Package mlmodel loads the pre-trained statistical model artifacts and
// performs inference. An artifact directory holds two files:
//
//	features.csv — one row with the ordered feature names the model was
//	               trained on
//	model.json   — kind, intercept, coefficients and optional
//	               standardization parameters
//
// The artifacts are produced offline by the model-selection pipeline; this
// package only consumes them.
package mlmodel

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Model kinds accepted in model.json.
const (
	KindLogistic = "logistic"
	KindLinear   = "linear"
)

// artifactSpec is the on-disk layout of model.json.
type artifactSpec struct {
	Kind         string    `json:"kind"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`

	// Means and Scales, when present, standardize inputs before the
	// linear term: (x - mean) / scale.
	Means  []float64 `json:"means,omitempty"`
	Scales []float64 `json:"scales,omitempty"`
}

// loadArtifact reads and validates an artifact directory.
func loadArtifact(dir, wantKind string) (*linearModel, error) {
	features, err := loadFeatures(filepath.Join(dir, "features.csv"))
	if err != nil {
		return nil, err
	}

	specPath := filepath.Join(dir, "model.json")
	data, err := os.ReadFile(specPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", specPath, err)
	}
	var spec artifactSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse %s: %w", specPath, err)
	}

	if spec.Kind != wantKind {
		return nil, fmt.Errorf("%s: model kind is %q, want %q", specPath, spec.Kind, wantKind)
	}
	if len(spec.Coefficients) != len(features) {
		return nil, fmt.Errorf("%s: %d coefficients for %d features",
			specPath, len(spec.Coefficients), len(features))
	}
	if len(spec.Means) > 0 && len(spec.Means) != len(features) {
		return nil, fmt.Errorf("%s: %d means for %d features", specPath, len(spec.Means), len(features))
	}
	if len(spec.Scales) > 0 && len(spec.Scales) != len(features) {
		return nil, fmt.Errorf("%s: %d scales for %d features", specPath, len(spec.Scales), len(features))
	}
	for i, s := range spec.Scales {
		if s == 0 {
			return nil, fmt.Errorf("%s: zero scale for feature %s", specPath, features[i])
		}
	}

	return newLinearModel(features, spec), nil
}

// loadFeatures reads the single-row features.csv listing feature names in
// training order.
func loadFeatures(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%s: no feature names", path)
	}
	return rows[0], nil
}

// LoadClassifier loads the adoption classifier from dir.
func LoadClassifier(dir string) (*Classifier, error) {
	m, err := loadArtifact(dir, KindLogistic)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	return &Classifier{linearModel: *m}, nil
}

// LoadRegressor loads the adoption-area regressor from dir.
func LoadRegressor(dir string) (*Regressor, error) {
	m, err := loadArtifact(dir, KindLinear)
	if err != nil {
		return nil, fmt.Errorf("regressor: %w", err)
	}
	return &Regressor{linearModel: *m}, nil
}
