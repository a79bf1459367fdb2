// Package config provides unified configuration loading for the simulation.
// It supports loading from YAML files with ${VAR} environment expansion.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config contains all settings for the simulation tool.
type Config struct {
	// Data locates every input dataset and model artifact.
	Data DataConfig `json:"data" yaml:"data"`

	// Simulation controls the run itself.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Store configures run persistence and exports.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Serve configures the interactive map server.
	Serve ServeConfig `json:"serve" yaml:"serve"`
}

// DataConfig holds paths to the input datasets and model artifacts.
// Paths support ${VAR} syntax for environment variables.
type DataConfig struct {
	// BoundariesPath is the municipalities GeoJSON file.
	BoundariesPath string `json:"boundaries" yaml:"boundaries"`

	// CensusPath is the census covariates CSV, keyed by municipality and year.
	CensusPath string `json:"census" yaml:"census"`

	// ClimatePath is the average climate CSV, keyed by municipality.
	ClimatePath string `json:"climate" yaml:"climate"`

	// SoilPath is the soil properties CSV, keyed by municipality.
	SoilPath string `json:"soil" yaml:"soil"`

	// PasturesPath is the yearly permanent pastures area CSV.
	PasturesPath string `json:"pastures" yaml:"pastures"`

	// AdoptionPath is the wide CSV of historical yearly adoption fractions.
	AdoptionPath string `json:"adoption" yaml:"adoption"`

	// PaymentsPath is the PCF payment schedule (.xlsx or .csv).
	PaymentsPath string `json:"payments" yaml:"payments"`

	// ClassifierDir holds the adoption classifier artifact
	// (model.json + features.csv).
	ClassifierDir string `json:"classifier" yaml:"classifier"`

	// RegressorDir holds the adoption-area regressor artifact.
	RegressorDir string `json:"regressor" yaml:"regressor"`
}

// SimulationConfig controls the timespan and determinism of a run.
type SimulationConfig struct {
	// StartYear is the first simulated year. Must be >= 1996.
	StartYear int `json:"start_year" yaml:"start_year"`

	// EndYear is the last simulated year (inclusive).
	EndYear int `json:"end_year" yaml:"end_year"`

	// Seed drives the pseudo-random adoption draws. Runs with equal
	// inputs and equal seeds produce identical output.
	Seed int64 `json:"seed" yaml:"seed"`

	// Runs is the number of replicate runs used by the validate command.
	Runs int `json:"runs" yaml:"runs"`
}

// StoreConfig configures run persistence and CSV export.
type StoreConfig struct {
	// Path is the SQLite database holding persisted runs.
	Path string `json:"path" yaml:"path"`

	// OutputDir receives CSV exports and decision traces.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables decision logging to <output_dir>/decisions.jsonl.
	// "trace" additionally includes full feature vectors.
	Level string `json:"level" yaml:"level"`
}

// ServeConfig configures the interactive map server.
type ServeConfig struct {
	// Addr is the listen address. Empty means localhost with an
	// OS-assigned port.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			BoundariesPath: "data/municipalities.geojson",
			CensusPath:     "data/census_data_for_abm.csv",
			ClimatePath:    "data/municipalities_average_climate_final.csv",
			SoilPath:       "data/municipalities_soil_final.csv",
			PasturesPath:   "data/yearly_permanent_pastures_area.csv",
			AdoptionPath:   "data/yearly_sbp_adoption_per_municipality.csv",
			PaymentsPath:   "data/sbp_payments.xlsx",
			ClassifierDir:  "ml_model/classifier",
			RegressorDir:   "ml_model/regressor",
		},
		Simulation: SimulationConfig{
			StartYear: 1996,
			EndYear:   2012,
			Seed:      1,
			Runs:      30,
		},
		Store: StoreConfig{
			Path:      "results/runs.db",
			OutputDir: "results",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a YAML file, applying defaults for
// missing sections and expanding ${VAR} references in data paths.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.expandEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load returns the configuration from path if it exists, otherwise defaults.
// An empty path always yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFromFile(path)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Simulation.StartYear < 1996 {
		return fmt.Errorf("simulation.start_year %d: the model cannot start before 1996", c.Simulation.StartYear)
	}
	if c.Simulation.EndYear < c.Simulation.StartYear {
		return fmt.Errorf("simulation.end_year %d precedes start_year %d", c.Simulation.EndYear, c.Simulation.StartYear)
	}
	if c.Simulation.Runs < 1 {
		return fmt.Errorf("simulation.runs must be >= 1, got %d", c.Simulation.Runs)
	}
	return nil
}

// expandEnv expands ${VAR} references in all path fields.
func (c *Config) expandEnv() {
	paths := []*string{
		&c.Data.BoundariesPath,
		&c.Data.CensusPath,
		&c.Data.ClimatePath,
		&c.Data.SoilPath,
		&c.Data.PasturesPath,
		&c.Data.AdoptionPath,
		&c.Data.PaymentsPath,
		&c.Data.ClassifierDir,
		&c.Data.RegressorDir,
		&c.Store.Path,
		&c.Store.OutputDir,
	}
	for _, p := range paths {
		*p = os.ExpandEnv(*p)
	}
}
