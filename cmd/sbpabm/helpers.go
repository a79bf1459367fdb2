package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/giacrava/sbp-adoption-abm/internal/config"
	"github.com/giacrava/sbp-adoption-abm/internal/dataset"
	"github.com/giacrava/sbp-adoption-abm/internal/logging"
	"github.com/giacrava/sbp-adoption-abm/internal/mlmodel"
	"github.com/giacrava/sbp-adoption-abm/internal/sim"
)

// loadConfig resolves the --config flag into a configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// loadInputs loads the dataset bundle and both model artifacts.
func loadInputs(cfg *config.Config) (*dataset.Bundle, *mlmodel.Classifier, *mlmodel.Regressor, error) {
	bundle, err := dataset.Load(cfg.Data, cfg.Simulation.StartYear)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load datasets: %w", err)
	}

	classifier, err := mlmodel.LoadClassifier(cfg.Data.ClassifierDir)
	if err != nil {
		return nil, nil, nil, err
	}
	regressor, err := mlmodel.LoadRegressor(cfg.Data.RegressorDir)
	if err != nil {
		return nil, nil, nil, err
	}

	return bundle, classifier, regressor, nil
}

// newModel assembles a model with the configured logging wired in.
func newModel(cfg *config.Config, bundle *dataset.Bundle, classifier *mlmodel.Classifier, regressor *mlmodel.Regressor, seed int64, logger *slog.Logger) (*sim.Model, error) {
	decisions := logging.NewDecisionLogger(cfg.Store.OutputDir, cfg.Logging.Level)

	return sim.New(bundle, classifier, regressor, sim.Params{
		StartYear: cfg.Simulation.StartYear,
		Seed:      seed,
		Logger:    logger,
		Decisions: decisions,
	})
}

// newLogger builds the operational logger from the configuration.
func newLogger(cfg *config.Config) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, os.Stderr)
}
