package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/giacrava/sbp-adoption-abm/internal/results"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and export its results",
		Long: `Run the model from the configured start year through the end year,
persist the run to the run store, and write the national and
per-municipality CSV exports.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if seedSet := cmd.Flags().Changed("seed"); seedSet {
				cfg.Simulation.Seed, _ = cmd.Flags().GetInt64("seed")
			}
			if cmd.Flags().Changed("end-year") {
				cfg.Simulation.EndYear, _ = cmd.Flags().GetInt("end-year")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg)

			bundle, classifier, regressor, err := loadInputs(cfg)
			if err != nil {
				return err
			}

			model, err := newModel(cfg, bundle, classifier, regressor, cfg.Simulation.Seed, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := model.Run(ctx, cfg.Simulation.EndYear); err != nil {
				return fmt.Errorf("simulation: %w", err)
			}

			national, observations := results.FromModel(model, cfg.Simulation.StartYear)

			store, err := results.NewSQLiteRunStore(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("open run store: %w", err)
			}
			defer store.Close()

			runID, err := store.SaveRun(ctx, cfg.Simulation.Seed, cfg.Simulation.StartYear, cfg.Simulation.EndYear, national, observations)
			if err != nil {
				return fmt.Errorf("persist run: %w", err)
			}

			nationalPath, obsPath, err := results.ExportRun(cfg.Store.OutputDir, runID, national, observations)
			if err != nil {
				return fmt.Errorf("export run: %w", err)
			}

			logger.Info("run complete",
				"run_id", runID,
				"seed", cfg.Simulation.Seed,
				"years", fmt.Sprintf("%d-%d", cfg.Simulation.StartYear, cfg.Simulation.EndYear),
				"cumulative_ha", model.CumulativeHaNational(),
			)

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"run_id":           runID,
					"seed":             cfg.Simulation.Seed,
					"cumulative_ha":    model.CumulativeHaNational(),
					"national_csv":     nationalPath,
					"municipality_csv": obsPath,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %d complete (seed %d). Cumulative SBP area: %.1f ha\n",
				runID, cfg.Simulation.Seed, model.CumulativeHaNational())
			fmt.Fprintf(cmd.OutOrStdout(), "Exports: %s, %s\n", nationalPath, obsPath)
			return nil
		},
	}

	cmd.Flags().Int64("seed", 0, "Override the configured random seed")
	cmd.Flags().Int("end-year", 0, "Override the configured end year")

	return cmd
}
