package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/giacrava/sbp-adoption-abm/internal/dataset"
	"github.com/giacrava/sbp-adoption-abm/internal/sim"
	"github.com/giacrava/sbp-adoption-abm/internal/validation"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run replicate simulations and compare against observed adoption",
		Long: `Run the configured number of replicate simulations with consecutive
seeds, aggregate the national series across runs, and report RMSE, MAE and
R² of the mean cumulative series against the observed historical record.
The aggregated statistics are written as CSV to the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("runs") {
				cfg.Simulation.Runs, _ = cmd.Flags().GetInt("runs")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg)

			bundle, classifier, regressor, err := loadInputs(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("validation started", "runs", cfg.Simulation.Runs, "base_seed", cfg.Simulation.Seed)

			multi, err := validation.RunMany(ctx, cfg.Simulation.Runs, cfg.Simulation.Seed, cfg.Simulation.EndYear,
				func(seed int64) (*sim.Model, error) {
					return newModel(cfg, bundle, classifier, regressor, seed, logger)
				})
			if err != nil {
				return err
			}

			for i, series := range multi.Series {
				if err := validation.CheckNonDecreasingCumulative(series); err != nil {
					return fmt.Errorf("run %d (seed %d): %w", i, multi.Seeds[i], err)
				}
			}

			stats, err := validation.Aggregate(multi.Series)
			if err != nil {
				return fmt.Errorf("aggregate runs: %w", err)
			}

			// The observed record needs the full historical span, not the
			// start-year-truncated table the simulation consumed.
			fullAdoption, err := dataset.LoadAdoption(cfg.Data.AdoptionPath, math.MaxInt32)
			if err != nil {
				return fmt.Errorf("observed adoption: %w", err)
			}
			observed, err := validation.ObservedNational(fullAdoption, bundle.Pastures)
			if err != nil {
				return fmt.Errorf("observed national series: %w", err)
			}

			metrics, err := validation.Compare(stats, observed)
			if err != nil {
				return fmt.Errorf("compare series: %w", err)
			}

			if err := os.MkdirAll(cfg.Store.OutputDir, 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			statsPath := filepath.Join(cfg.Store.OutputDir, "validation_stats.csv")
			f, err := os.Create(statsPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", statsPath, err)
			}
			defer f.Close()
			if err := validation.WriteStatsCSV(f, stats); err != nil {
				return fmt.Errorf("write %s: %w", statsPath, err)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"runs":          cfg.Simulation.Runs,
					"matched_years": metrics.Years,
					"rmse_ha":       metrics.RMSE,
					"mae_ha":        metrics.MAE,
					"r2":            metrics.R2,
					"stats_csv":     statsPath,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d runs, %d matched years\n", cfg.Simulation.Runs, metrics.Years)
			fmt.Fprintf(cmd.OutOrStdout(), "RMSE: %.1f ha\nMAE:  %.1f ha\nR²:   %.4f\n", metrics.RMSE, metrics.MAE, metrics.R2)
			fmt.Fprintf(cmd.OutOrStdout(), "Aggregated statistics: %s\n", statsPath)
			return nil
		},
	}

	cmd.Flags().Int("runs", 0, "Override the configured number of replicate runs")

	return cmd
}
