package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giacrava/sbp-adoption-abm/internal/results"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run-id]",
		Short: "Re-export a persisted run from the store to CSV",
		Long: `Without arguments, list the persisted runs. With a run id, write the
run's national and per-municipality CSV files to the output directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			store, err := results.NewSQLiteRunStore(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("open run store: %w", err)
			}
			defer store.Close()

			ctx := context.Background()
			jsonOut, _ := cmd.Flags().GetBool("json")

			if len(args) == 0 {
				runs, err := store.ListRuns(ctx)
				if err != nil {
					return err
				}
				if jsonOut {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No persisted runs.")
					return nil
				}
				for _, r := range runs {
					fmt.Fprintf(cmd.OutOrStdout(), "run %d: seed %d, %d-%d, created %s\n",
						r.ID, r.Seed, r.StartYear, r.EndYear, r.CreatedAt.Format("2006-01-02 15:04"))
				}
				return nil
			}

			var runID int64
			if _, err := fmt.Sscanf(args[0], "%d", &runID); err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}

			run, err := store.GetRun(ctx, runID)
			if err != nil {
				return err
			}
			national, err := store.NationalSeries(ctx, runID)
			if err != nil {
				return err
			}
			observations, err := store.Observations(ctx, runID)
			if err != nil {
				return err
			}

			nationalPath, obsPath, err := results.ExportRun(cfg.Store.OutputDir, run.ID, national, observations)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"national_csv":     nationalPath,
					"municipality_csv": obsPath,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported run %d: %s, %s\n", run.ID, nationalPath, obsPath)
			return nil
		},
	}

	return cmd
}
