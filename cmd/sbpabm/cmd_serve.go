package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/giacrava/sbp-adoption-abm/internal/visualization"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive adoption map",
		Long: `Start a local server rendering the municipality choropleth. Each press
of the step button simulates one more year. Prometheus metrics are exposed
on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Serve.Addr, _ = cmd.Flags().GetString("addr")
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

			server := visualization.NewServer(model, bundle.Municipalities, cfg.Simulation.EndYear, cfg.Serve.Addr)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- server.ListenAndServe(ctx) }()

			// Wait for the listener to come up so we can print the address.
			for server.Addr() == "" {
				select {
				case err := <-errCh:
					return err
				case <-time.After(10 * time.Millisecond):
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving SBP adoption map at http://%s (Ctrl-C to stop)\n", server.Addr())

			return <-errCh
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default: localhost with an OS-assigned port)")

	return cmd
}
