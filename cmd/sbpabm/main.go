package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "sbpabm",
		Short: "Agent-based model of SBP adoption in Portugal",
		Long: `sbpabm simulates the yearly adoption of Sown Biodiverse Pastures (SBP)
by Portuguese municipalities under the Portuguese Carbon Fund payment
program.

Each municipality is an agent consulting pre-trained statistical models to
decide its yearly adoption increment. Runs are deterministic for a given
seed and input datasets.`,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "sbpabm.yaml", "Configuration file path")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newCheckCmd(),
		newRunCmd(),
		newValidateCmd(),
		newExportCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
			} else {
				fmt.Printf("sbpabm version %s\n", version)
			}
		},
	}
}
