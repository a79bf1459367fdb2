package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load and cross-check all input datasets and model artifacts",
		Long: `Load every configured dataset, apply the feature transformations, and
verify referential consistency of municipality identifiers across tables.
Exits non-zero on the first integrity problem, listing every municipality
missing from any source.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			bundle, classifier, regressor, err := loadInputs(cfg)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"municipalities":      len(bundle.Municipalities),
					"payment_years":       len(bundle.Payments),
					"classifier_features": len(classifier.Features()),
					"regressor_features":  len(regressor.Features()),
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Datasets OK: %d municipalities, %d payment years\n",
				len(bundle.Municipalities), len(bundle.Payments))
			fmt.Fprintf(cmd.OutOrStdout(), "Artifacts OK: classifier (%d features), regressor (%d features)\n",
				len(classifier.Features()), len(regressor.Features()))
			return nil
		},
	}
}
