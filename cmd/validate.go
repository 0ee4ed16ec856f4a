package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opencivic/event-siting/internal/loader"
	"github.com/opencivic/event-siting/internal/siting"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the scoring configuration against the indicator table",
	Long: `Validate the configured indicators, weights, and thresholds, then load
the indicator table's header and confirm every configured indicator exists in
the dataset's schema. No scoring work is performed.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := siting.ValidateConfig(cfg.Siting); err != nil {
			return err
		}

		table, err := loader.LoadIndicatorTable(cfg.Inputs.IndicatorPath, cfg.Inputs.IndicatorGEOIDColumn)
		if err != nil {
			return err
		}
		if err := siting.CheckSchema(cfg.Siting, table.Columns()); err != nil {
			return err
		}

		fmt.Printf("Configuration OK: %d indicators against %d tract rows (%d columns)\n",
			len(cfg.Siting.Indicators), table.Len(), len(table.Columns()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
