package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opencivic/event-siting/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "event-siting",
	Short: "Ranks points of interest as community outreach event sites",
	Long:  "Joins points of interest to the census tracts containing them, scores each site from weighted tract-level indicators, and exports a ranked GeoJSON/CSV result set.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
