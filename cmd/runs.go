package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opencivic/event-siting/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded siting runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		limit, _ := cmd.Flags().GetInt("limit")

		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		fmt.Printf("%-34s %-20s %-8s %-10s %-10s %s\n",
			"RUN ID", "NAME", "POIS", "MATCHED", "UNMATCHED", "STARTED")
		for _, r := range runs {
			fmt.Printf("%-34s %-20s %-8d %-10d %-10d %s\n",
				r.RunID, truncate(r.RunName, 20), r.TotalPOIs, r.Matched, r.Unmatched,
				r.StartedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}
