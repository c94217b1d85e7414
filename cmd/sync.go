package main

import (
	"github.com/spf13/cobra"

	"github.com/squad-relic/relic-sync/internal/relicsync"
)

var (
	syncRefreshSets   bool
	syncRefreshRelics bool
	syncAssumeStale   bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the full audit-fetch-derive-write pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		engine, st, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		state, err := engine.Run(ctx, relicsync.Options{
			TriggeredBy:        "cli",
			AssumeStale:        syncAssumeStale,
			RefreshSetPrices:   syncRefreshSets,
			RefreshRelicPrices: syncRefreshRelics,
		})
		if err != nil {
			return err
		}

		return printState(cmd.OutOrStdout(), state)
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncRefreshSets, "refresh-set-prices", false, "re-project set prices from current raw prices after the sync")
	syncCmd.Flags().BoolVar(&syncRefreshRelics, "refresh-relic-prices", false, "re-project relic prices from current raw prices after the sync")
	syncCmd.Flags().BoolVar(&syncAssumeStale, "assume-stale", false, "force a full price update even when prices look fresh")
	rootCmd.AddCommand(syncCmd)
}
