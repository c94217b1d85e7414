package main

import (
	"github.com/spf13/cobra"

	"github.com/squad-relic/relic-sync/internal/relicsync"
)

var (
	refreshSetsOnly   bool
	refreshRelicsOnly bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-project stored documents against current raw prices",
	Long:  "The cheap path for \"prices changed, composition didn't\": updates set and relic price pairs from the raw collection without re-deriving structure.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		engine, st, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		// Neither flag set means both collections.
		sets, relics := refreshSetsOnly, refreshRelicsOnly
		if !sets && !relics {
			sets, relics = true, true
		}

		state, err := engine.Run(ctx, relicsync.Options{
			TriggeredBy:        "cli",
			RefreshSetPrices:   sets,
			RefreshRelicPrices: relics,
		})
		if err != nil {
			return err
		}
		return printState(cmd.OutOrStdout(), state)
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshSetsOnly, "sets", false, "refresh set prices only")
	refreshCmd.Flags().BoolVar(&refreshRelicsOnly, "relics", false, "refresh relic prices only")
	rootCmd.AddCommand(refreshCmd)
}
