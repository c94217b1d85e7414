package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/squad-relic/relic-sync/internal/relicsync"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Audit the local collections without writing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		engine, st, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		state, err := engine.Status(ctx)
		if err != nil {
			return err
		}
		if err := printState(cmd.OutOrStdout(), state); err != nil {
			return err
		}

		runs, err := st.ListRuns(ctx, statusLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTRIGGER\tSTATUS\tSTARTED\tROWS\tERROR")
		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				run.ID, run.TriggeredBy, run.Status,
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.RowsWritten, run.Error)
		}
		return w.Flush()
	},
}

func printState(out io.Writer, state relicsync.SyncState) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COLLECTION\tINTACT\tPRESENT\tCOUNT")
	fmt.Fprintf(w, "raw\t%t\t%t\t%d\n", state.RawIntact, state.RawPresent, state.Catalog.Total())
	fmt.Fprintf(w, "sets\t%t\t%t\t%d\n", state.SetsIntact, state.SetsPresent, len(state.Catalog.Sets))
	fmt.Fprintf(w, "relics\t%t\t%t\t%d\n", state.RelicsIntact, state.RelicsPresent, len(state.Catalog.Relics))
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "prices fresh: %t (audited %s)\n",
		state.PricesFresh, state.ObservedAt.Format("2006-01-02 15:04:05"))
	return err
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of recent runs to list")
	rootCmd.AddCommand(statusCmd)
}
