package main

import (
	"os"
	"runtime/pprof"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/squad-relic/relic-sync/internal/relicsync"
)

var profileOut string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Run the full pipeline under CPU profiling",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		engine, st, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		f, err := os.Create(profileOut)
		if err != nil {
			return eris.Wrapf(err, "create profile %s", profileOut)
		}
		defer f.Close() //nolint:errcheck

		if err := pprof.StartCPUProfile(f); err != nil {
			return eris.Wrap(err, "start cpu profile")
		}
		defer pprof.StopCPUProfile()

		state, err := engine.Run(ctx, relicsync.Options{TriggeredBy: "profile", AssumeStale: true})
		if err != nil {
			return err
		}

		zap.L().Info("profiled run finished",
			zap.String("profile", profileOut),
			zap.Bool("clean", state.Clean()))
		return nil
	},
}

func init() {
	profileCmd.Flags().StringVar(&profileOut, "out", "relic-sync.pprof", "cpu profile output path")
	rootCmd.AddCommand(profileCmd)
}
