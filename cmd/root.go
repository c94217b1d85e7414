package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/squad-relic/relic-sync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "relic-sync",
	Short: "Market-data catalog synchronization engine",
	Long:  "Audits the local prime-part, set, and relic collections against the warframe.market catalog, fetches what is missing or stale under a rate budget, derives composite documents, and writes them back idempotently.",
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
