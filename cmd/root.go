package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wearlab/sensorsync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sensorsync",
	Short: "Wearable biosensor recording pipeline",
	Long:  "Parses raw biosensor recordings into per-signal time series, reconciles raw against parsed artifacts in blob storage, and reports sampling health.",
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
