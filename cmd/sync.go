package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncSubject string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Process raw recordings missing from the parsed side",
	Long:  "Diffs the raw and parsed listings, runs the parse pipeline for every missing artifact, uploads the results, and records the run. Exits non-zero when any artifact fails.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initSync(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		plan, err := buildPlan(ctx, env.Blob, env.Codec, syncSubject)
		if err != nil {
			return err
		}
		if plan.Empty() {
			zap.L().Info("no unparsed artifacts found",
				zap.Int("up_to_date", plan.UpToDate),
				zap.Int("ignored", plan.Ignored))
			return nil
		}

		summary, err := env.Runner.Run(ctx, plan)
		if err != nil {
			return err
		}
		return summary.Err()
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncSubject, "subject", "", "only sync recordings of this subject")
	rootCmd.AddCommand(syncCmd)
}
