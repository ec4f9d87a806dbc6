package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wearlab/sensorsync/internal/reconcile"
)

var planSubject string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what sync would process, without touching anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initSync(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		plan, err := buildPlan(ctx, env.Blob, env.Codec, planSubject)
		if err != nil {
			return err
		}

		formatPlan(os.Stdout, plan)
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planSubject, "subject", "", "only plan recordings of this subject")
	rootCmd.AddCommand(planCmd)
}

// formatPlan writes the work list and the bucket counts to out.
func formatPlan(out io.Writer, plan reconcile.Plan) {
	if plan.Empty() {
		_, _ = fmt.Fprintln(out, "Nothing to process.")
	}
	if len(plan.Process) > 0 {
		_, _ = fmt.Fprintf(out, "Process (%d):\n", len(plan.Process))
		for _, ref := range plan.Process {
			_, _ = fmt.Fprintf(out, "  %s\n", ref.Name)
		}
	}
	if len(plan.CopyThrough) > 0 {
		_, _ = fmt.Fprintf(out, "Copy through (%d):\n", len(plan.CopyThrough))
		for _, ref := range plan.CopyThrough {
			_, _ = fmt.Fprintf(out, "  %s\n", ref.Name)
		}
	}
	_, _ = fmt.Fprintf(out, "Up to date: %d, duplicates: %d, ignored: %d\n",
		plan.UpToDate, plan.Duplicates, plan.Ignored)
}
