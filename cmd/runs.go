package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/wearlab/sensorsync/internal/model"
	"github.com/wearlab/sensorsync/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect sync run history",
	Long:  "Commands for listing and viewing recorded batch runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("runs"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its artifact outcomes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("runs"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := findRun(ctx, st, args[0])
		if err != nil {
			return err
		}
		artifacts, err := st.ListArtifacts(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		out := struct {
			Run       model.BatchRun         `json:"run"`
			Artifacts []model.ArtifactResult `json:"artifacts"`
		}{*run, artifacts}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// findRun resolves a run by full ID or unique ID prefix.
func findRun(ctx context.Context, st store.Store, id string) (*model.BatchRun, error) {
	runs, err := st.ListRuns(ctx, 1000)
	if err != nil {
		return nil, eris.Wrap(err, "runs show")
	}

	var found *model.BatchRun
	for i := range runs {
		if runs[i].ID != id && !strings.HasPrefix(runs[i].ID, id) {
			continue
		}
		if found != nil {
			return nil, eris.Errorf("run id %q is ambiguous", id)
		}
		found = &runs[i]
	}
	if found == nil {
		return nil, eris.Errorf("no run matching %q", id)
	}
	return found, nil
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.BatchRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tPLANNED\tOK\tFAILED\tCOPIED\tSTARTED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t------\t-------\t--\t------\t------\t-------\t--------")

	for _, r := range runs {
		dur := "-"
		if r.CompletedAt != nil {
			dur = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			truncateID(r.ID),
			r.Status,
			r.Planned,
			r.Succeeded,
			r.Failed,
			r.Copied,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
