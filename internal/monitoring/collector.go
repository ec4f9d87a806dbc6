// Package monitoring watches run history and raises alerts when the sync
// pipeline degrades.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/wearlab/sensorsync/internal/model"
	"github.com/wearlab/sensorsync/internal/store"
)

// maxRunsScan bounds how much history one snapshot reads.
const maxRunsScan = 1000

// Snapshot holds a point-in-time view of sync health. Counters cover runs
// started within the lookback window; running-run fields are current state
// and ignore the window.
type Snapshot struct {
	RunsTotal    int `json:"runs_total"`
	RunsComplete int `json:"runs_complete"`
	RunsFailed   int `json:"runs_failed"`
	RunsRunning  int `json:"runs_running"`

	ArtifactsPlanned   int64   `json:"artifacts_planned"`
	ArtifactsSucceeded int64   `json:"artifacts_succeeded"`
	ArtifactsFailed    int64   `json:"artifacts_failed"`
	ArtifactsCopied    int64   `json:"artifacts_copied"`
	ArtifactFailRate   float64 `json:"artifact_fail_rate"`

	OldestRunningStart *time.Time `json:"oldest_running_start,omitempty"`
	LastRunAt          *time.Time `json:"last_run_at,omitempty"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector aggregates run history into snapshots.
type Collector struct {
	store store.Store
}

// NewCollector creates a metrics collector over the run-history store.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot over the given lookback window. A non-positive
// lookback defaults to 24 hours.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	if lookbackHours <= 0 {
		lookbackHours = 24
	}
	snap := &Snapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}
	cutoff := snap.CollectedAt.Add(-time.Duration(lookbackHours) * time.Hour)

	runs, err := c.store.ListRuns(ctx, maxRunsScan)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	for i := range runs {
		r := &runs[i]

		if snap.LastRunAt == nil || r.StartedAt.After(*snap.LastRunAt) {
			t := r.StartedAt
			snap.LastRunAt = &t
		}

		// A stuck run matters precisely because it is old, so the lookback
		// window does not apply here.
		if r.Status == model.RunStatusRunning {
			snap.RunsRunning++
			if snap.OldestRunningStart == nil || r.StartedAt.Before(*snap.OldestRunningStart) {
				t := r.StartedAt
				snap.OldestRunningStart = &t
			}
		}

		if r.StartedAt.Before(cutoff) {
			continue
		}
		snap.RunsTotal++
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
		case model.RunStatusFailed:
			snap.RunsFailed++
		}
		snap.ArtifactsPlanned += r.Planned
		snap.ArtifactsSucceeded += r.Succeeded
		snap.ArtifactsFailed += r.Failed
		snap.ArtifactsCopied += r.Copied
	}

	// Failed share of the artifacts actually attempted; planned-but-skipped
	// artifacts from aborted runs do not count against the rate.
	attempted := snap.ArtifactsSucceeded + snap.ArtifactsFailed + snap.ArtifactsCopied
	if attempted > 0 {
		snap.ArtifactFailRate = float64(snap.ArtifactsFailed) / float64(attempted)
	}

	return snap, nil
}
