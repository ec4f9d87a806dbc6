package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wearlab/sensorsync/internal/model"
	"github.com/wearlab/sensorsync/internal/reconcile"
	"github.com/wearlab/sensorsync/internal/store"
)

// Runner executes a reconciliation plan with a bounded worker pool and,
// when a store is configured, records the run and its artifacts.
type Runner struct {
	proc    *Processor
	history store.Store
	workers int
	log     *zap.Logger
}

// NewRunner creates a Runner. history may be nil to disable run recording;
// workers below 1 is treated as 1.
func NewRunner(proc *Processor, history store.Store, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		proc:    proc,
		history: history,
		workers: workers,
		log:     zap.L().With(zap.String("component", "pipeline")),
	}
}

// Summary aggregates the outcome of a batch.
type Summary struct {
	RunID     string
	Planned   int
	Succeeded int64
	Failed    int64
	Copied    int64
	Duration  time.Duration
}

// Err returns a batch-level error when any artifact failed, nil otherwise.
func (s Summary) Err() error {
	if s.Failed > 0 {
		return eris.Errorf("pipeline: %d of %d artifacts failed", s.Failed, s.Planned)
	}
	return nil
}

// Run processes every artifact in the plan. Individual failures are logged
// and counted but do not abort the batch; the context cancels it as a whole.
func (r *Runner) Run(ctx context.Context, plan reconcile.Plan) (Summary, error) {
	start := time.Now()
	summary := Summary{Planned: plan.Total()}

	run, err := r.createRun(ctx, plan.Total())
	if err != nil {
		return summary, err
	}
	if run != nil {
		summary.RunID = run.ID
	}

	r.log.Info("processing batch",
		zap.Int("process", len(plan.Process)),
		zap.Int("copy_through", len(plan.CopyThrough)),
		zap.Int("workers", r.workers))

	var succeeded, failed, copied atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	handle := func(ref model.RawRef) {
		g.Go(func() error {
			log := r.log.With(zap.String("artifact", ref.Name))

			res := r.proc.Process(gctx, ref)
			if res.Err != nil {
				failed.Add(1)
				log.Error("artifact failed",
					zap.String("state", string(res.State)),
					zap.Error(res.Err))
			} else {
				succeeded.Add(1)
				if ref.Location() {
					copied.Add(1)
				}
				log.Info("artifact processed",
					zap.Int("records_in", res.RecordsIn),
					zap.Int("records_out", res.RecordsOut),
					zap.Int("outputs", res.Outputs),
					zap.Duration("took", res.Duration))
			}
			r.recordArtifact(gctx, summary.RunID, res)
			return nil // individual failures don't abort the batch
		})
	}

	for _, ref := range plan.Process {
		handle(ref)
	}
	for _, ref := range plan.CopyThrough {
		handle(ref)
	}

	if err := g.Wait(); err != nil {
		return summary, eris.Wrap(err, "pipeline: batch aborted")
	}

	summary.Succeeded = succeeded.Load()
	summary.Failed = failed.Load()
	summary.Copied = copied.Load()
	summary.Duration = time.Since(start)

	r.completeRun(ctx, run, summary)

	r.log.Info("batch complete",
		zap.Int("planned", summary.Planned),
		zap.Int64("succeeded", summary.Succeeded),
		zap.Int64("failed", summary.Failed),
		zap.Int64("copied", summary.Copied),
		zap.Duration("took", summary.Duration))

	return summary, nil
}

func (r *Runner) createRun(ctx context.Context, planned int) (*model.BatchRun, error) {
	if r.history == nil {
		return nil, nil
	}
	run, err := r.history.CreateRun(ctx, int64(planned))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	return run, nil
}

func (r *Runner) recordArtifact(ctx context.Context, runID string, res Result) {
	if r.history == nil {
		return
	}
	if err := r.history.RecordArtifact(ctx, res.ArtifactResult(runID)); err != nil {
		r.log.Warn("failed to record artifact",
			zap.String("artifact", res.Name), zap.Error(err))
	}
}

func (r *Runner) completeRun(ctx context.Context, run *model.BatchRun, summary Summary) {
	if r.history == nil || run == nil {
		return
	}
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.Succeeded = summary.Succeeded
	run.Failed = summary.Failed
	run.Copied = summary.Copied
	if summary.Failed > 0 {
		run.Status = model.RunStatusFailed
		run.Error = summary.Err().Error()
	} else {
		run.Status = model.RunStatusComplete
	}
	if err := r.history.CompleteRun(ctx, run); err != nil {
		r.log.Warn("failed to complete run", zap.String("run_id", run.ID), zap.Error(err))
	}
}
