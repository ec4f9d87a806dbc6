package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/wearlab/sensorsync/internal/db"
	"github.com/wearlab/sensorsync/internal/model"
)

// PostgresStore implements Store using a pgx connection pool, for
// deployments where several workers share one history.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.Config) (*PostgresStore, error) {
	pool, err := db.NewPool(ctx, connString, poolCfg)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sync_runs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	planned      BIGINT NOT NULL DEFAULT 0,
	succeeded    BIGINT NOT NULL DEFAULT 0,
	failed       BIGINT NOT NULL DEFAULT 0,
	copied       BIGINT NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE TABLE IF NOT EXISTS sync_artifacts (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES sync_runs(id),
	name        TEXT NOT NULL,
	state       TEXT NOT NULL,
	records_in  BIGINT NOT NULL DEFAULT 0,
	records_out BIGINT NOT NULL DEFAULT 0,
	outputs     BIGINT NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	error       TEXT,
	recorded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at);
CREATE INDEX IF NOT EXISTS idx_sync_artifacts_run_id ON sync_artifacts(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, planned int64) (*model.BatchRun, error) {
	run := &model.BatchRun{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Status:    model.RunStatusRunning,
		Planned:   planned,
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sync_runs (id, status, started_at, planned) VALUES ($1, $2, $3, $4)`,
		run.ID, string(run.Status), run.StartedAt, planned,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return run, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, run *model.BatchRun) error {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE sync_runs
		 SET status = $1, completed_at = $2, succeeded = $3, failed = $4, copied = $5, error = $6
		 WHERE id = $7`,
		string(run.Status), now, run.Succeeded, run.Failed, run.Copied, run.Error, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", run.ID)
	}
	run.CompletedAt = &now
	return nil
}

func (s *PostgresStore) RecordArtifact(ctx context.Context, res model.ArtifactResult) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sync_artifacts
		 (id, run_id, name, state, records_in, records_out, outputs, duration_ms, error, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		res.ID, res.RunID, res.Name, string(res.State),
		res.RecordsIn, res.RecordsOut, res.Outputs, res.DurationMS, res.Error, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert artifact %s", res.Name)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.BatchRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, started_at, completed_at, planned, succeeded, failed, copied, error
		 FROM sync_runs ORDER BY started_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.BatchRun
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) ListArtifacts(ctx context.Context, runID string) ([]model.ArtifactResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, name, state, records_in, records_out, outputs, duration_ms, error
		 FROM sync_artifacts WHERE run_id = $1 ORDER BY recorded_at, name`, runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list artifacts for %s", runID)
	}
	defer rows.Close()

	var results []model.ArtifactResult
	for rows.Next() {
		a, err := scanPgArtifact(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *a)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list artifacts iterate")
}

func scanPgRun(rows pgx.Rows) (*model.BatchRun, error) {
	var r model.BatchRun
	var status string
	var completed *time.Time
	var errMsg *string

	err := rows.Scan(&r.ID, &status, &r.StartedAt, &completed,
		&r.Planned, &r.Succeeded, &r.Failed, &r.Copied, &errMsg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}

	r.Status = model.RunStatus(status)
	r.CompletedAt = completed
	if errMsg != nil {
		r.Error = *errMsg
	}
	return &r, nil
}

func scanPgArtifact(rows pgx.Rows) (*model.ArtifactResult, error) {
	var a model.ArtifactResult
	var state string
	var errMsg *string

	err := rows.Scan(&a.ID, &a.RunID, &a.Name, &state,
		&a.RecordsIn, &a.RecordsOut, &a.Outputs, &a.DurationMS, &errMsg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan artifact")
	}

	a.State = model.ArtifactState(state)
	if errMsg != nil {
		a.Error = *errMsg
	}
	return &a, nil
}
