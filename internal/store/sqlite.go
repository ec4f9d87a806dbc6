package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/wearlab/sensorsync/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sync_runs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   DATETIME NOT NULL,
	completed_at DATETIME,
	planned      INTEGER NOT NULL DEFAULT 0,
	succeeded    INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0,
	copied       INTEGER NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE TABLE IF NOT EXISTS sync_artifacts (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES sync_runs(id),
	name        TEXT NOT NULL,
	state       TEXT NOT NULL,
	records_in  INTEGER NOT NULL DEFAULT 0,
	records_out INTEGER NOT NULL DEFAULT 0,
	outputs     INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	recorded_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at);
CREATE INDEX IF NOT EXISTS idx_sync_artifacts_run_id ON sync_artifacts(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, planned int64) (*model.BatchRun, error) {
	run := &model.BatchRun{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Status:    model.RunStatusRunning,
		Planned:   planned,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, status, started_at, planned) VALUES (?, ?, ?, ?)`,
		run.ID, string(run.Status), run.StartedAt, planned,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, run *model.BatchRun) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_runs
		 SET status = ?, completed_at = ?, succeeded = ?, failed = ?, copied = ?, error = ?
		 WHERE id = ?`,
		string(run.Status), now, run.Succeeded, run.Failed, run.Copied, run.Error, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", run.ID)
	}
	run.CompletedAt = &now
	return checkRowsAffected(res, "run", run.ID)
}

func (s *SQLiteStore) RecordArtifact(ctx context.Context, res model.ArtifactResult) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_artifacts
		 (id, run_id, name, state, records_in, records_out, outputs, duration_ms, error, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.RunID, res.Name, string(res.State),
		res.RecordsIn, res.RecordsOut, res.Outputs, res.DurationMS, res.Error, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert artifact %s", res.Name)
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.BatchRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, started_at, completed_at, planned, succeeded, failed, copied, error
		 FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.BatchRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) ListArtifacts(ctx context.Context, runID string) ([]model.ArtifactResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, name, state, records_in, records_out, outputs, duration_ms, error
		 FROM sync_artifacts WHERE run_id = ? ORDER BY recorded_at, name`, runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list artifacts for %s", runID)
	}
	defer rows.Close()

	var results []model.ArtifactResult
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *a)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list artifacts iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.BatchRun, error) {
	var r model.BatchRun
	var status string
	var completed sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(&r.ID, &status, &r.StartedAt, &completed,
		&r.Planned, &r.Succeeded, &r.Failed, &r.Copied, &errMsg)
	if err != nil {
		return nil, eris.Wrap(err, "scan run")
	}

	r.Status = model.RunStatus(status)
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	r.Error = errMsg.String
	return &r, nil
}

func scanArtifact(row scannable) (*model.ArtifactResult, error) {
	var a model.ArtifactResult
	var state string
	var errMsg sql.NullString

	err := row.Scan(&a.ID, &a.RunID, &a.Name, &state,
		&a.RecordsIn, &a.RecordsOut, &a.Outputs, &a.DurationMS, &errMsg)
	if err != nil {
		return nil, eris.Wrap(err, "scan artifact")
	}

	a.State = model.ArtifactState(state)
	a.Error = errMsg.String
	return &a, nil
}
