package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearlab/sensorsync/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO sync_runs`).
		WithArgs(pgxmock.AnyArg(), "running", pgxmock.AnyArg(), int64(5)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), 5)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE sync_runs`).
		WithArgs("complete", pgxmock.AnyArg(), int64(4), int64(1), int64(0), "", "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	run := &model.BatchRun{ID: "run-1", Status: model.RunStatusComplete, Succeeded: 4, Failed: 1}
	require.NoError(t, s.CompleteRun(context.Background(), run))
	assert.NotNil(t, run.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE sync_runs`).
		WithArgs("complete", pgxmock.AnyArg(), int64(0), int64(0), int64(0), "", "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteRun(context.Background(), &model.BatchRun{ID: "ghost", Status: model.RunStatusComplete})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordArtifact(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO sync_artifacts`).
		WithArgs(pgxmock.AnyArg(), "run-1", "raw/u1/u1-20240101.csv", "done",
			int64(10), int64(40), int64(4), int64(120), "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.RecordArtifact(context.Background(), model.ArtifactResult{
		RunID:      "run-1",
		Name:       "raw/u1/u1-20240101.csv",
		State:      model.StateDone,
		RecordsIn:  10,
		RecordsOut: 40,
		Outputs:    4,
		DurationMS: 120,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	started := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(2 * time.Minute)
	rows := pgxmock.NewRows([]string{
		"id", "status", "started_at", "completed_at",
		"planned", "succeeded", "failed", "copied", "error",
	}).
		AddRow("run-2", "running", started.Add(time.Hour), nil,
			int64(2), int64(0), int64(0), int64(0), nil).
		AddRow("run-1", "complete", started, &completed,
			int64(3), int64(3), int64(0), int64(1), nil)

	mock.ExpectQuery(`SELECT id, status, started_at, completed_at`).
		WithArgs(10).
		WillReturnRows(rows)

	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Nil(t, runs[0].CompletedAt)
	assert.Equal(t, model.RunStatusComplete, runs[1].Status)
	require.NotNil(t, runs[1].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListArtifacts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "run_id", "name", "state",
		"records_in", "records_out", "outputs", "duration_ms", "error",
	}).
		AddRow("a-1", "run-1", "raw/u1/u1-20240101.csv", "done",
			int64(10), int64(40), int64(4), int64(120), nil).
		AddRow("a-2", "run-1", "raw/u1/u1-20240102.csv", "failed",
			int64(0), int64(0), int64(0), int64(15), strPtr("download timeout"))

	mock.ExpectQuery(`SELECT id, run_id, name, state`).
		WithArgs("run-1").
		WillReturnRows(rows)

	artifacts, err := s.ListArtifacts(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, model.StateDone, artifacts[0].State)
	assert.Equal(t, "download timeout", artifacts[1].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(s string) *string { return &s }
