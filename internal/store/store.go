// Package store persists batch run history: one row per sync run, one row
// per artifact outcome within it.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/wearlab/sensorsync/internal/db"
	"github.com/wearlab/sensorsync/internal/model"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Store defines the persistence interface for run history.
type Store interface {
	// CreateRun inserts a running batch with the planned artifact count and
	// returns it with its assigned ID.
	CreateRun(ctx context.Context, planned int64) (*model.BatchRun, error)
	// CompleteRun writes the final status and counters of a run.
	CompleteRun(ctx context.Context, run *model.BatchRun) error
	// RecordArtifact inserts one artifact outcome.
	RecordArtifact(ctx context.Context, res model.ArtifactResult) error
	// ListRuns returns runs, most recent first.
	ListRuns(ctx context.Context, limit int) ([]model.BatchRun, error)
	// ListArtifacts returns the artifact outcomes of one run in record order.
	ListArtifacts(ctx context.Context, runID string) ([]model.ArtifactResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store for the configured driver, migrated and ready.
// DriverNone returns (nil, nil): run history is optional and a nil Store
// means history is off.
func Open(ctx context.Context, driver, dsn string, poolCfg *db.Config) (Store, error) {
	switch driver {
	case DriverNone, "":
		return nil, nil
	case DriverSQLite:
		s, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := NewPostgres(ctx, dsn, poolCfg)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q (want %s, %s, or %s)",
			driver, DriverSQLite, DriverPostgres, DriverNone)
	}
}
