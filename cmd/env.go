package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/wearlab/sensorsync/internal/naming"
	"github.com/wearlab/sensorsync/internal/payload"
	"github.com/wearlab/sensorsync/internal/pipeline"
	"github.com/wearlab/sensorsync/internal/reconcile"
	"github.com/wearlab/sensorsync/internal/serialize"
	"github.com/wearlab/sensorsync/internal/store"
	"github.com/wearlab/sensorsync/pkg/blob"
)

// syncEnv holds the blob store, naming codec, run-history store, and batch
// runner needed by the sync/plan/serve commands.
type syncEnv struct {
	Blob    blob.Store
	Codec   naming.Codec
	History store.Store // nil when run history is off
	Runner  *pipeline.Runner
}

// Close releases resources held by the sync environment.
func (se *syncEnv) Close() {
	if se.History != nil {
		_ = se.History.Close()
	}
	if se.Blob != nil {
		_ = se.Blob.Close()
	}
}

// initSync validates the config, connects the blob and history stores, and
// builds the processor and runner. Callers should defer env.Close().
func initSync(ctx context.Context) (*syncEnv, error) {
	if err := cfg.Validate("sync"); err != nil {
		return nil, err
	}

	bs, err := initBlob(ctx)
	if err != nil {
		return nil, err
	}

	format, err := serialize.ParseFormat(cfg.Sync.Format)
	if err != nil {
		_ = bs.Close()
		return nil, err
	}
	codec, err := naming.New(cfg.Sync.Convention, cfg.Sync.ParsedPrefix, format)
	if err != nil {
		_ = bs.Close()
		return nil, err
	}

	history, err := initStore(ctx)
	if err != nil {
		_ = bs.Close()
		return nil, err
	}

	proc := pipeline.NewProcessor(bs, pipeline.Options{
		Codec:             codec,
		Format:            format,
		Reader:            payload.ReaderOptions{Encoding: cfg.Input.Encoding},
		DefaultIntervalMS: cfg.Sync.DefaultIntervalMS,
	})

	return &syncEnv{
		Blob:    bs,
		Codec:   codec,
		History: history,
		Runner:  pipeline.NewRunner(proc, history, cfg.Sync.Workers),
	}, nil
}

// initBlob connects the configured blob-store backend.
func initBlob(ctx context.Context) (blob.Store, error) {
	switch cfg.Storage.Backend {
	case "gcs":
		return blob.NewGCS(ctx, blob.GCSOptions{
			Bucket:            cfg.Storage.GCS.Bucket,
			CredentialsJSON:   cfg.Storage.GCS.CredentialsJSON,
			CredentialsFile:   cfg.Storage.GCS.CredentialsFile,
			RequestsPerSecond: cfg.Storage.GCS.RequestsPerSecond,
		})
	case "ftp":
		return blob.NewFTP(blob.FTPOptions{
			Host:     cfg.Storage.FTP.Host,
			User:     cfg.Storage.FTP.User,
			Password: cfg.Storage.FTP.Password,
			Timeout:  time.Duration(cfg.Storage.FTP.TimeoutSecs) * time.Second,
		})
	case "fs":
		return blob.NewFS(cfg.Storage.FS.Root)
	default:
		return nil, eris.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// initStore opens the configured run-history store, migrated and ready.
// Driver none returns (nil, nil).
func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, &cfg.Store.Pool)
}

// buildPlan lists both sides of the store and diffs them under the active
// codec. Subject narrows the plan to one subject when non-empty.
func buildPlan(ctx context.Context, bs blob.Store, codec naming.Codec, subject string) (reconcile.Plan, error) {
	rawNames, err := bs.List(ctx, cfg.Sync.RawPrefix)
	if err != nil {
		return reconcile.Plan{}, eris.Wrap(err, "list raw artifacts")
	}
	parsedNames, err := bs.List(ctx, cfg.Sync.ParsedPrefix)
	if err != nil {
		return reconcile.Plan{}, eris.Wrap(err, "list parsed artifacts")
	}

	return reconcile.Build(blob.FilterNames(rawNames), blob.FilterNames(parsedNames), codec, reconcile.Options{
		RawPrefix:           cfg.Sync.RawPrefix,
		Subject:             subject,
		LocationPassthrough: cfg.Sync.LocationPassthrough,
	}), nil
}
