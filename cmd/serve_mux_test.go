package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearlab/sensorsync/internal/config"
	"github.com/wearlab/sensorsync/internal/model"
	"github.com/wearlab/sensorsync/internal/monitoring"
	"github.com/wearlab/sensorsync/internal/naming"
	"github.com/wearlab/sensorsync/internal/pipeline"
	"github.com/wearlab/sensorsync/internal/serialize"
	"github.com/wearlab/sensorsync/internal/store"
	"github.com/wearlab/sensorsync/pkg/blob"
)

func TestBuildMux_HealthEndpoint(t *testing.T) {
	mux := buildMux(context.Background(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestBuildMux_RunsDisabled(t *testing.T) {
	mux := buildMux(context.Background(), nil)

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "run history is disabled")
}

func TestBuildMux_RunsEndpoint(t *testing.T) {
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))

	run, err := st.CreateRun(ctx, 3)
	require.NoError(t, err)

	mux := buildMux(ctx, &syncEnv{History: st})

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var runs []model.BatchRun
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, int64(3), runs[0].Planned)
}

func TestBuildMux_RunsBadLimit(t *testing.T) {
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))

	mux := buildMux(ctx, &syncEnv{History: st})

	req := httptest.NewRequest(http.MethodGet, "/runs?limit=bogus", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid limit")
}

func TestBuildMux_WebhookAccepted_NilEnv(t *testing.T) {
	// With a nil env, the goroutine skips the sync gracefully.
	mux := buildMux(context.Background(), nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook/sync", bytes.NewReader([]byte(`{"subject":"s01"}`)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])

	// Give the goroutine time to execute the nil check path.
	time.Sleep(10 * time.Millisecond)
}

func TestBuildMux_WebhookEmptyBody(t *testing.T) {
	mux := buildMux(context.Background(), nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook/sync", bytes.NewReader(nil))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	time.Sleep(10 * time.Millisecond)
}

func TestBuildMux_WebhookInvalidJSON(t *testing.T) {
	mux := buildMux(context.Background(), nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook/sync", bytes.NewReader([]byte("not json")))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestBuildMux_WebhookRunsSync(t *testing.T) {
	ctx := context.Background()

	bs, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bs.Close() })
	require.NoError(t, bs.Upload(ctx, "raw/s01/s01-20240301.csv", []byte(sampleRecording), "text/csv"))

	prev := cfg
	cfg = &config.Config{
		Sync: config.SyncConfig{
			RawPrefix:           "raw/",
			ParsedPrefix:        "parsed/",
			Convention:          naming.ConventionTagDate,
			Format:              "csv",
			Workers:             1,
			DefaultIntervalMS:   8,
			LocationPassthrough: true,
		},
	}
	t.Cleanup(func() { cfg = prev })

	codec, err := naming.New(naming.ConventionTagDate, "parsed/", serialize.FormatCSV)
	require.NoError(t, err)
	proc := pipeline.NewProcessor(bs, pipeline.Options{
		Codec:             codec,
		Format:            serialize.FormatCSV,
		DefaultIntervalMS: 8,
	})
	env := &syncEnv{
		Blob:   bs,
		Codec:  codec,
		Runner: pipeline.NewRunner(proc, nil, 1),
	}

	mux := buildMux(ctx, env)

	req := httptest.NewRequest(http.MethodPost, "/webhook/sync", bytes.NewReader([]byte(`{}`)))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	require.Equal(t, http.StatusAccepted, rr.Code)

	// The recording carries PI and TH samples, so the sync lands two objects.
	assert.Eventually(t, func() bool {
		names, err := bs.List(ctx, "parsed/")
		return err == nil && len(blob.FilterNames(names)) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBuildMux_StatsDisabled(t *testing.T) {
	mux := buildMux(context.Background(), nil)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "run history is disabled")
}

func TestBuildMux_StatsEndpoint(t *testing.T) {
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))

	run, err := st.CreateRun(ctx, 4)
	require.NoError(t, err)
	run.Status = model.RunStatusComplete
	run.Succeeded = 3
	run.Failed = 1
	require.NoError(t, st.CompleteRun(ctx, run))

	mux := buildMux(ctx, &syncEnv{History: st})

	req := httptest.NewRequest(http.MethodGet, "/stats?hours=48", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var snap monitoring.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.RunsTotal)
	assert.Equal(t, 1, snap.RunsComplete)
	assert.Equal(t, int64(3), snap.ArtifactsSucceeded)
	assert.Equal(t, int64(1), snap.ArtifactsFailed)
	assert.Equal(t, 48, snap.LookbackHours)
	assert.InDelta(t, 0.25, snap.ArtifactFailRate, 0.001)
}

func TestBuildMux_StatsBadHours(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	mux := buildMux(context.Background(), &syncEnv{History: st})

	req := httptest.NewRequest(http.MethodGet, "/stats?hours=soon", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid hours")
}
