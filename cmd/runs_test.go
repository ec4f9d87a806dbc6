package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearlab/sensorsync/internal/model"
	"github.com/wearlab/sensorsync/internal/store"
)

func TestFormatRunsList(t *testing.T) {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(42 * time.Second)

	runs := []model.BatchRun{
		{
			ID:          "0b7d8a9c-1111-2222-3333-444455556666",
			StartedAt:   started,
			CompletedAt: &completed,
			Status:      model.RunStatusComplete,
			Planned:     3,
			Succeeded:   3,
			Copied:      1,
		},
		{
			ID:        "ffeeddcc-0000-1111-2222-333344445555",
			StartedAt: started,
			Status:    model.RunStatusRunning,
			Planned:   5,
		},
	}

	var out bytes.Buffer
	formatRunsList(&out, runs)

	s := out.String()
	assert.Contains(t, s, "ID")
	assert.Contains(t, s, "0b7d8a9c")
	assert.NotContains(t, s, "0b7d8a9c-1111", "IDs are truncated for display")
	assert.Contains(t, s, "42s")
	assert.Contains(t, s, "2024-03-01 10:00")
	assert.Contains(t, s, string(model.RunStatusRunning))
}

func TestFindRun(t *testing.T) {
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))

	first, err := st.CreateRun(ctx, 1)
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, 2)
	require.NoError(t, err)

	found, err := findRun(ctx, st, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	found, err = findRun(ctx, st, first.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	_, err = findRun(ctx, st, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run matching")
}
