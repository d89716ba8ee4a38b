package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
)

func TestFileBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested")
	b := NewFileBackend(dir, "taxiWatchReports")
	assert.Equal(t, filepath.Join(dir, "taxiWatchReports.json"), b.Path())

	data, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, b.Save(ctx, []byte(`[{"id":"a"}]`)))
	require.NoError(t, b.Save(ctx, []byte(`[{"id":"b"},{"id":"a"}]`)))

	data, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"b"},{"id":"a"}]`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileBackend_SaveFailure(t *testing.T) {
	// a regular file where the directory should be
	parent := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(parent, []byte("x"), 0o600))

	b := NewFileBackend(parent, "taxiWatchReports")
	assert.Error(t, b.Save(context.Background(), []byte(`[]`)))
}

func TestReportStore_FileBackendSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := NewReportStore(NewFileBackend(dir, "taxiWatchReports"), logger.Nop())
	first.Load(ctx)
	first.Append(ctx, sampleReport(1))
	first.Append(ctx, sampleReport(2))

	second := NewReportStore(NewFileBackend(dir, "taxiWatchReports"), logger.Nop())
	got := second.Load(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, sampleReport(2), got[0])
	assert.Equal(t, sampleReport(1), got[1])
}

func TestReportStore_CorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taxiWatchReports.json"), []byte("{not json"), 0o600))

	store := NewReportStore(NewFileBackend(dir, "taxiWatchReports"), logger.Nop())
	assert.Empty(t, store.Load(context.Background()))
	assert.True(t, store.Degraded())
}
