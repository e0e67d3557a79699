package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeflow/scribeflow/internal/jobs"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleJob(id string) *jobs.Job {
	now := time.Now().UTC().Truncate(time.Second)
	return &jobs.Job{
		ID:         id,
		Status:     jobs.StatusPending,
		SourcePath: "/uploads/" + id + ".mp3",
		MediaKind:  jobs.MediaAudio,
		MimeKind:   "audio/mpeg",
		SizeBytes:  2048,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestSQLiteStore_UpsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := sampleJob("job-1")
	require.NoError(t, store.UpsertJob(ctx, job))

	got, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusPending, got.Status)
	assert.Equal(t, job.SourcePath, got.SourcePath)
	assert.Equal(t, jobs.MediaAudio, got.MediaKind)
	assert.Equal(t, int64(2048), got.SizeBytes)
}

func TestSQLiteStore_GetUnknownJob(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetJob(context.Background(), "nope")
	assert.ErrorIs(t, err, jobs.ErrNotFound)
}

func TestSQLiteStore_UpsertUpdatesMutableFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := sampleJob("job-2")
	require.NoError(t, store.UpsertJob(ctx, job))

	job.Status = jobs.StatusCompleted
	job.Transcript = "a\nb\nc\n"
	job.Summary = "S"
	job.Language = "eng"
	job.UpdatedAt = job.UpdatedAt.Add(time.Minute)
	require.NoError(t, store.UpsertJob(ctx, job))

	got, err := store.GetJob(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, got.Status)
	assert.Equal(t, "a\nb\nc\n", got.Transcript)
	assert.Equal(t, "S", got.Summary)
	assert.Equal(t, "eng", got.Language)
}

func TestSQLiteStore_LoadJobs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertJob(ctx, sampleJob("job-a")))
	require.NoError(t, store.UpsertJob(ctx, sampleJob("job-b")))

	loaded, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestSQLiteStore_DeleteJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertJob(ctx, sampleJob("job-del")))
	require.NoError(t, store.DeleteJob(ctx, "job-del"))

	_, err := store.GetJob(ctx, "job-del")
	assert.ErrorIs(t, err, jobs.ErrNotFound)
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("  ")
	assert.Error(t, err)
}
