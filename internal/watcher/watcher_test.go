package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeflow/scribeflow/internal/jobs"
)

func TestWatcher_SubmitsDroppedMediaFile(t *testing.T) {
	inbox := t.TempDir()
	queue := jobs.NewQueue(1, nil)

	w, err := New(inbox, queue, 10*time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(inbox, "talk.mp3"), []byte("audio"), 0644))

	require.Eventually(t, func() bool {
		return len(queue.List()) == 1
	}, 2*time.Second, 20*time.Millisecond)

	job := queue.List()[0]
	assert.Equal(t, jobs.MediaAudio, job.MediaKind)
	assert.Equal(t, int64(5), job.SizeBytes)
	assert.Equal(t, filepath.Join(inbox, "talk.mp3"), job.SourcePath)
}

func TestWatcher_IgnoresNonMediaFiles(t *testing.T) {
	inbox := t.TempDir()
	queue := jobs.NewQueue(1, nil)

	w, err := New(inbox, queue, 10*time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(inbox, "notes.txt"), []byte("hi"), 0644))

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, queue.List())
}

func TestWatcher_CreatesInboxDir(t *testing.T) {
	inbox := filepath.Join(t.TempDir(), "inbox")
	queue := jobs.NewQueue(1, nil)

	w, err := New(inbox, queue, time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	assert.DirExists(t, inbox)
}
