package watcher

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/scribeflow/scribeflow/internal/jobs"
	"github.com/scribeflow/scribeflow/pkg/file"
	"github.com/scribeflow/scribeflow/pkg/log"
)

// Watcher submits a job for every media file dropped into the inbox
// directory, as an alternative intake path next to the HTTP upload.
type Watcher struct {
	inboxDir    string
	queue       *jobs.Queue
	settleDelay time.Duration
	fs          *fsnotify.Watcher
}

func New(inboxDir string, queue *jobs.Queue, settleDelay time.Duration) (*Watcher, error) {
	if err := os.MkdirAll(inboxDir, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox dir: %w", err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(inboxDir); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("watch %s: %w", inboxDir, err)
	}

	return &Watcher{
		inboxDir:    inboxDir,
		queue:       queue,
		settleDelay: settleDelay,
		fs:          fs,
	}, nil
}

// Run blocks until ctx is cancelled or the watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	log.Info("Inbox watcher started on %s", w.inboxDir)

	for {
		select {
		case <-ctx.Done():
			log.Info("Inbox watcher stopped")
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !file.IsMediaFile(event.Name) {
				log.Debug("Ignoring non-media file: %s", event.Name)
				continue
			}
			w.submit(event.Name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.Error("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) Stop() error {
	return w.fs.Close()
}

func (w *Watcher) submit(path string) {
	// Small delay so the file is fully written before processing starts.
	time.Sleep(w.settleDelay)

	info, err := os.Stat(path)
	if err != nil {
		log.Error("Failed to stat dropped file %s: %v", path, err)
		return
	}

	job, err := w.queue.Enqueue(jobs.EnqueueRequest{
		SourcePath: path,
		MimeKind:   mimeFromExt(path),
		SizeBytes:  info.Size(),
	})
	if err != nil {
		log.Error("Failed to enqueue dropped file %s: %v", path, err)
		return
	}
	log.Info("New media detected: %s, submitted as job %s", path, job.ID)
}

func mimeFromExt(path string) string {
	if kind := mime.TypeByExtension(filepath.Ext(path)); kind != "" {
		return kind
	}
	return "application/octet-stream"
}
