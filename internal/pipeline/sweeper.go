package pipeline

import (
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/scribeflow/scribeflow/pkg/log"
)

var chunkNamePattern = regexp.MustCompile(`_chunk\d+\.[^./\\]+$`)

// Sweeper removes orphaned chunk files left behind by crashed processing
// attempts. The pipeline cleans up after itself on every normal path, so
// anything matching the chunk naming scheme that is older than maxAge is
// garbage. Scheduled from cmd via cron.
type Sweeper struct {
	dir    string
	maxAge time.Duration
}

func NewSweeper(dir string, maxAge time.Duration) *Sweeper {
	return &Sweeper{dir: dir, maxAge: maxAge}
}

// Sweep walks the upload directory once.
func (s *Sweeper) Sweep() {
	cutoff := time.Now().Add(-s.maxAge)
	removed := 0

	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !chunkNamePattern.MatchString(info.Name()) {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			log.Warn("Sweeper: failed to remove %s: %v", path, err)
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		log.Error("Sweeper: walk %s: %v", s.dir, err)
		return
	}
	if removed > 0 {
		log.Info("Sweeper: removed %d orphaned chunk files from %s", removed, s.dir)
	}
}
