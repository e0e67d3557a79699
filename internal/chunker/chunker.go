package chunker

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/scribeflow/scribeflow/internal/media"
	"github.com/scribeflow/scribeflow/pkg/log"
)

// DefaultCeilingBytes is the per-chunk size ceiling (20 MB), matching the
// transcription provider's per-request limit.
const DefaultCeilingBytes = 20 * 1024 * 1024

// Chunk is one time-bounded slice of the source media. Index defines the
// concatenation order. Temp is false only for the degenerate single-chunk
// case where Path is the original upload and must never be deleted.
type Chunk struct {
	Path  string
	Index int
	Temp  bool
}

// Chunker splits an oversized media file into bounded-size, time-ordered
// segments.
type Chunker struct {
	prober       media.DurationProber
	slicer       media.Slicer
	ceilingBytes int64
}

func New(prober media.DurationProber, slicer media.Slicer, ceilingBytes int64) *Chunker {
	if ceilingBytes <= 0 {
		ceilingBytes = DefaultCeilingBytes
	}
	return &Chunker{
		prober:       prober,
		slicer:       slicer,
		ceilingBytes: ceilingBytes,
	}
}

// Plan returns the ordered chunk sequence for path. Files at or below the
// ceiling come back as a single chunk pointing at the original file with no
// new file created. Larger files are split into ceil(size/ceiling) uniform
// time ranges. The split is proportional by time, not byte-exact: highly
// variable bitrate content can produce chunks that individually exceed the
// ceiling.
//
// If any slice fails, chunk files already produced are deleted and the
// error propagates; a job never continues with a partial chunk list.
func (c *Chunker) Plan(ctx context.Context, path string) ([]Chunk, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}

	if info.Size() <= c.ceilingBytes {
		return []Chunk{{Path: path, Index: 0, Temp: false}}, nil
	}

	duration, err := c.prober.ProbeDuration(ctx, path)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, fmt.Errorf("invalid media duration %.3fs for %s", duration, path)
	}

	sizeMB := float64(info.Size()) / (1024 * 1024)
	ceilingMB := float64(c.ceilingBytes) / (1024 * 1024)
	numChunks := int(math.Ceil(sizeMB / ceilingMB))
	chunkDuration := duration / float64(numChunks)

	log.Info("Splitting %s (%.1f MB, %.1fs) into %d chunks of %.1fs", path, sizeMB, duration, numChunks, chunkDuration)

	chunks := make([]Chunk, 0, numChunks)
	for i := 0; i < numChunks; i++ {
		start := float64(i) * chunkDuration
		outPath := chunkPath(path, i)
		if err := c.slicer.Slice(ctx, path, start, chunkDuration, outPath); err != nil {
			removeChunks(chunks)
			return nil, fmt.Errorf("extract chunk %d of %d: %w", i+1, numChunks, err)
		}
		chunks = append(chunks, Chunk{Path: outPath, Index: i, Temp: true})
	}

	return chunks, nil
}

// chunkPath derives the chunk file name from the source path and ordinal,
// e.g. /u/talk.mp3 → /u/talk_chunk1.mp3.
func chunkPath(path string, index int) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s_chunk%d%s", base, index+1, ext)
}

func removeChunks(chunks []Chunk) {
	for _, chunk := range chunks {
		if !chunk.Temp {
			continue
		}
		if err := os.Remove(chunk.Path); err != nil && !os.IsNotExist(err) {
			log.Warn("Failed to remove chunk file %s: %v", chunk.Path, err)
		}
	}
}
