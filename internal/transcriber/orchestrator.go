package transcriber

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/scribeflow/scribeflow/internal/chunker"
	"github.com/scribeflow/scribeflow/pkg/log"
)

// Service is the provider contract the orchestrator drives for one chunk.
type Service interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Orchestrator transcribes the chunks of one job strictly in ordinal order
// and concatenates the results. Sequential on purpose: it bounds concurrent
// provider calls and keeps the transcript order-correct without a reorder
// buffer. Concurrency lives at the job level, in the queue's worker pool.
type Orchestrator struct {
	svc Service
}

func NewOrchestrator(svc Service) *Orchestrator {
	return &Orchestrator{svc: svc}
}

// Run produces the full transcript for an ordered chunk sequence. Each
// chunk's text is appended with a trailing newline. The first chunk error
// aborts the run; remaining chunks are never submitted.
func (o *Orchestrator) Run(ctx context.Context, chunks []chunker.Chunk) (string, error) {
	var transcript strings.Builder
	for _, chunk := range chunks {
		log.Info("Transcribing chunk %d/%d: %s", chunk.Index+1, len(chunks), chunk.Path)

		text, err := o.svc.Transcribe(ctx, chunk.Path)
		if err != nil {
			return "", fmt.Errorf("transcribe chunk %d (%s): %w", chunk.Index+1, filepath.Base(chunk.Path), err)
		}
		transcript.WriteString(text)
		transcript.WriteString("\n")
	}
	return transcript.String(), nil
}
