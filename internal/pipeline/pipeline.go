package pipeline

import (
	"context"
	"os"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"

	"github.com/scribeflow/scribeflow/internal/chunker"
	"github.com/scribeflow/scribeflow/internal/jobs"
	"github.com/scribeflow/scribeflow/pkg/log"
)

// Chunker produces the ordered chunk sequence for a source file.
type Chunker interface {
	Plan(ctx context.Context, path string) ([]chunker.Chunk, error)
}

// Transcriber produces the full transcript for an ordered chunk sequence.
type Transcriber interface {
	Run(ctx context.Context, chunks []chunker.Chunk) (string, error)
}

// Summarizer produces a prose summary of a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Pipeline drives one processing attempt: chunk, transcribe, summarize.
// Status writes stay with the queue; the pipeline reports outputs or a
// stage-attributed error. Temporary chunk files are always removed once the
// attempt reaches its outcome, on both the success and failure paths.
type Pipeline struct {
	chunks      Chunker
	transcripts Transcriber
	summaries   Summarizer
}

func New(chunks Chunker, transcripts Transcriber, summaries Summarizer) *Pipeline {
	return &Pipeline{
		chunks:      chunks,
		transcripts: transcripts,
		summaries:   summaries,
	}
}

// Execute runs the pipeline for one work item. It satisfies jobs.Executor.
func (p *Pipeline) Execute(ctx context.Context, item jobs.WorkItem) (*jobs.Result, error) {
	log.Info("Processing job %s: %s (%s, %d bytes)", item.JobID, item.SourcePath, item.MimeKind, item.SizeBytes)

	chunks, err := p.chunks.Plan(ctx, item.SourcePath)
	if err != nil {
		return nil, newStageError(StageChunking, err)
	}
	defer p.cleanup(item.JobID, chunks)

	transcript, err := p.transcripts.Run(ctx, chunks)
	if err != nil {
		return nil, newStageError(StageTranscription, err)
	}

	summary, err := p.summaries.Summarize(ctx, transcript)
	if err != nil {
		return nil, newStageError(StageSummarization, err)
	}

	log.Info("Job %s completed (%d chunks, %d transcript bytes)", item.JobID, len(chunks), len(transcript))
	return &jobs.Result{
		Transcript: transcript,
		Summary:    summary,
		Language:   detectLanguage(transcript),
	}, nil
}

// cleanup removes the temporary chunk files of one attempt. Best effort:
// individual removal failures are logged, never surfaced as a job failure.
// The original upload is never part of the set.
func (p *Pipeline) cleanup(jobID string, chunks []chunker.Chunk) {
	for _, chunk := range chunks {
		if !chunk.Temp {
			continue
		}
		if err := os.Remove(chunk.Path); err != nil && !os.IsNotExist(err) {
			log.Warn("Job %s: failed to remove chunk file %s: %v", jobID, chunk.Path, err)
		}
	}
}

// detectLanguage tags the transcript language, canonicalized as a BCP 47
// code. Empty when detection is not confident enough.
func detectLanguage(transcript string) string {
	info := whatlanggo.Detect(transcript)
	if !info.IsReliable() {
		return ""
	}
	code := whatlanggo.LangToString(info.Lang)
	if tag, err := language.Parse(code); err == nil {
		return tag.String()
	}
	return code
}
