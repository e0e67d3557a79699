package pipeline

import (
	"errors"
	"fmt"
)

type Stage int

const (
	StageChunking Stage = iota
	StageTranscription
	StageSummarization
)

func (s Stage) String() string {
	switch s {
	case StageChunking:
		return "chunking"
	case StageTranscription:
		return "transcription"
	case StageSummarization:
		return "summarization"
	default:
		return "unknown"
	}
}

// StageError attributes a pipeline failure to the stage that produced it.
// Its message is what gets recorded on the job record.
type StageError struct {
	Stage Stage
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

func newStageError(stage Stage, cause error) *StageError {
	return &StageError{Stage: stage, Cause: cause}
}

// IsStage reports whether err is a StageError for the given stage.
func IsStage(err error, stage Stage) bool {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage == stage
	}
	return false
}
