package jobs

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are valid for s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// KindFromMime maps a declared MIME type to the stored media kind.
// Anything that is not video/* is treated as audio.
func KindFromMime(mime string) MediaKind {
	if strings.HasPrefix(mime, "video/") {
		return MediaVideo
	}
	return MediaAudio
}

// EnqueueRequest describes a new submission from the intake layer.
type EnqueueRequest struct {
	SourcePath string
	MimeKind   string
	SizeBytes  int64
}

// WorkItem is the queue payload handed to a worker for one processing
// attempt. It is ephemeral; the Job record is the durable state.
type WorkItem struct {
	JobID      string `json:"job_id"`
	SourcePath string `json:"source_path"`
	MimeKind   string `json:"mime_kind"`
	SizeBytes  int64  `json:"size_bytes"`
}

// Result carries the outputs of a successful pipeline run.
type Result struct {
	Transcript string
	Summary    string
	Language   string
}

type Job struct {
	ID           string    `json:"id"`
	Status       Status    `json:"status"`
	SourcePath   string    `json:"source_path"`
	MediaKind    MediaKind `json:"media_kind"`
	MimeKind     string    `json:"mime_kind"`
	SizeBytes    int64     `json:"size_bytes"`
	Transcript   string    `json:"transcript,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	Language     string    `json:"language,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WorkItem builds the queue payload for this job.
func (j *Job) WorkItem() WorkItem {
	return WorkItem{
		JobID:      j.ID,
		SourcePath: j.SourcePath,
		MimeKind:   j.MimeKind,
		SizeBytes:  j.SizeBytes,
	}
}
