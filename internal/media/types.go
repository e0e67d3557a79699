package media

import "context"

// DurationProber reports the total duration of a media file in seconds.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Slicer extracts a time range of a media file into a new file.
type Slicer interface {
	Slice(ctx context.Context, path string, startSeconds, durationSeconds float64, outPath string) error
}
