package jobs

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores for unknown job identifiers.
var ErrNotFound = errors.New("job not found")

// Store persists job records so status survives restarts and can be
// queried independently of the in-memory queue.
type Store interface {
	LoadJobs(ctx context.Context) ([]*Job, error)
	UpsertJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, jobID string) (*Job, error)
	DeleteJob(ctx context.Context, jobID string) error
}
