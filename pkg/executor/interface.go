package executor

import "context"

// Executor runs external commands. Abstracted so media operations can be
// mocked in tests without ffmpeg installed.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
}
