package ports

import "context"

// Process is a launched helper owned by the caller.
type Process interface {
	PID() int
	// Terminate asks the helper to exit gracefully.
	Terminate() error
	Kill() error
	// Done is closed once the helper has exited and been reaped.
	Done() <-chan struct{}
	Err() error
}

type ProcessLauncher interface {
	Launch(ctx context.Context, dir string) (Process, error)
}
