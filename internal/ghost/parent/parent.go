// Package parent finds the process that launched the helper and waits for it
// to go away.
package parent

import (
	"context"
	"time"
)

const pollInterval = 500 * time.Millisecond

// Handle observes the liveness of one process.
type Handle interface {
	// Wait blocks until the process exits or ctx is done.
	Wait(ctx context.Context) error
	Close() error
}

type Tracker struct{}

func NewTracker() Tracker {
	return Tracker{}
}
