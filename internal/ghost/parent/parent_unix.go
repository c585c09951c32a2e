//go:build unix

package parent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// pollHandle checks liveness with signal 0 where no wait primitive exists.
type pollHandle struct {
	pid int
}

func openPolling(pid int) (Handle, error) {
	if !signalAlive(pid) {
		return nil, fmt.Errorf("process %d is not running", pid)
	}
	return &pollHandle{pid: pid}, nil
}

func (h *pollHandle) Wait(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if !signalAlive(h.pid) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (h *pollHandle) Close() error {
	return nil
}

func signalAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
