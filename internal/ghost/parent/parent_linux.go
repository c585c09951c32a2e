//go:build linux

package parent

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

func (Tracker) ParentPID() (int, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return 0, fmt.Errorf("open procfs: %w", err)
	}

	self, err := fs.Proc(os.Getpid())
	if err != nil {
		return 0, fmt.Errorf("find own process entry: %w", err)
	}

	stat, err := self.Stat()
	if err != nil {
		return 0, fmt.Errorf("read own process stat: %w", err)
	}
	if stat.PPID <= 1 {
		return 0, fmt.Errorf("no parent process (ppid %d)", stat.PPID)
	}

	if _, err := fs.Proc(stat.PPID); err != nil {
		return 0, fmt.Errorf("parent %d not in process table: %w", stat.PPID, err)
	}

	return stat.PPID, nil
}

func (Tracker) Open(pid int) (Handle, error) {
	fd, err := unix.PidfdOpen(pid, 0)
	if err != nil {
		if errors.Is(err, unix.ENOSYS) {
			return openPolling(pid)
		}
		return nil, fmt.Errorf("open pidfd for %d: %w", pid, err)
	}

	return &pidfdHandle{fd: fd}, nil
}

type pidfdHandle struct {
	fd int
}

func (h *pidfdHandle) Wait(ctx context.Context) error {
	fds := []unix.PollFd{{Fd: int32(h.fd), Events: unix.POLLIN}}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := unix.Poll(fds, int(pollInterval.Milliseconds()))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll pidfd: %w", err)
		}
		if n > 0 {
			return nil
		}
	}
}

func (h *pidfdHandle) Close() error {
	return unix.Close(h.fd)
}
