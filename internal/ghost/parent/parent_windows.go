//go:build windows

package parent

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

func (Tracker) ParentPID() (int, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return 0, fmt.Errorf("snapshot process table: %w", err)
	}
	defer func() { _ = windows.CloseHandle(snapshot) }()

	self := windows.GetCurrentProcessId()

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Process32First(snapshot, &entry); err != nil {
		return 0, fmt.Errorf("walk process table: %w", err)
	}

	for {
		if entry.ProcessID == self {
			if entry.ParentProcessID == 0 {
				return 0, errors.New("no parent process")
			}
			return int(entry.ParentProcessID), nil
		}

		if err := windows.Process32Next(snapshot, &entry); err != nil {
			if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
				return 0, errors.New("own process not found in process table")
			}
			return 0, fmt.Errorf("walk process table: %w", err)
		}
	}
}

func (Tracker) Open(pid int) (Handle, error) {
	handle, err := windows.OpenProcess(windows.SYNCHRONIZE, false, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("open parent process %d: %w", pid, err)
	}
	return &processHandle{handle: handle}, nil
}

type processHandle struct {
	handle windows.Handle
}

func (h *processHandle) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		event, err := windows.WaitForSingleObject(h.handle, uint32(pollInterval.Milliseconds()))
		switch {
		case err != nil:
			return fmt.Errorf("wait for parent: %w", err)
		case event == windows.WAIT_OBJECT_0:
			return nil
		case event == uint32(windows.WAIT_TIMEOUT):
			continue
		default:
			return fmt.Errorf("wait for parent: unexpected result %d", event)
		}
	}
}

func (h *processHandle) Close() error {
	return windows.CloseHandle(h.handle)
}
