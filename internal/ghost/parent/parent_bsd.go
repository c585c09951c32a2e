//go:build unix && !linux

package parent

import (
	"fmt"
	"os"
)

func (Tracker) ParentPID() (int, error) {
	ppid := os.Getppid()
	if ppid <= 1 {
		return 0, fmt.Errorf("no parent process (ppid %d)", ppid)
	}
	return ppid, nil
}

func (Tracker) Open(pid int) (Handle, error) {
	return openPolling(pid)
}
