//go:build !windows

package process

import (
	"os"
	"os/exec"
	"syscall"
)

func configureHidden(cmd *exec.Cmd) {
	// Own process group so terminal signals aimed at the host do not reach helpers.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminate(proc *os.Process) error {
	return proc.Signal(syscall.SIGTERM)
}
