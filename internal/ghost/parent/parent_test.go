//go:build unix

package parent

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSleeper(t *testing.T) *exec.Cmd {
	t.Helper()

	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() { _ = cmd.Process.Kill() })
	return cmd
}

func TestParentPIDMatchesRuntime(t *testing.T) {
	t.Parallel()

	pid, err := NewTracker().ParentPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getppid(), pid)
}

func TestHandleWaitReturnsWhenProcessExits(t *testing.T) {
	t.Parallel()

	cmd := startSleeper(t)

	handle, err := NewTracker().Open(cmd.Process.Pid)
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	go func() {
		time.Sleep(200 * time.Millisecond)
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, handle.Wait(ctx))
}

func TestHandleWaitHonoursContext(t *testing.T) {
	t.Parallel()

	cmd := startSleeper(t)

	handle, err := NewTracker().Open(cmd.Process.Pid)
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, handle.Wait(ctx), context.DeadlineExceeded)
}

func TestPollingHandleRejectsDeadProcess(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())

	_, err := openPolling(cmd.Process.Pid)
	require.Error(t, err)
}
