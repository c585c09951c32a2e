package process

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceLockExcludesSecondHolder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", "gidle.lock")

	lock, err := AcquireInstanceLock(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	_, err = AcquireInstanceLock(path)
	require.ErrorIs(t, err, domain.ErrInstanceRunning)

	require.NoError(t, lock.Release())
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	again, err := AcquireInstanceLock(path)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestInstanceLockReplacesStaleFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gidle.lock")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0o600))

	lock, err := AcquireInstanceLock(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lock.Release() })

	assert.Equal(t, path, lock.Path())
}

func TestAliveReportsCurrentProcess(t *testing.T) {
	t.Parallel()

	assert.True(t, Alive(os.Getpid()))
	assert.False(t, Alive(0))
	assert.False(t, Alive(-5))
}
