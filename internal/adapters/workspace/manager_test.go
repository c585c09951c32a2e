package workspace

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/bnema/ghost-idler/internal/ghost/steamapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstallDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, HelperName()), []byte("helper"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, steamapi.LibraryName), []byte("sdk"), 0o644))
	return dir
}

func TestPrepareCreatesWorkspaceWithDependencies(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	manager := NewManager(root, newInstallDir(t), nil)

	dir, err := manager.Prepare(730)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "730"), dir)

	helper, err := os.ReadFile(filepath.Join(dir, HelperName()))
	require.NoError(t, err)
	assert.Equal(t, "helper", string(helper))

	sdk, err := os.ReadFile(filepath.Join(dir, steamapi.LibraryName))
	require.NoError(t, err)
	assert.Equal(t, "sdk", string(sdk))
}

func TestPrepareIsIdempotentAndKeepsExistingFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	manager := NewManager(root, newInstallDir(t), nil)

	dir := filepath.Join(root, "440")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, steamapi.LibraryName), []byte("already here"), 0o644))

	_, err := manager.Prepare(440)
	require.NoError(t, err)
	_, err = manager.Prepare(440)
	require.NoError(t, err)

	sdk, err := os.ReadFile(filepath.Join(dir, steamapi.LibraryName))
	require.NoError(t, err)
	assert.Equal(t, "already here", string(sdk))
}

func TestPrepareFailsWhenDependencyMissing(t *testing.T) {
	t.Parallel()

	manager := NewManager(t.TempDir(), t.TempDir(), nil)

	_, err := manager.Prepare(10)
	require.Error(t, err)
}

func TestPrepareRejectsZeroAppID(t *testing.T) {
	t.Parallel()

	manager := NewManager(t.TempDir(), newInstallDir(t), nil)

	_, err := manager.Prepare(0)
	require.ErrorIs(t, err, domain.ErrInvalidAppID)
}

func TestWriteMarkerWritesDecimalWithoutNewline(t *testing.T) {
	t.Parallel()

	manager := NewManager(t.TempDir(), newInstallDir(t), nil)
	dir, err := manager.Prepare(4000)
	require.NoError(t, err)

	require.NoError(t, manager.WriteMarker(dir, 4000))

	data, err := os.ReadFile(filepath.Join(dir, domain.MarkerFileName))
	require.NoError(t, err)
	assert.Equal(t, "4000", string(data))
}

func TestRemoveDeletesWorkspace(t *testing.T) {
	t.Parallel()

	manager := NewManager(t.TempDir(), newInstallDir(t), nil)
	dir, err := manager.Prepare(570)
	require.NoError(t, err)

	require.NoError(t, manager.Remove(570))
	_, err = os.Stat(dir)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, manager.Remove(570))
}

func TestCheckDependencies(t *testing.T) {
	t.Parallel()

	install := t.TempDir()
	manager := NewManager(t.TempDir(), install, nil)

	err := manager.CheckDependencies()
	require.ErrorIs(t, err, domain.ErrMissingDependency)
	assert.Contains(t, err.Error(), HelperName())
	assert.Contains(t, err.Error(), steamapi.LibraryName)

	require.NoError(t, os.WriteFile(filepath.Join(install, HelperName()), []byte("x"), 0o755))
	deps := manager.Dependencies()
	require.Len(t, deps, 2)
	assert.True(t, deps[0].Present)
	assert.False(t, deps[1].Present)

	require.NoError(t, os.WriteFile(filepath.Join(install, steamapi.LibraryName), []byte("x"), 0o644))
	require.NoError(t, manager.CheckDependencies())
}

func TestCopyFilePreservesExecutableBit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("#!/bin/sh\n"), 0o755))

	require.NoError(t, copyFile(src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\n", string(data))
}
