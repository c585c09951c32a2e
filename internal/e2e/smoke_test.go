package e2e

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/bnema/ghost-idler/internal/ghost"
	"github.com/bnema/ghost-idler/internal/ghost/steamapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	installDir := t.TempDir()
	gidle := buildBinary(t, installDir, "gidle")
	buildBinary(t, installDir, "ghost")
	require.NoError(t, os.WriteFile(filepath.Join(installDir, steamapi.LibraryName), []byte("not a library"), 0o644))
	require.NoError(t, writeStateFixture(home))

	env := []string{"HOME=" + home, "USERPROFILE=" + home, "GIDLE_INSTALL_DIR=" + installDir}

	stdout, stderr, err := runBinary(t, gidle, "", env, "doctor")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.NotContains(t, stdout, "missing")

	stdout, stderr, err = runBinary(t, gidle, "", env, "sessions")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Alpha (100)")
}

func TestHelperExitCodes(t *testing.T) {
	installDir := t.TempDir()
	helper := buildBinary(t, installDir, "ghost")

	workspace := t.TempDir()
	_, _, err := runBinary(t, helper, workspace, nil)
	assert.Equal(t, ghost.ExitBadMarker, exitCode(t, err))

	require.NoError(t, os.WriteFile(filepath.Join(workspace, domain.MarkerFileName), []byte(" 570\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(workspace, steamapi.LibraryName), []byte("not a library"), 0o644))
	_, _, err = runBinary(t, helper, workspace, nil)
	assert.Equal(t, ghost.ExitLoadFailed, exitCode(t, err))
}

func buildBinary(t *testing.T, dir, name string) string {
	t.Helper()

	binaryPath := filepath.Join(dir, name)
	if runtime.GOOS == "windows" {
		binaryPath += ".exe"
	}
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/"+name)
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build %s binary: %s", name, string(output))
	return binaryPath
}

func runBinary(t *testing.T, binaryPath, dir string, env []string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()

	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "unexpected error: %v", err)
	return exitErr.ExitCode()
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeStateFixture(home string) error {
	dataDir := filepath.Join(home, ".config", "ghost-idler")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dataDir, "state.toml"), []byte("version = 1\nactive_sessions = [\"100:Alpha:0\"]\n"), 0o644)
}
