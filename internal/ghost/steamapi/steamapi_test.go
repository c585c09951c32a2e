package steamapi

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingLibrary(t *testing.T) {
	t.Parallel()

	_, err := Load(t.TempDir())
	require.ErrorIs(t, err, ErrLibraryLoad)
	assert.Contains(t, err.Error(), LibraryName)
}

func TestLoadRejectsGarbageLibrary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, LibraryName), []byte("not a shared object"), 0o644))

	_, err := Load(dir)
	require.ErrorIs(t, err, ErrLibraryLoad)
}

func TestBindSymbolsToleratesMissingRestartCheck(t *testing.T) {
	t.Parallel()

	var bound []string
	err := bindSymbols(func(name string) error {
		if name == symbolRestartApp {
			return errors.New("not exported")
		}
		bound = append(bound, name)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{symbolInit, symbolShutdown}, bound)
}

func TestBindSymbolsReportsMissingRequiredSymbols(t *testing.T) {
	t.Parallel()

	err := bindSymbols(func(name string) error {
		if name == symbolRestartApp {
			return nil
		}
		return errors.New("not exported")
	})

	require.ErrorIs(t, err, ErrMissingSymbol)
	assert.Contains(t, err.Error(), symbolInit)
	assert.Contains(t, err.Error(), symbolShutdown)
	assert.NotContains(t, err.Error(), symbolRestartApp)
}
