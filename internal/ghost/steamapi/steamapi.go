// Package steamapi binds the handful of vendor SDK entry points the helper
// needs, loading the shared library at runtime from the workspace.
package steamapi

import (
	"errors"
	"fmt"
	"path/filepath"
)

const (
	symbolRestartApp = "SteamAPI_RestartAppIfNecessary"
	symbolInit       = "SteamAPI_Init"
	symbolShutdown   = "SteamAPI_Shutdown"
)

var (
	ErrLibraryLoad   = errors.New("load sdk library")
	ErrMissingSymbol = errors.New("sdk symbol not found")
)

type symbol struct {
	name     string
	optional bool
}

// Older SDK builds do not export the restart check; without it the helper
// skips straight to Init.
var symbols = []symbol{
	{name: symbolRestartApp, optional: true},
	{name: symbolInit},
	{name: symbolShutdown},
}

// bindSymbols resolves every symbol through bind and reports the required
// ones it could not find.
func bindSymbols(bind func(name string) error) error {
	var missing []error
	for _, sym := range symbols {
		if err := bind(sym.name); err != nil && !sym.optional {
			missing = append(missing, fmt.Errorf("%w: %s", ErrMissingSymbol, sym.name))
		}
	}
	return errors.Join(missing...)
}

type API interface {
	RestartAppIfNecessary(appID uint32) bool
	Init() bool
	Shutdown()
	Close() error
}

// Load opens LibraryName from dir and resolves the required entry points.
func Load(dir string) (API, error) {
	return loadLibrary(filepath.Join(dir, LibraryName))
}
