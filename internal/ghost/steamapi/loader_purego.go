//go:build linux || darwin

package steamapi

import (
	"fmt"

	"github.com/ebitengine/purego"
)

type library struct {
	handle     uintptr
	restartApp func(uint32) bool
	initFn     func() bool
	shutdownFn func()
}

func loadLibrary(path string) (API, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLibraryLoad, path, err)
	}

	lib := &library{handle: handle}
	targets := map[string]any{
		symbolRestartApp: &lib.restartApp,
		symbolInit:       &lib.initFn,
		symbolShutdown:   &lib.shutdownFn,
	}

	err = bindSymbols(func(name string) error {
		sym, err := purego.Dlsym(handle, name)
		if err != nil {
			return err
		}
		purego.RegisterFunc(targets[name], sym)
		return nil
	})
	if err != nil {
		_ = purego.Dlclose(handle)
		return nil, err
	}

	return lib, nil
}

func (l *library) RestartAppIfNecessary(appID uint32) bool {
	if l.restartApp == nil {
		return false
	}
	return l.restartApp(appID)
}

func (l *library) Init() bool {
	return l.initFn()
}

func (l *library) Shutdown() {
	l.shutdownFn()
}

func (l *library) Close() error {
	return purego.Dlclose(l.handle)
}
