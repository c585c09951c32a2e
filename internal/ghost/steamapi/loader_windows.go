//go:build windows

package steamapi

import (
	"fmt"

	"golang.org/x/sys/windows"
)

type library struct {
	dll        *windows.DLL
	restartApp *windows.Proc
	initFn     *windows.Proc
	shutdownFn *windows.Proc
}

func loadLibrary(path string) (API, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLibraryLoad, path, err)
	}

	lib := &library{dll: dll}
	targets := map[string]**windows.Proc{
		symbolRestartApp: &lib.restartApp,
		symbolInit:       &lib.initFn,
		symbolShutdown:   &lib.shutdownFn,
	}

	err = bindSymbols(func(name string) error {
		proc, err := dll.FindProc(name)
		if err != nil {
			return err
		}
		*targets[name] = proc
		return nil
	})
	if err != nil {
		_ = dll.Release()
		return nil, err
	}

	return lib, nil
}

// The SDK returns a C++ bool; only the low byte of the return register is defined.
func (l *library) RestartAppIfNecessary(appID uint32) bool {
	if l.restartApp == nil {
		return false
	}
	r1, _, _ := l.restartApp.Call(uintptr(appID))
	return byte(r1) != 0
}

func (l *library) Init() bool {
	r1, _, _ := l.initFn.Call()
	return byte(r1) != 0
}

func (l *library) Shutdown() {
	_, _, _ = l.shutdownFn.Call()
}

func (l *library) Close() error {
	return l.dll.Release()
}
