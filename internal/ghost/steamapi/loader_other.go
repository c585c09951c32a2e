//go:build !linux && !darwin && !windows

package steamapi

import "fmt"

func loadLibrary(path string) (API, error) {
	return nil, fmt.Errorf("%w: %s: dynamic loading is not supported on this platform", ErrLibraryLoad, path)
}
