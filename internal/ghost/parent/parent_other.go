//go:build !unix && !windows

package parent

import "errors"

var errUnsupported = errors.New("parent tracking is not supported on this platform")

func (Tracker) ParentPID() (int, error) {
	return 0, errUnsupported
}

func (Tracker) Open(int) (Handle, error) {
	return nil, errUnsupported
}
