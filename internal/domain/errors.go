package domain

import "errors"

var (
	ErrInvalidAppID        = errors.New("invalid app id")
	ErrInvalidMarker       = errors.New("invalid app id marker")
	ErrLaunchFailed        = errors.New("helper launch failed")
	ErrMissingDependency   = errors.New("missing helper dependency")
	ErrOrchestratorClosed  = errors.New("orchestrator is closed")
	ErrMalformedSnapshot   = errors.New("malformed session record")
	ErrInstanceRunning     = errors.New("another instance is already running")
	ErrSessionNotFound     = errors.New("session not found")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)
