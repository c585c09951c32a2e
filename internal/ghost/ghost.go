// Package ghost implements the helper process: it reads the app id marker
// from its working directory, initialises the vendor SDK as that app and
// stays alive for as long as the host that launched it.
package ghost

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/bnema/ghost-idler/internal/ghost/parent"
	"github.com/bnema/ghost-idler/internal/ghost/steamapi"
	"go.uber.org/zap"
)

const (
	ExitOK             = 0
	ExitBadMarker      = 1
	ExitLoadFailed     = 2
	ExitMissingSymbols = 3
	ExitInitFailed     = 4

	DefaultInitFailureGrace = 5 * time.Second
	DefaultOrphanGrace      = 30 * time.Second

	envAppID  = "SteamAppId"
	envGameID = "SteamGameId"
)

type ParentTracker interface {
	ParentPID() (int, error)
	Open(pid int) (parent.Handle, error)
}

type Options struct {
	Dir              string
	Logger           *zap.Logger
	LoadSDK          func(dir string) (steamapi.API, error)
	Parent           ParentTracker
	Setenv           func(key, value string) error
	InitFailureGrace time.Duration
	OrphanGrace      time.Duration
}

func (o Options) withDefaults() Options {
	if o.Dir == "" {
		o.Dir = "."
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.LoadSDK == nil {
		o.LoadSDK = steamapi.Load
	}
	if o.Parent == nil {
		o.Parent = parent.NewTracker()
	}
	if o.Setenv == nil {
		o.Setenv = os.Setenv
	}
	if o.InitFailureGrace <= 0 {
		o.InitFailureGrace = DefaultInitFailureGrace
	}
	if o.OrphanGrace <= 0 {
		o.OrphanGrace = DefaultOrphanGrace
	}
	return o
}

// Run executes the helper protocol and returns the process exit code.
func Run(ctx context.Context, opts Options) int {
	opts = opts.withDefaults()
	logger := opts.Logger

	appID, err := ReadMarker(opts.Dir)
	if err != nil {
		logger.Error("cannot read app id marker", zap.String("dir", opts.Dir), zap.Error(err))
		return ExitBadMarker
	}
	logger = logger.With(zap.Uint32("app_id", uint32(appID)))

	for _, key := range []string{envAppID, envGameID} {
		if err := opts.Setenv(key, appID.String()); err != nil {
			logger.Warn("cannot export environment variable", zap.String("key", key), zap.Error(err))
		}
	}

	sdk, err := opts.LoadSDK(opts.Dir)
	if err != nil {
		logger.Error("cannot load sdk", zap.Error(err))
		if errors.Is(err, steamapi.ErrMissingSymbol) {
			return ExitMissingSymbols
		}
		return ExitLoadFailed
	}
	defer func() {
		if err := sdk.Close(); err != nil {
			logger.Debug("release sdk library", zap.Error(err))
		}
	}()

	if sdk.RestartAppIfNecessary(uint32(appID)) {
		logger.Info("platform requested a relaunch through its client, exiting")
		return ExitOK
	}

	if !sdk.Init() {
		logger.Error("sdk initialisation failed", zap.Duration("grace", opts.InitFailureGrace))
		sleep(ctx, opts.InitFailureGrace)
		return ExitInitFailed
	}
	logger.Info("sdk initialised")

	waitForParent(ctx, opts, logger)

	sdk.Shutdown()
	logger.Info("sdk shut down")

	return ExitOK
}

// ReadMarker reads and validates the app id marker in dir.
func ReadMarker(dir string) (domain.AppID, error) {
	data, err := os.ReadFile(filepath.Join(dir, domain.MarkerFileName))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrInvalidMarker, err)
	}

	appID, err := domain.ParseAppID(string(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrInvalidMarker, err)
	}

	return appID, nil
}

func waitForParent(ctx context.Context, opts Options, logger *zap.Logger) {
	pid, err := opts.Parent.ParentPID()
	if err != nil {
		logger.Warn("parent discovery failed, idling for grace period",
			zap.Duration("grace", opts.OrphanGrace), zap.Error(err))
		sleep(ctx, opts.OrphanGrace)
		return
	}

	handle, err := opts.Parent.Open(pid)
	if err != nil {
		logger.Warn("cannot watch parent, idling for grace period",
			zap.Int("parent_pid", pid), zap.Duration("grace", opts.OrphanGrace), zap.Error(err))
		sleep(ctx, opts.OrphanGrace)
		return
	}
	defer func() { _ = handle.Close() }()

	logger.Info("waiting for parent to exit", zap.Int("parent_pid", pid))
	if err := handle.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("termination requested")
			return
		}
		logger.Warn("parent wait failed", zap.Int("parent_pid", pid), zap.Error(err))
		return
	}
	logger.Info("parent exited", zap.Int("parent_pid", pid))
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
