package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	historystore "github.com/bnema/ghost-idler/internal/adapters/history/sqlite"
	"github.com/bnema/ghost-idler/internal/adapters/metrics"
	"github.com/bnema/ghost-idler/internal/adapters/process"
	statusadapter "github.com/bnema/ghost-idler/internal/adapters/render/status"
	"github.com/bnema/ghost-idler/internal/adapters/workspace"
	"github.com/bnema/ghost-idler/internal/application"
	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/bnema/ghost-idler/internal/ports"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 15 * time.Second
	cleanupInterval = 24 * time.Hour
	historyTimeout  = 5 * time.Second
)

type target struct {
	appID domain.AppID
	name  string
}

func newRunCmd(app *app) *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "run [appid[=name]...]",
		Short: "Idle the given games and restore the previous sessions",
		Long:  "run starts the idler. Games saved from the previous run are restored (unless auto_resume is off) and every appid argument is started as well. Without --headless an interactive dashboard is shown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := parseTargets(args)
			if err != nil {
				return err
			}
			return runIdler(cmd, app, targets, headless)
		},
	}

	cmd.Flags().BoolVar(&headless, "headless", false, "Run without the dashboard and log session changes instead")
	return cmd
}

func parseTargets(args []string) ([]target, error) {
	targets := make([]target, 0, len(args))
	for _, arg := range args {
		rawID, name, _ := strings.Cut(arg, "=")
		appID, err := domain.ParseAppID(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", arg, err)
		}
		targets = append(targets, target{appID: appID, name: strings.TrimSpace(name)})
	}
	return targets, nil
}

func runIdler(cmd *cobra.Command, app *app, targets []target, headless bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, closer, err := app.newLogger(headless)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	defer func() { _ = logger.Sync() }()

	lock, err := process.AcquireInstanceLock(app.cfg.LockPath)
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release instance lock", zap.Error(err))
		}
	}()

	ws := app.workspaceManager(logger)
	if err := ws.CheckDependencies(); err != nil {
		return fmt.Errorf("check dependencies (run `gidle doctor`): %w", err)
	}

	history, err := app.openHistory(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	if closed, err := history.CloseDangling(ctx, app.now()); err != nil {
		logger.Warn("close dangling history records", zap.Error(err))
	} else if closed > 0 {
		logger.Info("closed dangling history records", zap.Int64("count", closed))
	}

	store, err := app.sessionRepository(logger)
	if err != nil {
		return err
	}

	observer := metrics.NewObserver()
	orchestrator := application.NewOrchestrator(application.Dependencies{
		Workspace: ws,
		Launcher:  process.NewLauncher(workspace.HelperName(), logger),
		Store:     store,
		History:   history,
		Observer:  observer,
		Clock:     ports.SystemClock{},
		Logger:    logger,
	}, application.Options{
		AutoResume:      app.cfg.AutoResume,
		StartTimeout:    app.cfg.Timeouts.Start,
		KillGrace:       app.cfg.Timeouts.KillGrace,
		PersistDebounce: app.cfg.Timeouts.PersistDebounce,
	})

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	if app.cfg.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metrics.Serve(runCtx, app.cfg.MetricsAddr, observer.Registry(), logger); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		bootstrapSessions(runCtx, orchestrator, targets, app.cfg.Timeouts.RestoreDelay, logger)
	}()
	go func() {
		defer wg.Done()
		cleanupHistory(runCtx, history, app.cfg.HistoryRetention, app.now, logger)
	}()

	var runErr error
	if headless {
		logger.Info("idler running", zap.Int("requested", len(targets)))
		watchHeadless(runCtx, orchestrator, logger)
	} else {
		runErr = statusadapter.RunDashboard(runCtx, orchestrator, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	cancel()
	wg.Wait()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	if err := orchestrator.Close(closeCtx); err != nil {
		logger.Warn("orchestrator shutdown", zap.Error(err))
	}
	logger.Info("idler stopped")

	return runErr
}

// bootstrapSessions restores the saved snapshot after a short delay, then
// starts the games requested on the command line.
func bootstrapSessions(ctx context.Context, orchestrator *application.Orchestrator, targets []target, delay time.Duration, logger *zap.Logger) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if err := orchestrator.RestoreSessions(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("restore sessions", zap.Error(err))
	}

	for _, t := range targets {
		if err := orchestrator.Start(ctx, t.appID, t.name); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("start session", zap.Uint32("app_id", uint32(t.appID)), zap.Error(err))
		}
	}
}

func cleanupHistory(ctx context.Context, history *historystore.Store, retention time.Duration, now func() time.Time, logger *zap.Logger) {
	if retention <= 0 {
		return
	}

	prune := func() {
		pruneCtx, cancel := context.WithTimeout(ctx, historyTimeout)
		defer cancel()

		removed, err := history.Cleanup(pruneCtx, now().Add(-retention))
		if err != nil {
			logger.Warn("history cleanup", zap.Error(err))
			return
		}
		if removed > 0 {
			logger.Info("history cleanup", zap.Int64("removed", removed))
		}
	}

	prune()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

func watchHeadless(ctx context.Context, orchestrator *application.Orchestrator, logger *zap.Logger) {
	changes, unsubscribe := orchestrator.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			sessions := orchestrator.ActiveSessions()
			logger.Info(statusadapter.Summary(domain.CountSessions(sessions)))
		}
	}
}
