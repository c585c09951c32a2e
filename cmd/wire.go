package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	historystore "github.com/bnema/ghost-idler/internal/adapters/history/sqlite"
	statusadapter "github.com/bnema/ghost-idler/internal/adapters/render/status"
	tomlrepo "github.com/bnema/ghost-idler/internal/adapters/repo/toml"
	"github.com/bnema/ghost-idler/internal/adapters/workspace"
	"github.com/bnema/ghost-idler/internal/config"
	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/bnema/ghost-idler/internal/logging"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type app struct {
	cfg              config.Config
	viper            *viper.Viper
	sessionsRenderer func([]domain.PersistedSession) (string, error)
	historyRenderer  func([]domain.HistoryRecord, time.Duration) (string, error)
	now              func() time.Time
}

func newApp() *app {
	return &app{
		viper:            viper.New(),
		sessionsRenderer: statusadapter.RenderSnapshot,
		historyRenderer:  statusadapter.RenderHistory,
		now:              time.Now,
	}
}

func (a *app) load(configFile string) error {
	cfg, err := config.Load(a.viper, configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	return nil
}

// newLogger writes to the log file and, when stderr is not owned by the
// dashboard, to stderr as well.
func (a *app) newLogger(withStderr bool) (*zap.Logger, io.Closer, error) {
	outputs := []string{a.cfg.LogPath}
	if withStderr {
		outputs = append(outputs, logging.Stderr)
	}

	logger, closer, err := logging.New(logging.Config{
		Level:       logging.LevelFor(a.cfg.VerboseLogging),
		OutputPaths: outputs,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire logger: %w", err)
	}
	return logger, closer, nil
}

func (a *app) workspaceManager(logger *zap.Logger) *workspace.Manager {
	return workspace.NewManager(a.cfg.WorkspaceRoot, a.cfg.InstallDir, logger)
}

func (a *app) sessionRepository(logger *zap.Logger) (*tomlrepo.SessionRepository, error) {
	repo, err := tomlrepo.NewSessionRepository(a.cfg.StatePath, logger)
	if err != nil {
		return nil, fmt.Errorf("wire session repository: %w", err)
	}
	return repo, nil
}

func (a *app) openHistory(ctx context.Context) (*historystore.Store, error) {
	store, err := historystore.Open(ctx, a.cfg.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("wire history store: %w", err)
	}
	return store, nil
}
