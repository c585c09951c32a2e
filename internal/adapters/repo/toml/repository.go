package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/bnema/ghost-idler/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

const (
	stateFileMode   = 0o600
	stateDirMode    = 0o700
	tempFilePattern = ".state-*.toml.tmp"
)

// SessionRepository persists the session snapshot as a TOML file.
type SessionRepository struct {
	statePath string
	mu        *sync.RWMutex
	logger    *zap.Logger
	now       func() time.Time
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.SessionStore = (*SessionRepository)(nil)

func NewSessionRepository(statePath string, logger *zap.Logger) (*SessionRepository, error) {
	if statePath == "" {
		return nil, errors.New("state path is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	statePath, err := normalizeStatePath(statePath)
	if err != nil {
		return nil, err
	}

	return &SessionRepository{
		statePath: statePath,
		mu:        lockForPath(statePath),
		logger:    logger.Named("state"),
		now:       time.Now,
	}, nil
}

func (r *SessionRepository) Path() string {
	return r.statePath
}

// LoadSnapshot returns the persisted sessions. Malformed or duplicate records
// are skipped with a warning.
func (r *SessionRepository) LoadSnapshot(ctx context.Context) ([]domain.PersistedSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	seen := make(map[domain.AppID]struct{}, len(file.ActiveSessions))
	sessions := make([]domain.PersistedSession, 0, len(file.ActiveSessions))
	for _, raw := range file.ActiveSessions {
		session, err := domain.ParsePersistedSession(raw)
		if err != nil {
			r.logger.Warn("skipping malformed session record", zap.String("record", raw), zap.Error(err))
			continue
		}
		if _, dup := seen[session.AppID]; dup {
			r.logger.Warn("skipping duplicate session record", zap.String("record", raw))
			continue
		}
		seen[session.AppID] = struct{}{}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

func (r *SessionRepository) SaveSnapshot(ctx context.Context, sessions []domain.PersistedSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file := fileSchema{
		Version:        currentSchemaVersion,
		UpdatedAt:      r.now().UTC().Format(time.RFC3339),
		ActiveSessions: make([]string, 0, len(sessions)),
	}
	for _, session := range sessions {
		file.ActiveSessions = append(file.ActiveSessions, session.String())
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *SessionRepository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.statePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file := fileSchema{}
			file.applyDefaults()
			return file, nil
		}
		return fileSchema{}, fmt.Errorf("read state file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode state file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizeStatePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve state path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *SessionRepository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.statePath), stateDirMode); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.statePath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}

	if err := tempFile.Chmod(stateFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp state file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tempName, r.statePath); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	cleanup = false

	return nil
}
