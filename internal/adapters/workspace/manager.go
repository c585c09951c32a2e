package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/bnema/ghost-idler/internal/ghost/steamapi"
	"github.com/bnema/ghost-idler/internal/ports"
	"go.uber.org/zap"
)

const (
	dirMode    = 0o755
	markerMode = 0o644
)

type Manager struct {
	root       string
	installDir string
	logger     *zap.Logger
}

type Dependency struct {
	Name    string
	Path    string
	Present bool
}

var _ ports.Workspace = (*Manager)(nil)

func NewManager(root, installDir string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		root:       filepath.Clean(root),
		installDir: filepath.Clean(installDir),
		logger:     logger.Named("workspace"),
	}
}

func HelperName() string {
	if runtime.GOOS == "windows" {
		return "ghost.exe"
	}
	return "ghost"
}

func (m *Manager) Dir(appID domain.AppID) string {
	return filepath.Join(m.root, appID.String())
}

func (m *Manager) Prepare(appID domain.AppID) (string, error) {
	if appID == 0 {
		return "", domain.ErrInvalidAppID
	}

	dir := m.Dir(appID)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return "", fmt.Errorf("create workspace %s: %w", dir, err)
	}

	for _, name := range requiredFiles() {
		src := filepath.Join(m.installDir, name)
		dst := filepath.Join(dir, name)
		if err := m.materialize(src, dst); err != nil {
			return "", err
		}
	}

	return dir, nil
}

func (m *Manager) WriteMarker(dir string, appID domain.AppID) error {
	path := filepath.Join(dir, domain.MarkerFileName)
	if err := os.WriteFile(path, []byte(strconv.FormatUint(uint64(appID), 10)), markerMode); err != nil {
		return fmt.Errorf("write app id marker: %w", err)
	}
	return nil
}

func (m *Manager) Remove(appID domain.AppID) error {
	dir := m.Dir(appID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove workspace %s: %w", dir, err)
	}
	return nil
}

func (m *Manager) Dependencies() []Dependency {
	names := requiredFiles()
	deps := make([]Dependency, 0, len(names))
	for _, name := range names {
		path := filepath.Join(m.installDir, name)
		info, err := os.Stat(path)
		deps = append(deps, Dependency{
			Name:    name,
			Path:    path,
			Present: err == nil && info.Mode().IsRegular(),
		})
	}
	return deps
}

func (m *Manager) CheckDependencies() error {
	var errs []error
	for _, dep := range m.Dependencies() {
		if !dep.Present {
			errs = append(errs, fmt.Errorf("%w: %s", domain.ErrMissingDependency, dep.Path))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) materialize(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("inspect %s: %w", dst, err)
	}

	linkErr := os.Link(src, dst)
	if linkErr == nil {
		return nil
	}

	m.logger.Debug("hardlink failed, copying instead",
		zap.String("src", src),
		zap.String("dst", dst),
		zap.Error(linkErr),
	)

	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("copy %s into workspace: %w", filepath.Base(src), err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return err
	}

	cleanup = false
	return nil
}

func requiredFiles() []string {
	return []string{HelperName(), steamapi.LibraryName}
}
