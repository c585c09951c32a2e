package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/bnema/ghost-idler/internal/ports"
	"go.uber.org/zap"
)

type Launcher struct {
	helperName string
	logger     *zap.Logger
}

var _ ports.ProcessLauncher = (*Launcher)(nil)

func NewLauncher(helperName string, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Launcher{helperName: helperName, logger: logger.Named("launcher")}
}

// Launch starts the helper found in dir with dir as its working directory,
// no console window and no standard streams. It gives up when ctx expires
// before the process has been created.
func (l *Launcher) Launch(ctx context.Context, dir string) (ports.Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(filepath.Join(dir, l.helperName))
	cmd.Dir = dir
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	configureHidden(cmd)

	started := make(chan error, 1)
	go func() { started <- cmd.Start() }()

	select {
	case err := <-started:
		if err != nil {
			return nil, fmt.Errorf("start helper: %w", err)
		}
	case <-ctx.Done():
		go func() {
			if err := <-started; err == nil {
				_ = cmd.Process.Kill()
				_ = cmd.Wait()
			}
		}()
		return nil, fmt.Errorf("start helper: %w", ctx.Err())
	}

	proc := &helperProcess{cmd: cmd, done: make(chan struct{})}
	go proc.wait()

	l.logger.Debug("helper started", zap.Int("pid", proc.PID()), zap.String("dir", dir))

	return proc, nil
}

type helperProcess struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu  sync.Mutex
	err error
}

func (p *helperProcess) wait() {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.err = err
	p.mu.Unlock()

	close(p.done)
}

func (p *helperProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *helperProcess) Terminate() error {
	if p.exited() {
		return nil
	}
	return ignoreDone(terminate(p.cmd.Process))
}

func (p *helperProcess) Kill() error {
	if p.exited() {
		return nil
	}
	return ignoreDone(p.cmd.Process.Kill())
}

func (p *helperProcess) Done() <-chan struct{} {
	return p.done
}

func (p *helperProcess) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *helperProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func ignoreDone(err error) error {
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
