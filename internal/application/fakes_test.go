package application

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/bnema/ghost-idler/internal/ports"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeProcess struct {
	pid        int
	ignoreTerm bool
	done       chan struct{}
	once       sync.Once

	mu         sync.Mutex
	terminated int
	killed     int
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	p.terminated++
	p.mu.Unlock()

	if !p.ignoreTerm {
		p.exit()
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	p.killed++
	p.mu.Unlock()

	p.exit()
	return nil
}

func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Err() error { return nil }

func (p *fakeProcess) exit() {
	p.once.Do(func() { close(p.done) })
}

func (p *fakeProcess) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated, p.killed
}

func (p *fakeProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

type fakeLauncher struct {
	mu         sync.Mutex
	nextPID    int
	ignoreTerm bool
	failDirs   map[string]error
	launched   []*fakeProcess
	dirs       []string
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{nextPID: 1000, failDirs: map[string]error{}}
}

func (l *fakeLauncher) Launch(ctx context.Context, dir string) (ports.Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err, ok := l.failDirs[dir]; ok {
		return nil, err
	}

	l.nextPID++
	proc := &fakeProcess{pid: l.nextPID, ignoreTerm: l.ignoreTerm, done: make(chan struct{})}
	l.launched = append(l.launched, proc)
	l.dirs = append(l.dirs, dir)
	return proc, nil
}

func (l *fakeLauncher) failFor(dir string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failDirs[dir] = err
}

func (l *fakeLauncher) launches() []*fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*fakeProcess(nil), l.launched...)
}

func (l *fakeLauncher) last() *fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launched[len(l.launched)-1]
}

type fakeWorkspace struct {
	root       string
	prepareErr error

	mu      sync.Mutex
	events  []string
	markers map[string]domain.AppID
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{root: filepath.Join("ws"), markers: map[string]domain.AppID{}}
}

func (w *fakeWorkspace) dir(appID domain.AppID) string {
	return filepath.Join(w.root, appID.String())
}

func (w *fakeWorkspace) Prepare(appID domain.AppID) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.prepareErr != nil {
		return "", w.prepareErr
	}
	w.events = append(w.events, fmt.Sprintf("prepare:%d", appID))
	return w.dir(appID), nil
}

func (w *fakeWorkspace) WriteMarker(dir string, appID domain.AppID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.markers[dir] = appID
	return nil
}

func (w *fakeWorkspace) Remove(appID domain.AppID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, fmt.Sprintf("remove:%d", appID))
	return nil
}

func (w *fakeWorkspace) log() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.events...)
}

func (w *fakeWorkspace) removed(appID domain.AppID) bool {
	want := fmt.Sprintf("remove:%d", appID)
	for _, event := range w.log() {
		if event == want {
			return true
		}
	}
	return false
}

type inMemorySessionStore struct {
	mu      sync.Mutex
	initial []domain.PersistedSession
	saves   [][]domain.PersistedSession
}

func (s *inMemorySessionStore) LoadSnapshot(ctx context.Context) ([]domain.PersistedSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.PersistedSession(nil), s.initial...), nil
}

func (s *inMemorySessionStore) SaveSnapshot(ctx context.Context, sessions []domain.PersistedSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, append([]domain.PersistedSession(nil), sessions...))
	return nil
}

func (s *inMemorySessionStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *inMemorySessionStore) lastSave() []domain.PersistedSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saves) == 0 {
		return nil
	}
	return s.saves[len(s.saves)-1]
}

type historyEvent struct {
	id      int64
	appID   domain.AppID
	elapsed time.Duration
	status  domain.HistoryStatus
}

type inMemoryHistory struct {
	mu     sync.Mutex
	nextID int64
	apps   map[int64]domain.AppID
	events []historyEvent
}

func newInMemoryHistory() *inMemoryHistory {
	return &inMemoryHistory{apps: map[int64]domain.AppID{}}
}

func (h *inMemoryHistory) RecordStart(_ context.Context, appID domain.AppID, _ string, _ time.Time) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.apps[h.nextID] = appID
	h.events = append(h.events, historyEvent{id: h.nextID, appID: appID, status: domain.HistoryActive})
	return h.nextID, nil
}

func (h *inMemoryHistory) RecordStop(_ context.Context, id int64, _ time.Time, elapsed time.Duration, status domain.HistoryStatus) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, historyEvent{id: id, appID: h.apps[id], elapsed: elapsed, status: status})
	return nil
}

func (h *inMemoryHistory) log() []historyEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]historyEvent(nil), h.events...)
}

type countingObserver struct {
	mu       sync.Mutex
	launches int
	failures int
	ended    []domain.HistoryStatus
	counts   domain.SessionCounts
}

func (o *countingObserver) LaunchAttempted(_ domain.AppID, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.launches++
	if err != nil {
		o.failures++
	}
}

func (o *countingObserver) SessionEnded(_ domain.AppID, status domain.HistoryStatus, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ended = append(o.ended, status)
}

func (o *countingObserver) SessionsChanged(counts domain.SessionCounts) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts = counts
}

func (o *countingObserver) snapshot() (int, int, domain.SessionCounts) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.launches, o.failures, o.counts
}
