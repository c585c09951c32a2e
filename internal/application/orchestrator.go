package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/bnema/ghost-idler/internal/ports"
	"go.uber.org/zap"
)

const (
	defaultStartTimeout    = 2 * time.Second
	defaultKillGrace       = 3 * time.Second
	defaultPersistDebounce = 50 * time.Millisecond
	historyTimeout         = 2 * time.Second
)

type Options struct {
	AutoResume      bool
	StartTimeout    time.Duration
	KillGrace       time.Duration
	PersistDebounce time.Duration
}

func (o Options) withDefaults() Options {
	if o.StartTimeout <= 0 {
		o.StartTimeout = defaultStartTimeout
	}
	if o.KillGrace <= 0 {
		o.KillGrace = defaultKillGrace
	}
	if o.PersistDebounce <= 0 {
		o.PersistDebounce = defaultPersistDebounce
	}
	return o
}

type Dependencies struct {
	Workspace ports.Workspace
	Launcher  ports.ProcessLauncher
	Store     ports.SessionStore
	History   ports.HistoryRecorder
	Observer  ports.SessionObserver
	Clock     ports.Clock
	Logger    *zap.Logger
}

// Orchestrator owns the registry of idle sessions. Every mutation runs on a
// single loop goroutine; public methods submit work to it and wait.
type Orchestrator struct {
	workspace ports.Workspace
	launcher  ports.ProcessLauncher
	store     ports.SessionStore
	history   ports.HistoryRecorder
	observer  ports.SessionObserver
	clock     ports.Clock
	logger    *zap.Logger
	opts      Options

	ops     chan func()
	quit    chan struct{}
	stopped chan struct{}
	saves   chan []domain.PersistedSession
	written chan struct{}

	// loop-owned
	sessions     map[domain.AppID]*entry
	nextGen      uint64
	removals     map[domain.AppID]uint64
	removalSeq   uint64
	persistTimer *time.Timer
	closing      bool

	tasks     sync.WaitGroup
	restored  atomic.Bool
	closeOnce sync.Once

	subMu       sync.Mutex
	subscribers map[int]chan struct{}
	nextSubID   int
}

type entry struct {
	name      string
	paused    bool
	pausedAt  time.Time
	accrued   time.Duration
	runStart  time.Time
	proc      ports.Process
	gen       uint64
	historyID int64
}

func (e *entry) session(appID domain.AppID) domain.Session {
	session := domain.Session{
		AppID:    appID,
		Name:     e.name,
		Paused:   e.paused,
		PausedAt: e.pausedAt,
		Accrued:  e.accrued,
		RunStart: e.runStart,
	}
	if e.proc != nil {
		session.PID = e.proc.PID()
	}
	return session
}

func NewOrchestrator(deps Dependencies, opts Options) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.Observer == nil {
		deps.Observer = ports.NopObserver{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	o := &Orchestrator{
		workspace:   deps.Workspace,
		launcher:    deps.Launcher,
		store:       deps.Store,
		history:     deps.History,
		observer:    deps.Observer,
		clock:       deps.Clock,
		logger:      deps.Logger.Named("orchestrator"),
		opts:        opts.withDefaults(),
		ops:         make(chan func()),
		quit:        make(chan struct{}),
		stopped:     make(chan struct{}),
		saves:       make(chan []domain.PersistedSession, 1),
		written:     make(chan struct{}),
		sessions:    map[domain.AppID]*entry{},
		removals:    map[domain.AppID]uint64{},
		subscribers: map[int]chan struct{}{},
	}

	go o.loop()
	go o.writeSnapshots()

	return o
}

func (o *Orchestrator) loop() {
	defer close(o.stopped)

	for {
		select {
		case fn := <-o.ops:
			fn()
		case <-o.quit:
			return
		}
	}
}

// do runs fn on the loop and waits for it to finish.
func (o *Orchestrator) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}

	select {
	case o.ops <- task:
	case <-o.quit:
		return domain.ErrOrchestratorClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	<-done
	return nil
}

// post queues fn without waiting; it is dropped once the loop has quit.
func (o *Orchestrator) post(fn func()) {
	select {
	case o.ops <- fn:
	case <-o.quit:
	}
}

func (o *Orchestrator) Start(ctx context.Context, appID domain.AppID, name string) error {
	var err error
	if doErr := o.do(ctx, func() { err = o.start(ctx, appID, name) }); doErr != nil {
		return doErr
	}
	return err
}

func (o *Orchestrator) Stop(ctx context.Context, appID domain.AppID) error {
	return o.do(ctx, func() { o.stop(appID) })
}

func (o *Orchestrator) Pause(ctx context.Context, appID domain.AppID) error {
	return o.do(ctx, func() { o.pause(appID) })
}

func (o *Orchestrator) Resume(ctx context.Context, appID domain.AppID) error {
	var err error
	if doErr := o.do(ctx, func() { err = o.resume(ctx, appID) }); doErr != nil {
		return doErr
	}
	return err
}

func (o *Orchestrator) TogglePauseResume(ctx context.Context, appID domain.AppID) error {
	var err error
	doErr := o.do(ctx, func() {
		e, ok := o.sessions[appID]
		switch {
		case !ok:
		case e.paused:
			err = o.resume(ctx, appID)
		default:
			o.pause(appID)
		}
	})
	if doErr != nil {
		return doErr
	}
	return err
}

func (o *Orchestrator) PauseAll(ctx context.Context) error {
	return o.do(ctx, func() {
		for _, appID := range o.sortedIDs() {
			o.pause(appID)
		}
	})
}

// ResumeAll relaunches every paused session; failures are joined and the
// remaining sessions are still attempted.
func (o *Orchestrator) ResumeAll(ctx context.Context) error {
	var errs []error
	doErr := o.do(ctx, func() {
		for _, appID := range o.sortedIDs() {
			if err := o.resume(ctx, appID); err != nil {
				errs = append(errs, err)
			}
		}
	})
	if doErr != nil {
		return doErr
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) StopAll(ctx context.Context) error {
	return o.do(ctx, func() {
		for _, appID := range o.sortedIDs() {
			o.stop(appID)
		}
	})
}

// ActiveSessions returns copies of every tracked session ordered by app id.
func (o *Orchestrator) ActiveSessions() []domain.Session {
	var sessions []domain.Session
	_ = o.do(context.Background(), func() {
		sessions = o.snapshotSessions()
	})
	return sessions
}

func (o *Orchestrator) IsIdling(appID domain.AppID) bool {
	var idling bool
	_ = o.do(context.Background(), func() {
		e, ok := o.sessions[appID]
		idling = ok && !e.paused
	})
	return idling
}

func (o *Orchestrator) Duration(appID domain.AppID) time.Duration {
	var elapsed time.Duration
	_ = o.do(context.Background(), func() {
		if e, ok := o.sessions[appID]; ok {
			elapsed = e.session(appID).Elapsed(o.clock.Now())
		}
	})
	return elapsed
}

// RestoreSessions reinstates the persisted snapshot once. Paused records come
// back as placeholders without a helper; the rest are relaunched.
func (o *Orchestrator) RestoreSessions(ctx context.Context) error {
	if !o.opts.AutoResume {
		o.logger.Info("auto resume disabled, skipping session restore")
		return nil
	}
	if !o.restored.CompareAndSwap(false, true) {
		return nil
	}

	records, err := o.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load session snapshot: %w", err)
	}

	return o.do(ctx, func() {
		for _, record := range records {
			if _, exists := o.sessions[record.AppID]; exists {
				continue
			}

			if record.Paused {
				o.sessions[record.AppID] = &entry{
					name:     record.Name,
					paused:   true,
					pausedAt: o.clock.Now(),
				}
				o.changed()
				continue
			}

			if err := o.start(ctx, record.AppID, record.Name); err != nil {
				o.logger.Warn("restore session failed", appField(record.AppID), zap.Error(err))
			}
		}
		o.logger.Info("sessions restored", zap.Int("count", len(o.sessions)))
	})
}

// Subscribe returns a channel that receives a coalesced signal after every
// registry change. The channel is closed by cancel or Close.
func (o *Orchestrator) Subscribe() (<-chan struct{}, func()) {
	o.subMu.Lock()
	defer o.subMu.Unlock()

	ch := make(chan struct{}, 1)
	if o.subscribers == nil {
		close(ch)
		return ch, func() {}
	}

	id := o.nextSubID
	o.nextSubID++
	o.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.subMu.Lock()
			defer o.subMu.Unlock()
			if sub, ok := o.subscribers[id]; ok {
				delete(o.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close terminates every running helper, flushes the snapshot and stops the
// loop. The persisted snapshot keeps running sessions so they can be restored.
func (o *Orchestrator) Close(ctx context.Context) error {
	err := domain.ErrOrchestratorClosed
	o.closeOnce.Do(func() {
		var leftovers []domain.AppID
		err = o.do(ctx, func() { leftovers = o.shutdown() })
		if err != nil {
			o.logger.Warn("shutdown did not run on the loop", zap.Error(err))
		}

		close(o.quit)
		<-o.stopped
		close(o.saves)

		waitErr := o.waitTasks(ctx)
		for _, appID := range leftovers {
			if removeErr := o.workspace.Remove(appID); removeErr != nil {
				o.logger.Warn("remove workspace", appField(appID), zap.Error(removeErr))
			}
		}

		select {
		case <-o.written:
		case <-ctx.Done():
			waitErr = errors.Join(waitErr, ctx.Err())
		}

		o.subMu.Lock()
		for id, ch := range o.subscribers {
			close(ch)
			delete(o.subscribers, id)
		}
		o.subscribers = nil
		o.subMu.Unlock()

		err = errors.Join(err, waitErr)
	})
	return err
}

func (o *Orchestrator) waitTasks(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for helper teardown: %w", ctx.Err())
	}
}

func (o *Orchestrator) sortedIDs() []domain.AppID {
	ids := make([]domain.AppID, 0, len(o.sessions))
	for appID := range o.sessions {
		ids = append(ids, appID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (o *Orchestrator) snapshotSessions() []domain.Session {
	ids := o.sortedIDs()
	sessions := make([]domain.Session, 0, len(ids))
	for _, appID := range ids {
		sessions = append(sessions, o.sessions[appID].session(appID))
	}
	return sessions
}

func (o *Orchestrator) changed() {
	o.requestPersist()
	o.observer.SessionsChanged(domain.CountSessions(o.snapshotSessions()))
	o.notify()
}

func (o *Orchestrator) notify() {
	o.subMu.Lock()
	defer o.subMu.Unlock()

	for _, ch := range o.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func appField(appID domain.AppID) zap.Field {
	return zap.Uint32("app_id", uint32(appID))
}
