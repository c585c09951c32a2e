package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/ghost-idler/internal/domain"
	"github.com/bnema/ghost-idler/internal/ports"
	"go.uber.org/zap"
)

// Everything in this file runs on the loop goroutine.

func (o *Orchestrator) start(ctx context.Context, appID domain.AppID, name string) error {
	if o.closing {
		return domain.ErrOrchestratorClosed
	}
	if appID == 0 {
		return domain.ErrInvalidAppID
	}

	e, exists := o.sessions[appID]
	if exists && !e.paused {
		return nil
	}
	if exists {
		name = e.name
	}

	o.cancelRemoval(appID)

	proc, err := o.launch(ctx, appID)
	o.observer.LaunchAttempted(appID, err)
	if err != nil {
		o.logger.Error("start session failed", appField(appID), zap.String("name", name), zap.Error(err))
		if !exists {
			o.scheduleRemoval(appID, nil)
		}
		return err
	}

	now := o.clock.Now()
	if !exists {
		e = &entry{name: name}
		o.sessions[appID] = e
	}
	e.paused = false
	e.pausedAt = time.Time{}
	e.runStart = now
	e.proc = proc
	o.nextGen++
	e.gen = o.nextGen

	if e.historyID == 0 {
		e.historyID = o.recordStart(appID, name, now)
	}

	o.watch(appID, e.gen, proc)

	o.logger.Info("session started",
		appField(appID),
		zap.String("name", name),
		zap.Int("pid", proc.PID()),
		zap.Duration("accrued", e.accrued),
	)
	o.changed()

	return nil
}

func (o *Orchestrator) launch(ctx context.Context, appID domain.AppID) (ports.Process, error) {
	dir, err := o.workspace.Prepare(appID)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare workspace: %w", domain.ErrLaunchFailed, err)
	}

	if err := o.workspace.WriteMarker(dir, appID); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLaunchFailed, err)
	}

	launchCtx, cancel := context.WithTimeout(ctx, o.opts.StartTimeout)
	defer cancel()

	proc, err := o.launcher.Launch(launchCtx, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: launch helper: %w", domain.ErrLaunchFailed, err)
	}

	return proc, nil
}

func (o *Orchestrator) stop(appID domain.AppID) {
	e, ok := o.sessions[appID]
	if !ok {
		return
	}

	now := o.clock.Now()
	elapsed := e.session(appID).Elapsed(now)

	o.nextGen++
	e.gen = o.nextGen
	if e.proc != nil {
		o.terminate(appID, e.proc)
	}
	delete(o.sessions, appID)
	o.scheduleRemoval(appID, e.proc)

	o.recordStop(appID, e.historyID, now, elapsed, domain.HistoryStopped)
	o.observer.SessionEnded(appID, domain.HistoryStopped, elapsed)

	o.logger.Info("session stopped", appField(appID), zap.Duration("elapsed", elapsed))
	o.changed()
}

func (o *Orchestrator) pause(appID domain.AppID) {
	e, ok := o.sessions[appID]
	if !ok || e.paused {
		return
	}

	now := o.clock.Now()
	if run := now.Sub(e.runStart); run > 0 {
		e.accrued += run
	}

	o.nextGen++
	e.gen = o.nextGen
	if e.proc != nil {
		o.terminate(appID, e.proc)
	}
	e.proc = nil
	e.paused = true
	e.pausedAt = now
	e.runStart = time.Time{}

	o.logger.Info("session paused", appField(appID), zap.Duration("accrued", e.accrued))
	o.changed()
}

func (o *Orchestrator) resume(ctx context.Context, appID domain.AppID) error {
	e, ok := o.sessions[appID]
	if !ok || !e.paused {
		return nil
	}

	return o.start(ctx, appID, e.name)
}

func (o *Orchestrator) watch(appID domain.AppID, gen uint64, proc ports.Process) {
	go func() {
		<-proc.Done()
		o.post(func() { o.handleExit(appID, gen, proc) })
	}()
}

// handleExit treats a helper that exits on its own as an implicit stop.
// Exits of helpers that were already stopped, paused or replaced carry a
// stale generation and are ignored.
func (o *Orchestrator) handleExit(appID domain.AppID, gen uint64, proc ports.Process) {
	e, ok := o.sessions[appID]
	if !ok || e.paused || e.gen != gen {
		return
	}

	now := o.clock.Now()
	elapsed := e.session(appID).Elapsed(now)

	delete(o.sessions, appID)
	o.scheduleRemoval(appID, nil)

	o.recordStop(appID, e.historyID, now, elapsed, domain.HistoryCompleted)
	o.observer.SessionEnded(appID, domain.HistoryCompleted, elapsed)

	o.logger.Warn("helper exited unexpectedly",
		appField(appID),
		zap.Int("pid", proc.PID()),
		zap.Duration("elapsed", elapsed),
		zap.NamedError("exit", proc.Err()),
	)
	o.changed()
}

// terminate asks the helper to exit and kills it if it is still alive after
// the grace period.
func (o *Orchestrator) terminate(appID domain.AppID, proc ports.Process) {
	if err := proc.Terminate(); err != nil {
		o.logger.Warn("terminate helper", appField(appID), zap.Error(err))
	}

	o.tasks.Add(1)
	go func() {
		defer o.tasks.Done()

		timer := time.NewTimer(o.opts.KillGrace)
		defer timer.Stop()

		select {
		case <-proc.Done():
		case <-timer.C:
			o.logger.Warn("helper ignored termination, killing", appField(appID), zap.Int("pid", proc.PID()))
			if err := proc.Kill(); err != nil {
				o.logger.Warn("kill helper", appField(appID), zap.Error(err))
			}
		}
	}()
}

// scheduleRemoval deletes the workspace once proc (if any) has exited. A later
// start for the same app id cancels it.
func (o *Orchestrator) scheduleRemoval(appID domain.AppID, proc ports.Process) {
	o.removalSeq++
	token := o.removalSeq
	o.removals[appID] = token

	o.tasks.Add(1)
	go func() {
		defer o.tasks.Done()

		if proc != nil {
			timer := time.NewTimer(2 * o.opts.KillGrace)
			defer timer.Stop()
			select {
			case <-proc.Done():
			case <-timer.C:
			case <-o.quit:
				return
			}
		}

		o.post(func() { o.removeWorkspace(appID, token) })
	}()
}

func (o *Orchestrator) cancelRemoval(appID domain.AppID) {
	delete(o.removals, appID)
}

func (o *Orchestrator) removeWorkspace(appID domain.AppID, token uint64) {
	if o.removals[appID] != token {
		return
	}
	delete(o.removals, appID)

	if _, exists := o.sessions[appID]; exists {
		return
	}

	if err := o.workspace.Remove(appID); err != nil {
		o.logger.Warn("remove workspace", appField(appID), zap.Error(err))
		return
	}
	o.logger.Debug("workspace removed", appField(appID))
}

func (o *Orchestrator) recordStart(appID domain.AppID, name string, at time.Time) int64 {
	if o.history == nil {
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	id, err := o.history.RecordStart(ctx, appID, name, at)
	if err != nil {
		o.logger.Warn("record session start", appField(appID), zap.Error(err))
		return 0
	}
	return id
}

func (o *Orchestrator) recordStop(appID domain.AppID, historyID int64, at time.Time, elapsed time.Duration, status domain.HistoryStatus) {
	if o.history == nil || historyID == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	if err := o.history.RecordStop(ctx, historyID, at, elapsed, status); err != nil {
		o.logger.Warn("record session end", appField(appID), zap.Error(err))
	}
}

// shutdown runs once from Close: it flushes the snapshot with the registry as
// it stands, then terminates helpers. It returns the app ids whose workspaces
// should be removed after the helpers are gone.
func (o *Orchestrator) shutdown() []domain.AppID {
	o.closing = true
	if o.persistTimer != nil {
		o.persistTimer.Stop()
		o.persistTimer = nil
	}
	o.flush()

	now := o.clock.Now()
	var leftovers []domain.AppID
	for _, appID := range o.sortedIDs() {
		e := o.sessions[appID]
		if e.proc == nil {
			continue
		}

		elapsed := e.session(appID).Elapsed(now)
		o.nextGen++
		e.gen = o.nextGen
		o.terminate(appID, e.proc)
		o.recordStop(appID, e.historyID, now, elapsed, domain.HistoryCompleted)
		e.historyID = 0
		leftovers = append(leftovers, appID)
	}

	for appID := range o.removals {
		if _, exists := o.sessions[appID]; !exists {
			leftovers = append(leftovers, appID)
		}
	}
	o.removals = map[domain.AppID]uint64{}

	o.logger.Info("orchestrator shut down", zap.Int("terminated", len(leftovers)))
	return leftovers
}
