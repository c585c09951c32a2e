package application

import (
	"context"
	"time"

	"github.com/bnema/ghost-idler/internal/domain"
	"go.uber.org/zap"
)

const snapshotWriteTimeout = 5 * time.Second

// requestPersist (re)arms the debounce timer. A burst of requests collapses
// into one flush which captures the registry as it is when the timer fires.
func (o *Orchestrator) requestPersist() {
	if o.persistTimer != nil {
		o.persistTimer.Reset(o.opts.PersistDebounce)
		return
	}

	o.persistTimer = time.AfterFunc(o.opts.PersistDebounce, func() {
		o.post(o.flushPending)
	})
}

func (o *Orchestrator) flushPending() {
	if o.persistTimer == nil {
		return
	}
	o.persistTimer = nil
	o.flush()
}

func (o *Orchestrator) flush() {
	snapshot := domain.SnapshotOf(o.snapshotSessions())

	// Only the newest snapshot matters; drop one the writer has not picked up yet.
	for {
		select {
		case o.saves <- snapshot:
			return
		default:
		}
		select {
		case <-o.saves:
		default:
		}
	}
}

func (o *Orchestrator) writeSnapshots() {
	defer close(o.written)

	for snapshot := range o.saves {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotWriteTimeout)
		err := o.store.SaveSnapshot(ctx, snapshot)
		cancel()
		if err != nil {
			o.logger.Error("persist sessions", zap.Int("count", len(snapshot)), zap.Error(err))
			continue
		}
		o.logger.Debug("sessions persisted", zap.Int("count", len(snapshot)))
	}
}
