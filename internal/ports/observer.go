package ports

import (
	"time"

	"github.com/bnema/ghost-idler/internal/domain"
)

type SessionObserver interface {
	LaunchAttempted(appID domain.AppID, err error)
	SessionEnded(appID domain.AppID, status domain.HistoryStatus, elapsed time.Duration)
	SessionsChanged(counts domain.SessionCounts)
}

type NopObserver struct{}

func (NopObserver) LaunchAttempted(domain.AppID, error) {}

func (NopObserver) SessionEnded(domain.AppID, domain.HistoryStatus, time.Duration) {}

func (NopObserver) SessionsChanged(domain.SessionCounts) {}
