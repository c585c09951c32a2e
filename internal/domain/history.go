package domain

import "time"

type HistoryStatus string

const (
	HistoryActive    HistoryStatus = "active"
	HistoryCompleted HistoryStatus = "completed"
	HistoryStopped   HistoryStatus = "stopped"
)

func (s HistoryStatus) Valid() bool {
	switch s {
	case HistoryActive, HistoryCompleted, HistoryStopped:
		return true
	default:
		return false
	}
}

type HistoryRecord struct {
	ID        int64
	AppID     AppID
	GameName  string
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
	Status    HistoryStatus
}
