package ports

import (
	"context"
	"time"

	"github.com/bnema/ghost-idler/internal/domain"
)

type HistoryRecorder interface {
	RecordStart(ctx context.Context, appID domain.AppID, name string, at time.Time) (int64, error)
	RecordStop(ctx context.Context, id int64, at time.Time, elapsed time.Duration, status domain.HistoryStatus) error
}

type HistoryRepository interface {
	HistoryRecorder
	Recent(ctx context.Context, limit int) ([]domain.HistoryRecord, error)
	ByApp(ctx context.Context, appID domain.AppID, limit int) ([]domain.HistoryRecord, error)
	TotalIdle(ctx context.Context) (time.Duration, error)
	CloseDangling(ctx context.Context, at time.Time) (int64, error)
	Cleanup(ctx context.Context, olderThan time.Time) (int64, error)
}
