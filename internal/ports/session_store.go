package ports

import (
	"context"

	"github.com/bnema/ghost-idler/internal/domain"
)

type SessionStore interface {
	LoadSnapshot(ctx context.Context) ([]domain.PersistedSession, error)
	SaveSnapshot(ctx context.Context, sessions []domain.PersistedSession) error
}
