package ports

import (
	"context"
	"time"

	"wallet-service/internal/core/domain/entity"
)

type OutboxRepository interface {
	// FetchPending claims up to limit due events for lease. A claimed event
	// not marked before the lease runs out is handed out again.
	FetchPending(ctx context.Context, limit int, lease time.Duration) ([]*entity.Outbox, error)
	MarkProcessed(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
	MarkForRetry(ctx context.Context, id string, nextAttemptAt time.Time) error
}
