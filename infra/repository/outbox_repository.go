package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"wallet-service/internal/core/domain/entity"
)

type PostgresOutboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{db: db}
}

// FetchPending atomically claims due events and marks them PROCESSING
// using FOR UPDATE SKIP LOCKED to avoid concurrent processing. A claim pushes
// next_attempt_at out by lease, so rows left PROCESSING by a crashed worker
// become due again once it expires.
func (r *PostgresOutboxRepository) FetchPending(ctx context.Context, limit int, lease time.Duration) ([]*entity.Outbox, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_id, type, payload, attempts, created_at
		FROM outbox
		WHERE status IN ('PENDING', 'PROCESSING')
		  AND next_attempt_at <= NOW()
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}

	var events []*entity.Outbox
	var ids []string

	for rows.Next() {
		var e entity.Outbox
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.Type, &e.Payload, &e.Attempts, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		e.Status = entity.OutboxStatusProcessing
		events = append(events, &e)
		ids = append(ids, e.ID)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, nil
	}

	claimedUntil := time.Now().UTC().Add(lease)
	if _, err := tx.ExecContext(ctx, `
		UPDATE outbox SET status = 'PROCESSING', next_attempt_at = $2
		WHERE id = ANY($1)
	`, pq.Array(ids), claimedUntil); err != nil {
		return nil, err
	}
	for _, e := range events {
		e.NextAttemptAt = claimedUntil
	}

	return events, tx.Commit()
}

func (r *PostgresOutboxRepository) MarkProcessed(ctx context.Context, id string) error {
	return r.exec(ctx, `
		UPDATE outbox SET status = 'PROCESSED', processed_at = $2 WHERE id = $1
	`, id, time.Now().UTC())
}

func (r *PostgresOutboxRepository) MarkFailed(ctx context.Context, id string) error {
	return r.exec(ctx, `
		UPDATE outbox SET status = 'FAILED', attempts = attempts + 1 WHERE id = $1
	`, id)
}

func (r *PostgresOutboxRepository) MarkForRetry(ctx context.Context, id string, nextAttemptAt time.Time) error {
	return r.exec(ctx, `
		UPDATE outbox
		SET status = 'PENDING', attempts = attempts + 1, next_attempt_at = $2
		WHERE id = $1
	`, id, nextAttemptAt.UTC())
}

// exec runs a single-row update keyed by the event id in args[0].
func (r *PostgresOutboxRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrOutboxEventNotFound
	}
	return nil
}
