package worker

import (
	"context"
	"log/slog"
	"time"

	"wallet-service/internal/core/domain/entity"
	"wallet-service/internal/core/domain/ports"
)

const (
	defaultInterval    = 500 * time.Millisecond
	defaultBatchSize   = 50
	defaultMaxAttempts = 5
	publishTimeout     = 5 * time.Second
	baseRetryDelay     = time.Second
	maxRetryDelay      = 5 * time.Minute
)

type Options struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	// ClaimLease is how long a fetched event stays reserved for this worker.
	// Defaults to the worst-case batch publish time plus a minute.
	ClaimLease  time.Duration
}

// OutboxWorker relays committed wallet events to the broker. Events that fail
// to publish are rescheduled with exponential backoff and parked as FAILED
// after MaxAttempts.
type OutboxWorker struct {
	outboxRepo  ports.OutboxRepository
	publisher   ports.EventPublisher
	interval    time.Duration
	batchSize   int
	maxAttempts int
	claimLease  time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

func NewOutboxWorker(
	outboxRepo ports.OutboxRepository,
	publisher ports.EventPublisher,
	opts Options,
	logger *slog.Logger,
) *OutboxWorker {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.ClaimLease <= 0 {
		opts.ClaimLease = time.Duration(opts.BatchSize)*publishTimeout + time.Minute
	}

	return &OutboxWorker{
		outboxRepo:  outboxRepo,
		publisher:   publisher,
		interval:    opts.Interval,
		batchSize:   opts.BatchSize,
		maxAttempts: opts.MaxAttempts,
		claimLease:  opts.ClaimLease,
		logger:      logger,
		now:         time.Now,
	}
}

func (w *OutboxWorker) Run(ctx context.Context) {
	w.logger.InfoContext(ctx, "outbox worker started",
		slog.Duration("interval", w.interval),
		slog.Int("batch_size", w.batchSize),
		slog.Int("max_attempts", w.maxAttempts),
		slog.Duration("claim_lease", w.claimLease),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "outbox worker stopped")
			return
		case <-ticker.C:
			w.process(ctx)
		}
	}
}

func (w *OutboxWorker) process(ctx context.Context) {
	events, err := w.outboxRepo.FetchPending(ctx, w.batchSize, w.claimLease)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to fetch pending events", slog.String("error", err.Error()))
		return
	}

	if len(events) == 0 {
		return
	}

	w.logger.InfoContext(ctx, "processing outbox events", slog.Int("count", len(events)))

	for _, event := range events {
		w.processEvent(ctx, event)
	}
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *entity.Outbox) {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := w.publisher.Publish(pubCtx, event); err != nil {
		w.handleFailure(ctx, event, err)
		return
	}

	if err := w.outboxRepo.MarkProcessed(ctx, event.ID); err != nil {
		w.logger.ErrorContext(ctx, "failed to mark event as processed",
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	w.logger.DebugContext(ctx, "event processed",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
	)
}

func (w *OutboxWorker) handleFailure(ctx context.Context, event *entity.Outbox, cause error) {
	attempt := event.Attempts + 1

	if attempt >= w.maxAttempts {
		w.logger.ErrorContext(ctx, "giving up on event",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type),
			slog.Int("attempts", attempt),
			slog.String("error", cause.Error()),
		)
		if err := w.outboxRepo.MarkFailed(ctx, event.ID); err != nil {
			w.logger.ErrorContext(ctx, "failed to mark event as failed",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	next := w.now().Add(Backoff(attempt))
	w.logger.WarnContext(ctx, "failed to publish event, retry scheduled",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
		slog.Int("attempt", attempt),
		slog.Time("next_attempt_at", next),
		slog.String("error", cause.Error()),
	)
	if err := w.outboxRepo.MarkForRetry(ctx, event.ID, next); err != nil {
		w.logger.ErrorContext(ctx, "failed to schedule retry",
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Backoff returns the delay before retry number attempt: 1s, 2s, 4s, ...
// capped at five minutes.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := baseRetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}
