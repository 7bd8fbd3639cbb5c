package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "wallet:lock:account:"

var ErrEmptyAccount = errors.New("lock: account is required")

type RedisOptions struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Expiry:     10 * time.Second,
		Tries:      32,
		RetryDelay: 100 * time.Millisecond,
	}
}

// RedisLocker serializes work per account across service instances using
// the RedLock algorithm.
type RedisLocker struct {
	rs     *redsync.Redsync
	opts   RedisOptions
	logger *slog.Logger
}

func NewRedisLocker(client redis.UniversalClient, opts RedisOptions, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger,
	}
}

func (l *RedisLocker) WithAccountLock(ctx context.Context, account string, fn func(ctx context.Context) error) error {
	if strings.TrimSpace(account) == "" {
		return ErrEmptyAccount
	}

	key := keyPrefix + account
	mutex := l.rs.NewMutex(
		key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		l.logger.ErrorContext(ctx, "failed to acquire account lock",
			slog.String("lock_key", key),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}

	defer func() {
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			attrs := []any{slog.String("lock_key", key), slog.Bool("unlock_ok", ok)}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			l.logger.ErrorContext(ctx, "failed to release account lock", attrs...)
		}
	}()

	return fn(ctx)
}
