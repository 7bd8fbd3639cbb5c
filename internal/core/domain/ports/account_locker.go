package ports

import "context"

// AccountLocker serializes balance-affecting writes for a single account.
// fn runs while the lock is held; its error is returned unchanged or wrapped
// with %w.
type AccountLocker interface {
	WithAccountLock(ctx context.Context, account string, fn func(ctx context.Context) error) error
}
