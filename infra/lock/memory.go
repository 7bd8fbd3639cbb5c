package lock

import (
	"context"
	"sync"
)

type entry struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker serializes work per account inside one process. Entries are
// reference counted and dropped once no goroutine holds or waits on them.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{entries: make(map[string]*entry)}
}

func (l *MemoryLocker) WithAccountLock(ctx context.Context, account string, fn func(ctx context.Context) error) error {
	e := l.acquire(account)
	defer l.release(account, e)

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.ch }()

	return fn(ctx)
}

func (l *MemoryLocker) acquire(account string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[account]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[account] = e
	}
	e.refs++
	return e
}

func (l *MemoryLocker) release(account string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, account)
	}
}

// size reports the number of tracked accounts.
func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
