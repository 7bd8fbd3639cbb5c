package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"wallet-service/internal/core/domain/entity"
)

// MemoryTransactionRepository keeps the ledger and its outbox in process
// memory. A single RWMutex makes every write, including the balance check of
// AppendDebit, one critical section. Readers get copies, never internal
// pointers.
type MemoryTransactionRepository struct {
	mu        sync.RWMutex
	txs       map[string]*entity.Transaction
	byAccount map[string][]string
	byKey     map[string]string
	outbox    []*entity.Outbox
	now       func() time.Time
}

func NewMemoryTransactionRepository() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{
		txs:       make(map[string]*entity.Transaction),
		byAccount: make(map[string][]string),
		byKey:     make(map[string]string),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryTransactionRepository) Append(_ context.Context, tx *entity.Transaction, outbox *entity.Outbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkInsertLocked(tx); err != nil {
		return err
	}
	r.insertLocked(tx, outbox)
	return nil
}

func (r *MemoryTransactionRepository) AppendDebit(_ context.Context, tx *entity.Transaction, outbox *entity.Outbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkInsertLocked(tx); err != nil {
		return err
	}

	balance := entity.FoldBalance(r.listLocked(tx.Account))
	if balance < tx.Amount {
		return &entity.InsufficientFundsError{Requested: tx.Amount, Available: max(balance, 0)}
	}

	r.insertLocked(tx, outbox)
	return nil
}

func (r *MemoryTransactionRepository) FindByID(_ context.Context, id string) (*entity.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.txs[id]
	if !ok {
		return nil, entity.ErrTransactionNotFound
	}
	return copyTransaction(tx), nil
}

func (r *MemoryTransactionRepository) FindByIdempotencyKey(_ context.Context, key string) (*entity.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[key]
	if !ok {
		return nil, nil
	}
	return copyTransaction(r.txs[id]), nil
}

func (r *MemoryTransactionRepository) ListByAccount(_ context.Context, account string) ([]*entity.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.listLocked(account), nil
}

func (r *MemoryTransactionRepository) SetStatus(
	_ context.Context,
	id string,
	status entity.TransactionStatus,
	note string,
	outbox *entity.Outbox,
) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.txs[id]
	if !ok {
		return nil, entity.ErrTransactionNotFound
	}

	updated := copyTransaction(stored)
	if err := updated.ApplyTransition(status, note, r.now()); err != nil {
		return nil, err
	}

	r.txs[id] = updated
	if outbox != nil {
		r.outbox = append(r.outbox, copyOutbox(outbox))
	}
	return copyTransaction(updated), nil
}

// Outbox returns a snapshot of every recorded event in insertion order.
func (r *MemoryTransactionRepository) Outbox() []*entity.Outbox {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Outbox, len(r.outbox))
	for i, o := range r.outbox {
		out[i] = copyOutbox(o)
	}
	return out
}

func (r *MemoryTransactionRepository) FetchPending(_ context.Context, limit int, lease time.Duration) ([]*entity.Outbox, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	pending := make([]*entity.Outbox, 0)
	for _, o := range r.outbox {
		claimable := o.Status == entity.OutboxStatusPending || o.Status == entity.OutboxStatusProcessing
		if claimable && !o.NextAttemptAt.After(now) {
			pending = append(pending, o)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}

	claimed := make([]*entity.Outbox, 0, len(pending))
	for _, o := range pending {
		o.Status = entity.OutboxStatusProcessing
		o.NextAttemptAt = now.Add(lease)
		claimed = append(claimed, copyOutbox(o))
	}
	return claimed, nil
}

func (r *MemoryTransactionRepository) MarkProcessed(_ context.Context, id string) error {
	return r.updateOutbox(id, func(o *entity.Outbox) {
		at := r.now()
		o.Status = entity.OutboxStatusProcessed
		o.ProcessedAt = &at
	})
}

func (r *MemoryTransactionRepository) MarkFailed(_ context.Context, id string) error {
	return r.updateOutbox(id, func(o *entity.Outbox) {
		o.Status = entity.OutboxStatusFailed
		o.Attempts++
	})
}

func (r *MemoryTransactionRepository) MarkForRetry(_ context.Context, id string, nextAttemptAt time.Time) error {
	return r.updateOutbox(id, func(o *entity.Outbox) {
		o.Status = entity.OutboxStatusPending
		o.Attempts++
		o.NextAttemptAt = nextAttemptAt.UTC()
	})
}

func (r *MemoryTransactionRepository) updateOutbox(id string, fn func(*entity.Outbox)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.outbox {
		if o.ID == id {
			fn(o)
			return nil
		}
	}
	return entity.ErrOutboxEventNotFound
}

func (r *MemoryTransactionRepository) checkInsertLocked(tx *entity.Transaction) error {
	if _, exists := r.txs[tx.ID]; exists {
		return entity.ErrDuplicateTransaction
	}
	if tx.IdempotencyKey != nil {
		if _, exists := r.byKey[*tx.IdempotencyKey]; exists {
			return entity.ErrDuplicateIdempotencyKey
		}
	}
	return nil
}

func (r *MemoryTransactionRepository) insertLocked(tx *entity.Transaction, outbox *entity.Outbox) {
	stored := copyTransaction(tx)
	r.txs[stored.ID] = stored
	r.byAccount[stored.Account] = append(r.byAccount[stored.Account], stored.ID)
	if stored.IdempotencyKey != nil {
		r.byKey[*stored.IdempotencyKey] = stored.ID
	}
	if outbox != nil {
		r.outbox = append(r.outbox, copyOutbox(outbox))
	}
}

// listLocked returns the account history newest first.
func (r *MemoryTransactionRepository) listLocked(account string) []*entity.Transaction {
	ids := r.byAccount[account]
	out := make([]*entity.Transaction, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, copyTransaction(r.txs[ids[i]]))
	}
	return out
}

func copyTransaction(tx *entity.Transaction) *entity.Transaction {
	cp := *tx
	if tx.IdempotencyKey != nil {
		key := *tx.IdempotencyKey
		cp.IdempotencyKey = &key
	}
	return &cp
}

func copyOutbox(o *entity.Outbox) *entity.Outbox {
	cp := *o
	if o.ProcessedAt != nil {
		at := *o.ProcessedAt
		cp.ProcessedAt = &at
	}
	return &cp
}
