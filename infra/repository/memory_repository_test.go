package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-service/infra/repository"
	"wallet-service/internal/core/domain/entity"
)

func newCredit(t *testing.T, account string, amount int64) *entity.Transaction {
	t.Helper()
	tx, err := entity.NewCreditRequest(account, amount, "TRX-1", "proofs/1.png")
	require.NoError(t, err)
	return tx
}

func newDebit(t *testing.T, account string, amount int64) *entity.Transaction {
	t.Helper()
	tx, err := entity.NewDebit(account, amount, "credit score lookup")
	require.NoError(t, err)
	return tx
}

func approvedCredit(t *testing.T, repo *repository.MemoryTransactionRepository, account string, amount int64) *entity.Transaction {
	t.Helper()
	tx := newCredit(t, account, amount)
	require.NoError(t, repo.Append(context.Background(), tx, nil))
	updated, err := repo.SetStatus(context.Background(), tx.ID, entity.StatusApproved, "", nil)
	require.NoError(t, err)
	return updated
}

func TestMemoryRepository_AppendAndFind(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	tx := newCredit(t, "alice@example.com", 500)

	require.NoError(t, repo.Append(context.Background(), tx, entity.NewOutbox(tx.ID, entity.EventCreditRequested, `{}`)))

	found, err := repo.FindByID(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, found.ID)
	assert.Equal(t, entity.StatusPending, found.Status)
	assert.Len(t, repo.Outbox(), 1)
}

func TestMemoryRepository_FindByID_NotFound(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, entity.ErrTransactionNotFound)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	tx := newCredit(t, "alice@example.com", 500)
	require.NoError(t, repo.Append(context.Background(), tx, nil))

	found, err := repo.FindByID(context.Background(), tx.ID)
	require.NoError(t, err)
	found.Status = entity.StatusApproved

	again, err := repo.FindByID(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, again.Status)
}

func TestMemoryRepository_Append_DuplicateID(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	tx := newCredit(t, "alice@example.com", 500)
	require.NoError(t, repo.Append(context.Background(), tx, nil))

	err := repo.Append(context.Background(), tx, nil)
	assert.ErrorIs(t, err, entity.ErrDuplicateTransaction)
}

func TestMemoryRepository_IdempotencyKey(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	key := "retry-1"

	first := newCredit(t, "alice@example.com", 500)
	first.IdempotencyKey = &key
	require.NoError(t, repo.Append(context.Background(), first, nil))

	found, err := repo.FindByIdempotencyKey(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	second := newCredit(t, "alice@example.com", 500)
	second.IdempotencyKey = &key
	assert.ErrorIs(t, repo.Append(context.Background(), second, nil), entity.ErrDuplicateIdempotencyKey)

	missing, err := repo.FindByIdempotencyKey(context.Background(), "other")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryRepository_ListByAccount_NewestFirst(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	a := newCredit(t, "alice@example.com", 100)
	b := newCredit(t, "alice@example.com", 200)
	other := newCredit(t, "bob@example.com", 300)

	for _, tx := range []*entity.Transaction{a, b, other} {
		require.NoError(t, repo.Append(context.Background(), tx, nil))
	}

	txs, err := repo.ListByAccount(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, b.ID, txs[0].ID)
	assert.Equal(t, a.ID, txs[1].ID)

	empty, err := repo.ListByAccount(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryRepository_SetStatus(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	tx := newCredit(t, "alice@example.com", 500)
	require.NoError(t, repo.Append(context.Background(), tx, nil))

	rejected, err := repo.SetStatus(context.Background(), tx.ID, entity.StatusRejected, "blurry proof", nil)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, rejected.Status)
	assert.Equal(t, "blurry proof", rejected.Description)

	_, err = repo.SetStatus(context.Background(), tx.ID, entity.StatusApproved, "", nil)
	assert.ErrorIs(t, err, entity.ErrInvalidStateTransition)

	_, err = repo.SetStatus(context.Background(), "missing", entity.StatusApproved, "", nil)
	assert.ErrorIs(t, err, entity.ErrTransactionNotFound)
}

func TestMemoryRepository_SetStatus_InvalidTarget(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	tx := newCredit(t, "alice@example.com", 500)
	require.NoError(t, repo.Append(context.Background(), tx, nil))

	_, err := repo.SetStatus(context.Background(), tx.ID, entity.StatusPending, "", nil)
	assert.ErrorIs(t, err, entity.ErrInvalidTargetStatus)
}

func TestMemoryRepository_AppendDebit(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	approvedCredit(t, repo, "alice@example.com", 500)

	require.NoError(t, repo.AppendDebit(context.Background(), newDebit(t, "alice@example.com", 300), nil))

	err := repo.AppendDebit(context.Background(), newDebit(t, "alice@example.com", 500), nil)
	var insufficient *entity.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(500), insufficient.Requested)
	assert.Equal(t, int64(200), insufficient.Available)
	assert.ErrorIs(t, err, entity.ErrInsufficientFunds)

	txs, err := repo.ListByAccount(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Equal(t, int64(200), entity.FoldBalance(txs))
}

func TestMemoryRepository_AppendDebit_IgnoresPendingCredits(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	require.NoError(t, repo.Append(context.Background(), newCredit(t, "alice@example.com", 500), nil))

	err := repo.AppendDebit(context.Background(), newDebit(t, "alice@example.com", 100), nil)
	assert.ErrorIs(t, err, entity.ErrInsufficientFunds)
}

func TestMemoryRepository_AppendDebit_Concurrent(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	approvedCredit(t, repo, "alice@example.com", 1000)

	const spenders = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < spenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := entity.NewDebit("alice@example.com", 150, "lookup")
			if err != nil {
				return
			}
			if repo.AppendDebit(context.Background(), tx, nil) == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, succeeded)
	txs, err := repo.ListByAccount(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(100), entity.FoldBalance(txs))
}

func TestMemoryRepository_OutboxLifecycle(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	tx := newCredit(t, "alice@example.com", 500)
	event := entity.NewOutbox(tx.ID, entity.EventCreditRequested, `{}`)
	require.NoError(t, repo.Append(context.Background(), tx, event))

	claimed, err := repo.FetchPending(context.Background(), 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, entity.OutboxStatusProcessing, claimed[0].Status)

	again, err := repo.FetchPending(context.Background(), 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, repo.MarkForRetry(context.Background(), event.ID, time.Now().Add(time.Hour)))
	notDue, err := repo.FetchPending(context.Background(), 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, notDue)

	require.NoError(t, repo.MarkForRetry(context.Background(), event.ID, time.Now().Add(-time.Second)))
	due, err := repo.FetchPending(context.Background(), 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 2, due[0].Attempts)

	require.NoError(t, repo.MarkProcessed(context.Background(), event.ID))
	snapshot := repo.Outbox()
	require.Len(t, snapshot, 1)
	assert.Equal(t, entity.OutboxStatusProcessed, snapshot[0].Status)
	assert.NotNil(t, snapshot[0].ProcessedAt)
}

func TestMemoryRepository_FetchPending_RespectsLimit(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	for i := 0; i < 3; i++ {
		tx := newCredit(t, "alice@example.com", 100)
		require.NoError(t, repo.Append(context.Background(), tx, entity.NewOutbox(tx.ID, entity.EventCreditRequested, `{}`)))
	}

	claimed, err := repo.FetchPending(context.Background(), 2, time.Minute)
	require.NoError(t, err)
	assert.Len(t, claimed, 2)
}

func TestMemoryRepository_MarkFailed(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	tx := newCredit(t, "alice@example.com", 500)
	event := entity.NewOutbox(tx.ID, entity.EventCreditRequested, `{}`)
	require.NoError(t, repo.Append(context.Background(), tx, event))

	require.NoError(t, repo.MarkFailed(context.Background(), event.ID))

	snapshot := repo.Outbox()
	assert.Equal(t, entity.OutboxStatusFailed, snapshot[0].Status)
	assert.Equal(t, 1, snapshot[0].Attempts)
}

func TestMemoryRepository_FetchPending_ReclaimsExpiredLease(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()
	tx := newCredit(t, "alice@example.com", 500)
	event := entity.NewOutbox(tx.ID, entity.EventCreditRequested, `{}`)
	require.NoError(t, repo.Append(context.Background(), tx, event))

	claimed, err := repo.FetchPending(context.Background(), 10, -time.Second)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	reclaimed, err := repo.FetchPending(context.Background(), 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, event.ID, reclaimed[0].ID)
	assert.Equal(t, 0, reclaimed[0].Attempts)

	held, err := repo.FetchPending(context.Background(), 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, held, "an unexpired lease keeps the event reserved")
}

func TestMemoryRepository_MarkUnknownEvent(t *testing.T) {
	repo := repository.NewMemoryTransactionRepository()

	assert.ErrorIs(t, repo.MarkProcessed(context.Background(), "missing"), entity.ErrOutboxEventNotFound)
	assert.ErrorIs(t, repo.MarkFailed(context.Background(), "missing"), entity.ErrOutboxEventNotFound)
	assert.ErrorIs(t, repo.MarkForRetry(context.Background(), "missing", time.Now()), entity.ErrOutboxEventNotFound)
}
