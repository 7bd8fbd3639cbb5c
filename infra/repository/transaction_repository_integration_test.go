//go:build integration

package repository_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	infradb "wallet-service/infra/db"
	"wallet-service/infra/repository"
	"wallet-service/internal/core/domain/entity"
)

func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("wallet_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	database, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, infradb.Migrate(database, "../../migrations", "wallet_test"))
	return database
}

func TestPostgresRepository_Lifecycle(t *testing.T) {
	database := setupPostgres(t)
	repo := repository.NewTransactionRepository(database)
	outboxRepo := repository.NewOutboxRepository(database)
	ctx := context.Background()

	credit, err := entity.NewCreditRequest("alice@example.com", 500, "TRX-1", "proofs/1.png")
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, credit, entity.NewOutbox(credit.ID, entity.EventCreditRequested, `{}`)))

	approved, err := repo.SetStatus(ctx, credit.ID, entity.StatusApproved, "",
		entity.NewOutbox(credit.ID, entity.EventCreditApproved, `{}`))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, approved.Status)

	_, err = repo.SetStatus(ctx, credit.ID, entity.StatusRejected, "late", nil)
	assert.ErrorIs(t, err, entity.ErrInvalidStateTransition)

	_, err = repo.SetStatus(ctx, "missing", entity.StatusApproved, "", nil)
	assert.ErrorIs(t, err, entity.ErrTransactionNotFound)

	debit, err := entity.NewDebit("alice@example.com", 300, "lookup")
	require.NoError(t, err)
	require.NoError(t, repo.AppendDebit(ctx, debit, nil))

	overdraft, err := entity.NewDebit("alice@example.com", 500, "lookup")
	require.NoError(t, err)
	err = repo.AppendDebit(ctx, overdraft, nil)
	assert.ErrorIs(t, err, entity.ErrInsufficientFunds)

	txs, err := repo.ListByAccount(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, debit.ID, txs[0].ID)
	assert.Equal(t, int64(200), entity.FoldBalance(txs))

	events, err := outboxRepo.FetchPending(ctx, 10, time.Minute)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	for _, e := range events {
		require.NoError(t, outboxRepo.MarkProcessed(ctx, e.ID))
	}
	assert.ErrorIs(t, outboxRepo.MarkProcessed(ctx, "missing"), entity.ErrOutboxEventNotFound)
}

func TestPostgresOutbox_ReclaimsExpiredLease(t *testing.T) {
	database := setupPostgres(t)
	repo := repository.NewTransactionRepository(database)
	outboxRepo := repository.NewOutboxRepository(database)
	ctx := context.Background()

	credit, err := entity.NewCreditRequest("alice@example.com", 500, "TRX-1", "proofs/1.png")
	require.NoError(t, err)
	event := entity.NewOutbox(credit.ID, entity.EventCreditRequested, `{}`)
	require.NoError(t, repo.Append(ctx, credit, event))

	claimed, err := outboxRepo.FetchPending(ctx, 10, -time.Second)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	reclaimed, err := outboxRepo.FetchPending(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, event.ID, reclaimed[0].ID)

	held, err := outboxRepo.FetchPending(ctx, 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestPostgresRepository_IdempotencyKey(t *testing.T) {
	database := setupPostgres(t)
	repo := repository.NewTransactionRepository(database)
	ctx := context.Background()
	key := "retry-1"

	first, err := entity.NewCreditRequest("alice@example.com", 500, "TRX-1", "proofs/1.png")
	require.NoError(t, err)
	first.IdempotencyKey = &key
	require.NoError(t, repo.Append(ctx, first, nil))

	second, err := entity.NewCreditRequest("alice@example.com", 500, "TRX-1", "proofs/1.png")
	require.NoError(t, err)
	second.IdempotencyKey = &key
	assert.ErrorIs(t, repo.Append(ctx, second, nil), entity.ErrDuplicateIdempotencyKey)

	found, err := repo.FindByIdempotencyKey(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
}

func TestPostgresRepository_AppendOnly(t *testing.T) {
	database := setupPostgres(t)
	repo := repository.NewTransactionRepository(database)
	ctx := context.Background()

	credit, err := entity.NewCreditRequest("alice@example.com", 500, "TRX-1", "proofs/1.png")
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, credit, nil))

	_, err = database.ExecContext(ctx, `DELETE FROM wallet_transactions WHERE id = $1`, credit.ID)
	assert.Error(t, err)

	_, err = database.ExecContext(ctx, `UPDATE wallet_transactions SET amount = 1 WHERE id = $1`, credit.ID)
	assert.Error(t, err)
}

func TestPostgresRepository_ConcurrentDebits(t *testing.T) {
	database := setupPostgres(t)
	repo := repository.NewTransactionRepository(database)
	ctx := context.Background()

	credit, err := entity.NewCreditRequest("alice@example.com", 200, "TRX-1", "proofs/1.png")
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, credit, nil))
	_, err = repo.SetStatus(ctx, credit.ID, entity.StatusApproved, "", nil)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			debit, err := entity.NewDebit("alice@example.com", 150, "lookup")
			if err != nil {
				return
			}
			if repo.AppendDebit(ctx, debit, nil) == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	txs, err := repo.ListByAccount(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(50), entity.FoldBalance(txs))
}
