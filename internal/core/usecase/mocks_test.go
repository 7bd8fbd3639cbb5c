package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"wallet-service/internal/core/domain/entity"
	apperrors "wallet-service/internal/core/errors"
)

type mockTransactionRepository struct {
	appendFn               func(ctx context.Context, tx *entity.Transaction, outbox *entity.Outbox) error
	appendDebitFn          func(ctx context.Context, tx *entity.Transaction, outbox *entity.Outbox) error
	findByIDFn             func(ctx context.Context, id string) (*entity.Transaction, error)
	findByIdempotencyKeyFn func(ctx context.Context, key string) (*entity.Transaction, error)
	listByAccountFn        func(ctx context.Context, account string) ([]*entity.Transaction, error)
	setStatusFn            func(ctx context.Context, id string, status entity.TransactionStatus, note string, outbox *entity.Outbox) (*entity.Transaction, error)
}

func (m *mockTransactionRepository) Append(ctx context.Context, tx *entity.Transaction, outbox *entity.Outbox) error {
	if m.appendFn != nil {
		return m.appendFn(ctx, tx, outbox)
	}
	return nil
}

func (m *mockTransactionRepository) AppendDebit(ctx context.Context, tx *entity.Transaction, outbox *entity.Outbox) error {
	if m.appendDebitFn != nil {
		return m.appendDebitFn(ctx, tx, outbox)
	}
	return nil
}

func (m *mockTransactionRepository) FindByID(ctx context.Context, id string) (*entity.Transaction, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, entity.ErrTransactionNotFound
}

func (m *mockTransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.Transaction, error) {
	if m.findByIdempotencyKeyFn != nil {
		return m.findByIdempotencyKeyFn(ctx, key)
	}
	return nil, nil
}

func (m *mockTransactionRepository) ListByAccount(ctx context.Context, account string) ([]*entity.Transaction, error) {
	if m.listByAccountFn != nil {
		return m.listByAccountFn(ctx, account)
	}
	return nil, nil
}

func (m *mockTransactionRepository) SetStatus(ctx context.Context, id string, status entity.TransactionStatus, note string, outbox *entity.Outbox) (*entity.Transaction, error) {
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, id, status, note, outbox)
	}
	return nil, nil
}

// recordingLocker runs fn inline and remembers which accounts were locked.
type recordingLocker struct {
	accounts []string
}

func (l *recordingLocker) WithAccountLock(ctx context.Context, account string, fn func(ctx context.Context) error) error {
	l.accounts = append(l.accounts, account)
	return fn(ctx)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func assertException(t *testing.T, err error, expectedCode int) *apperrors.Exception {
	t.Helper()
	exc, ok := err.(*apperrors.Exception)
	if !ok {
		t.Fatalf("expected *apperrors.Exception, got: %T: %v", err, err)
	}
	if exc.Code != expectedCode {
		t.Fatalf("expected code %d, got %d (%s)", expectedCode, exc.Code, exc.Message)
	}
	return exc
}

func approved(account string, direction entity.Direction, amount int64) *entity.Transaction {
	return &entity.Transaction{
		ID:        account + "-" + string(direction),
		Account:   account,
		Amount:    amount,
		Direction: direction,
		Status:    entity.StatusApproved,
	}
}
