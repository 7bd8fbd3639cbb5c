package ports

import (
	"context"

	"wallet-service/internal/core/domain/entity"
)

// TransactionRepository is the append-only ledger store.
//
// FindByID and SetStatus return entity.ErrTransactionNotFound for unknown ids.
// SetStatus returns entity.ErrInvalidStateTransition when the record is no
// longer pending, and AppendDebit returns *entity.InsufficientFundsError when
// the approved balance at commit time does not cover the debit.
type TransactionRepository interface {
	Append(ctx context.Context, tx *entity.Transaction, outbox *entity.Outbox) error
	AppendDebit(ctx context.Context, tx *entity.Transaction, outbox *entity.Outbox) error
	FindByID(ctx context.Context, id string) (*entity.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.Transaction, error)
	ListByAccount(ctx context.Context, account string) ([]*entity.Transaction, error)
	SetStatus(ctx context.Context, id string, status entity.TransactionStatus, note string, outbox *entity.Outbox) (*entity.Transaction, error)
}
