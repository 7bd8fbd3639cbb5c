package usecase

import (
	"context"
	"errors"
	"log/slog"

	"wallet-service/internal/core/domain/entity"
	"wallet-service/internal/core/domain/ports"
	apperrors "wallet-service/internal/core/errors"
)

type (
	SpendInput struct {
		Account        string
		Amount         int64
		Description    string
		IdempotencyKey string
	}

	SpendOutput struct {
		Transaction *entity.Transaction
		Idempotent  bool
	}

	SpendUseCase struct {
		repo    ports.TransactionRepository
		locker  ports.AccountLocker
		balance *GetBalanceUseCase
		logger  *slog.Logger
	}
)

func NewSpendUseCase(
	repo ports.TransactionRepository,
	locker ports.AccountLocker,
	balance *GetBalanceUseCase,
	logger *slog.Logger,
) *SpendUseCase {
	return &SpendUseCase{repo: repo, locker: locker, balance: balance, logger: logger}
}

// Execute debits account. The sufficiency check and the write happen under the
// account lock, and the store re-checks coverage when it commits.
func (uc *SpendUseCase) Execute(ctx context.Context, input SpendInput) (*SpendOutput, error) {
	tx, err := entity.NewDebit(input.Account, input.Amount, input.Description)
	if err != nil {
		spendsTotal.WithLabelValues(outcomeRejected).Inc()
		uc.logger.WarnContext(ctx, "spend validation failed", slog.String("reason", err.Error()))
		return nil, toException(err)
	}
	if input.IdempotencyKey != "" {
		tx.IdempotencyKey = &input.IdempotencyKey
	}

	var out *SpendOutput
	err = uc.locker.WithAccountLock(ctx, tx.Account, func(ctx context.Context) error {
		if tx.IdempotencyKey != nil {
			existing, err := uc.replay(ctx, tx)
			if err != nil || existing != nil {
				out = existing
				return err
			}
		}

		available, err := uc.balance.Calculate(ctx, tx.Account)
		if err != nil {
			return err
		}
		if tx.Amount > available {
			return &entity.InsufficientFundsError{Requested: tx.Amount, Available: available}
		}

		outbox, err := newWalletEvent(entity.EventDebitPosted, tx)
		if err != nil {
			return err
		}

		if err := uc.repo.AppendDebit(ctx, tx, outbox); err != nil {
			if errors.Is(err, entity.ErrDuplicateIdempotencyKey) {
				existing, replayErr := uc.replay(ctx, tx)
				if replayErr != nil {
					return replayErr
				}
				if existing != nil {
					out = existing
					return nil
				}
			}
			return err
		}

		out = &SpendOutput{Transaction: tx}
		return nil
	})
	if err != nil {
		if errors.Is(err, entity.ErrInsufficientFunds) {
			spendsTotal.WithLabelValues(outcomeNoFunds).Inc()
			uc.logger.WarnContext(ctx, "spend rejected",
				slog.String("account", tx.Account),
				slog.String("reason", err.Error()),
			)
			return nil, toException(err)
		}

		spendsTotal.WithLabelValues(outcomeError).Inc()
		uc.logger.ErrorContext(ctx, "spend failed",
			slog.String("account", tx.Account),
			slog.Int64("amount", tx.Amount),
			slog.String("error", err.Error()),
		)
		return nil, toException(err)
	}

	if out.Idempotent {
		spendsTotal.WithLabelValues(outcomeReplayed).Inc()
		uc.logger.InfoContext(ctx, "spend replayed",
			slog.String("transaction_id", out.Transaction.ID),
			slog.String("idempotency_key", input.IdempotencyKey),
		)
		return out, nil
	}

	spendsTotal.WithLabelValues(outcomeCommitted).Inc()
	uc.logger.InfoContext(ctx, "spend committed",
		slog.String("transaction_id", tx.ID),
		slog.String("account", tx.Account),
		slog.Int64("amount", tx.Amount),
	)
	return out, nil
}

// replay returns the debit already stored under tx's idempotency key, or nil
// when the key is new. A key recorded for a different request is a conflict.
func (uc *SpendUseCase) replay(ctx context.Context, tx *entity.Transaction) (*SpendOutput, error) {
	existing, err := uc.repo.FindByIdempotencyKey(ctx, *tx.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	if existing.IsCredit() {
		return nil, apperrors.Conflict(apperrors.WithMessage(entity.ErrDuplicateIdempotencyKey.Error()))
	}
	if !existing.SameRequest(tx) {
		uc.logger.WarnContext(ctx, "idempotency key reused for a different spend",
			slog.String("account", tx.Account),
			slog.String("idempotency_key", *tx.IdempotencyKey),
		)
		return nil, apperrors.Conflict(apperrors.WithMessage(entity.ErrIdempotencyKeyMismatch.Error()))
	}
	return &SpendOutput{Transaction: existing, Idempotent: true}, nil
}
