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
	CreditRequestInput struct {
		Account        string
		Amount         int64
		Reference      string
		ProofRef       string
		IdempotencyKey string
	}

	CreditRequestOutput struct {
		Transaction *entity.Transaction
		Idempotent  bool
	}

	CreateCreditRequestUseCase struct {
		repo   ports.TransactionRepository
		logger *slog.Logger
	}
)

func NewCreateCreditRequestUseCase(repo ports.TransactionRepository, logger *slog.Logger) *CreateCreditRequestUseCase {
	return &CreateCreditRequestUseCase{repo: repo, logger: logger}
}

// Execute records a pending top-up. Bank references are not deduplicated;
// client retries are recognised by IdempotencyKey instead.
func (uc *CreateCreditRequestUseCase) Execute(ctx context.Context, input CreditRequestInput) (*CreditRequestOutput, error) {
	tx, err := entity.NewCreditRequest(input.Account, input.Amount, input.Reference, input.ProofRef)
	if err != nil {
		creditRequestsTotal.WithLabelValues(outcomeRejected).Inc()
		uc.logger.WarnContext(ctx, "credit request validation failed", slog.String("reason", err.Error()))
		return nil, toException(err)
	}

	if input.IdempotencyKey != "" {
		tx.IdempotencyKey = &input.IdempotencyKey
		existing, err := uc.replay(ctx, tx)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	outbox, err := newWalletEvent(entity.EventCreditRequested, tx)
	if err != nil {
		return nil, apperrors.Unexpected(apperrors.WithError(err))
	}

	if err := uc.repo.Append(ctx, tx, outbox); err != nil {
		if errors.Is(err, entity.ErrDuplicateIdempotencyKey) {
			existing, replayErr := uc.replay(ctx, tx)
			if replayErr != nil {
				return nil, replayErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		creditRequestsTotal.WithLabelValues(outcomeError).Inc()
		uc.logger.ErrorContext(ctx, "failed to store credit request",
			slog.String("account", tx.Account),
			slog.String("error", err.Error()),
		)
		return nil, toException(err)
	}

	creditRequestsTotal.WithLabelValues(outcomeCommitted).Inc()
	uc.logger.InfoContext(ctx, "credit request created",
		slog.String("transaction_id", tx.ID),
		slog.String("account", tx.Account),
		slog.Int64("amount", tx.Amount),
		slog.String("reference", tx.Reference),
	)

	return &CreditRequestOutput{Transaction: tx}, nil
}

func (uc *CreateCreditRequestUseCase) replay(ctx context.Context, tx *entity.Transaction) (*CreditRequestOutput, error) {
	key := *tx.IdempotencyKey
	existing, err := uc.repo.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, apperrors.Unexpected(apperrors.WithError(err))
	}
	if existing == nil {
		return nil, nil
	}
	if !existing.IsCredit() {
		return nil, apperrors.Conflict(apperrors.WithMessage(entity.ErrDuplicateIdempotencyKey.Error()))
	}
	if !existing.SameRequest(tx) {
		uc.logger.WarnContext(ctx, "idempotency key reused for a different credit request",
			slog.String("account", tx.Account),
			slog.String("idempotency_key", key),
		)
		return nil, apperrors.Conflict(apperrors.WithMessage(entity.ErrIdempotencyKeyMismatch.Error()))
	}

	creditRequestsTotal.WithLabelValues(outcomeReplayed).Inc()
	uc.logger.InfoContext(ctx, "credit request replayed",
		slog.String("transaction_id", existing.ID),
		slog.String("idempotency_key", key),
	)
	return &CreditRequestOutput{Transaction: existing, Idempotent: true}, nil
}
