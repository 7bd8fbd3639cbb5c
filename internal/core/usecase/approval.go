package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"wallet-service/internal/core/domain/entity"
	"wallet-service/internal/core/domain/ports"
)

type ApprovalUseCase struct {
	repo   ports.TransactionRepository
	locker ports.AccountLocker
	logger *slog.Logger
}

func NewApprovalUseCase(repo ports.TransactionRepository, locker ports.AccountLocker, logger *slog.Logger) *ApprovalUseCase {
	return &ApprovalUseCase{repo: repo, locker: locker, logger: logger}
}

// Approve makes a pending credit count towards the balance. Approving an
// already approved credit returns it unchanged.
func (uc *ApprovalUseCase) Approve(ctx context.Context, id string) (*entity.Transaction, error) {
	return uc.review(ctx, id, entity.StatusApproved, "")
}

// Reject closes a pending credit without affecting the balance and records
// reason as its description. Rejecting an already rejected credit returns it
// unchanged.
func (uc *ApprovalUseCase) Reject(ctx context.Context, id, reason string) (*entity.Transaction, error) {
	return uc.review(ctx, id, entity.StatusRejected, reason)
}

func (uc *ApprovalUseCase) review(ctx context.Context, id string, target entity.TransactionStatus, reason string) (*entity.Transaction, error) {
	decision := strings.ToLower(string(target))

	id = strings.TrimSpace(id)
	if id == "" {
		creditReviewsTotal.WithLabelValues(decision, outcomeRejected).Inc()
		return nil, toException(entity.ErrIDRequired)
	}

	current, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, uc.fail(ctx, id, decision, err)
	}
	if !current.IsCredit() {
		return nil, uc.fail(ctx, id, decision, entity.ErrNotCreditRequest)
	}

	var (
		result   *entity.Transaction
		replayed bool
	)
	err = uc.locker.WithAccountLock(ctx, current.Account, func(ctx context.Context) error {
		fresh, err := uc.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if fresh.Status == target {
			result, replayed = fresh, true
			return nil
		}
		if err := entity.ValidateTransition(fresh.Status, target); err != nil {
			return err
		}

		next := *fresh
		if err := next.ApplyTransition(target, reason, time.Now()); err != nil {
			return err
		}
		outbox, err := newWalletEvent(reviewEvent(target), &next)
		if err != nil {
			return err
		}

		updated, err := uc.repo.SetStatus(ctx, id, target, strings.TrimSpace(reason), outbox)
		if errors.Is(err, entity.ErrInvalidStateTransition) {
			// Another instance reviewed it between our read and the write.
			latest, findErr := uc.repo.FindByID(ctx, id)
			if findErr == nil && latest.Status == target {
				result, replayed = latest, true
				return nil
			}
		}
		if err != nil {
			return err
		}

		result = updated
		return nil
	})
	if err != nil {
		return nil, uc.fail(ctx, id, decision, err)
	}

	if replayed {
		creditReviewsTotal.WithLabelValues(decision, outcomeReplayed).Inc()
		uc.logger.InfoContext(ctx, "credit request already reviewed",
			slog.String("transaction_id", id),
			slog.String("status", string(result.Status)),
		)
		return result, nil
	}

	creditReviewsTotal.WithLabelValues(decision, outcomeCommitted).Inc()
	uc.logger.InfoContext(ctx, "credit request reviewed",
		slog.String("transaction_id", id),
		slog.String("account", result.Account),
		slog.String("status", string(result.Status)),
		slog.Int64("amount", result.Amount),
	)
	return result, nil
}

func (uc *ApprovalUseCase) fail(ctx context.Context, id, decision string, err error) error {
	exc := toException(err)
	if exc.Code >= 500 {
		creditReviewsTotal.WithLabelValues(decision, outcomeError).Inc()
		uc.logger.ErrorContext(ctx, "credit review failed",
			slog.String("transaction_id", id),
			slog.String("decision", decision),
			slog.String("error", err.Error()),
		)
		return exc
	}

	creditReviewsTotal.WithLabelValues(decision, outcomeRejected).Inc()
	uc.logger.WarnContext(ctx, "credit review refused",
		slog.String("transaction_id", id),
		slog.String("decision", decision),
		slog.String("reason", err.Error()),
	)
	return exc
}

func reviewEvent(target entity.TransactionStatus) string {
	if target == entity.StatusApproved {
		return entity.EventCreditApproved
	}
	return entity.EventCreditRejected
}
