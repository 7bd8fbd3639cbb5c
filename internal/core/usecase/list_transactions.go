package usecase

import (
	"context"
	"log/slog"
	"strings"

	"wallet-service/internal/core/domain/entity"
	"wallet-service/internal/core/domain/ports"
	apperrors "wallet-service/internal/core/errors"
)

type ListTransactionsUseCase struct {
	repo   ports.TransactionRepository
	logger *slog.Logger
}

func NewListTransactionsUseCase(repo ports.TransactionRepository, logger *slog.Logger) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{repo: repo, logger: logger}
}

// Execute returns the full history of account, newest first.
func (uc *ListTransactionsUseCase) Execute(ctx context.Context, account string) ([]*entity.Transaction, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, toException(entity.ErrAccountRequired)
	}

	txs, err := uc.repo.ListByAccount(ctx, account)
	if err != nil {
		uc.logger.ErrorContext(ctx, "list transactions failed",
			slog.String("account", account),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Unexpected(apperrors.WithError(err))
	}
	return txs, nil
}
