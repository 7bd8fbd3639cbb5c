package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"wallet-service/internal/core/domain/entity"
	"wallet-service/internal/core/domain/ports"
)

type GetTransactionUseCase struct {
	repo   ports.TransactionRepository
	logger *slog.Logger
}

func NewGetTransactionUseCase(repo ports.TransactionRepository, logger *slog.Logger) *GetTransactionUseCase {
	return &GetTransactionUseCase{repo: repo, logger: logger}
}

func (uc *GetTransactionUseCase) Execute(ctx context.Context, id string) (*entity.Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, toException(entity.ErrIDRequired)
	}

	tx, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, entity.ErrTransactionNotFound) {
			uc.logger.ErrorContext(ctx, "find transaction failed",
				slog.String("transaction_id", id),
				slog.String("error", err.Error()),
			)
		}
		return nil, toException(err)
	}
	return tx, nil
}
