package usecase

import (
	"context"
	"log/slog"
	"strings"

	"wallet-service/internal/core/domain/entity"
	"wallet-service/internal/core/domain/ports"
	apperrors "wallet-service/internal/core/errors"
)

type (
	BalanceInput struct {
		Account string
	}

	BalanceOutput struct {
		Account string
		Balance int64
	}

	GetBalanceUseCase struct {
		repo   ports.TransactionRepository
		logger *slog.Logger
	}
)

func NewGetBalanceUseCase(repo ports.TransactionRepository, logger *slog.Logger) *GetBalanceUseCase {
	return &GetBalanceUseCase{repo: repo, logger: logger}
}

// Calculate folds the approved history of account. A negative fold means the
// ledger invariant was broken somewhere upstream: it is logged, counted and
// reported as zero.
func (uc *GetBalanceUseCase) Calculate(ctx context.Context, account string) (int64, error) {
	txs, err := uc.repo.ListByAccount(ctx, account)
	if err != nil {
		return 0, err
	}

	balance := entity.FoldBalance(txs)
	if balance < 0 {
		balanceClampedTotal.Inc()
		uc.logger.ErrorContext(ctx, "negative balance folded from ledger, clamping to zero",
			slog.String("account", account),
			slog.Int64("balance", balance),
			slog.Int("transactions", len(txs)),
		)
		return 0, nil
	}

	return balance, nil
}

func (uc *GetBalanceUseCase) Execute(ctx context.Context, input BalanceInput) (*BalanceOutput, error) {
	account := strings.TrimSpace(input.Account)
	if account == "" {
		uc.logger.WarnContext(ctx, "get balance validation failed", slog.String("reason", "account is required"))
		return nil, toException(entity.ErrAccountRequired)
	}

	balance, err := uc.Calculate(ctx, account)
	if err != nil {
		uc.logger.ErrorContext(ctx, "get balance failed",
			slog.String("account", account),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Unexpected(apperrors.WithError(err))
	}

	uc.logger.DebugContext(ctx, "balance retrieved",
		slog.String("account", account),
		slog.Int64("balance", balance),
	)

	return &BalanceOutput{
		Account: account,
		Balance: balance,
	}, nil
}
