package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"wallet-service/internal/core/domain/entity"
	apperrors "wallet-service/internal/core/errors"
)

type (
	ReconcileInput struct {
		Account         string
		ReportedBalance decimal.Decimal
	}

	ReconcileOutput struct {
		Account         string
		Balance         int64
		ReportedBalance decimal.Decimal
		DriftDetected   bool
	}

	ReconcileBalanceUseCase struct {
		balance *GetBalanceUseCase
		logger  *slog.Logger
	}
)

func NewReconcileBalanceUseCase(balance *GetBalanceUseCase, logger *slog.Logger) *ReconcileBalanceUseCase {
	return &ReconcileBalanceUseCase{balance: balance, logger: logger}
}

// Execute compares a caller-held balance with the ledger. The ledger value is
// always the one returned; drift is only reported.
func (uc *ReconcileBalanceUseCase) Execute(ctx context.Context, input ReconcileInput) (*ReconcileOutput, error) {
	account := strings.TrimSpace(input.Account)
	if account == "" {
		return nil, toException(entity.ErrAccountRequired)
	}

	balance, err := uc.balance.Calculate(ctx, account)
	if err != nil {
		uc.logger.ErrorContext(ctx, "reconcile balance failed",
			slog.String("account", account),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Unexpected(apperrors.WithError(err))
	}

	drift := entity.HasDrift(balance, input.ReportedBalance)
	if drift {
		balanceDriftTotal.Inc()
		uc.logger.WarnContext(ctx, "balance drift detected",
			slog.String("account", account),
			slog.Int64("ledger_balance", balance),
			slog.String("reported_balance", input.ReportedBalance.String()),
		)
	}

	return &ReconcileOutput{
		Account:         account,
		Balance:         balance,
		ReportedBalance: input.ReportedBalance,
		DriftDetected:   drift,
	}, nil
}
