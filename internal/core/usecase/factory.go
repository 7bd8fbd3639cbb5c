package usecase

import (
	"log/slog"

	"wallet-service/internal/core/domain/ports"
)

type Factory struct {
	CreditRequest *CreateCreditRequestUseCase
	Approval      *ApprovalUseCase
	Spend         *SpendUseCase
	Balance       *GetBalanceUseCase
	Reconcile     *ReconcileBalanceUseCase
	List          *ListTransactionsUseCase
	Get           *GetTransactionUseCase
}

func NewFactory(repo ports.TransactionRepository, locker ports.AccountLocker, logger *slog.Logger) *Factory {
	balance := NewGetBalanceUseCase(repo, logger)

	return &Factory{
		CreditRequest: NewCreateCreditRequestUseCase(repo, logger),
		Approval:      NewApprovalUseCase(repo, locker, logger),
		Spend:         NewSpendUseCase(repo, locker, balance, logger),
		Balance:       balance,
		Reconcile:     NewReconcileBalanceUseCase(balance, logger),
		List:          NewListTransactionsUseCase(repo, logger),
		Get:           NewGetTransactionUseCase(repo, logger),
	}
}
