package handler

import "wallet-service/internal/core/usecase"

func NewHandlerFactory(f *usecase.Factory, adminToken string) *WalletHandler {
	return NewWalletHandler(
		f.CreditRequest,
		f.Approval,
		f.Spend,
		f.Balance,
		f.Reconcile,
		f.List,
		f.Get,
		adminToken,
	)
}
