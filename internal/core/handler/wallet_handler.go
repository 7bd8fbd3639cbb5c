package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"wallet-service/internal/core/domain/entity"
	apperrors "wallet-service/internal/core/errors"
	"wallet-service/internal/core/usecase"
)

const idempotencyKeyHeader = "Idempotency-Key"

type WalletHandler struct {
	creditUC    *usecase.CreateCreditRequestUseCase
	approvalUC  *usecase.ApprovalUseCase
	spendUC     *usecase.SpendUseCase
	balanceUC   *usecase.GetBalanceUseCase
	reconcileUC *usecase.ReconcileBalanceUseCase
	listUC      *usecase.ListTransactionsUseCase
	getUC       *usecase.GetTransactionUseCase
	adminToken  string
	BaseHandler
}

type creditRequestRequest struct {
	Account   string          `json:"account"`
	Amount    json.RawMessage `json:"amount" swaggertype:"number"`
	Reference string          `json:"reference"`
	ProofRef  string          `json:"proof_ref"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type spendRequest struct {
	Account     string          `json:"account"`
	Amount      json.RawMessage `json:"amount" swaggertype:"number"`
	Description string          `json:"description"`
}

type transactionResponse struct {
	ID          string    `json:"id"`
	Account     string    `json:"account"`
	Amount      int64     `json:"amount"`
	Direction   string    `json:"direction"`
	Status      string    `json:"status"`
	Reference   string    `json:"reference,omitempty"`
	ProofRef    string    `json:"proof_ref,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type balanceResponse struct {
	Account         string           `json:"account"`
	Balance         int64            `json:"balance"`
	ReportedBalance *decimal.Decimal `json:"reported_balance,omitempty" swaggertype:"number"`
	DriftDetected   *bool            `json:"drift_detected,omitempty"`
}

func NewWalletHandler(
	creditUC *usecase.CreateCreditRequestUseCase,
	approvalUC *usecase.ApprovalUseCase,
	spendUC *usecase.SpendUseCase,
	balanceUC *usecase.GetBalanceUseCase,
	reconcileUC *usecase.ReconcileBalanceUseCase,
	listUC *usecase.ListTransactionsUseCase,
	getUC *usecase.GetTransactionUseCase,
	adminToken string,
) *WalletHandler {
	return &WalletHandler{
		creditUC:    creditUC,
		approvalUC:  approvalUC,
		spendUC:     spendUC,
		balanceUC:   balanceUC,
		reconcileUC: reconcileUC,
		listUC:      listUC,
		getUC:       getUC,
		adminToken:  adminToken,
	}
}

func (h *WalletHandler) RegisterRoutes(r *mux.Router) {
	w := r.PathPrefix("/wallet").Subrouter()

	w.HandleFunc("/credit-requests", h.wrap(h.handleCreateCreditRequest)).Methods(http.MethodPost)
	w.HandleFunc("/spend", h.wrap(h.handleSpend)).Methods(http.MethodPost)
	w.HandleFunc("/balance", h.wrap(h.handleGetBalance)).Methods(http.MethodGet)
	w.HandleFunc("/transactions", h.wrap(h.handleListTransactions)).Methods(http.MethodGet)
	w.HandleFunc("/transactions/{id}", h.wrap(h.handleGetTransaction)).Methods(http.MethodGet)

	admin := AdminOnly(h.adminToken)
	w.Handle("/credit-requests/{id}/approve", admin(h.wrap(h.handleApprove))).Methods(http.MethodPut)
	w.Handle("/credit-requests/{id}/reject", admin(h.wrap(h.handleReject))).Methods(http.MethodPut)
}

// handleCreateCreditRequest godoc
// @Summary      Request a top-up
// @Description  Records a pending credit backed by a bank transfer reference and a payment proof
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client retry key"
// @Param        request body creditRequestRequest true "Credit request"
// @Success      201 {object} HttpResponse "Credit request created"
// @Success      200 {object} HttpResponse "Replay of an earlier request"
// @Failure      400 {object} ErrorResponse "Validation error"
// @Failure      409 {object} ErrorResponse "Idempotency-Key already used for a different request"
// @Router       /wallet/credit-requests [post]
func (h *WalletHandler) handleCreateCreditRequest(w http.ResponseWriter, r *http.Request) error {
	var req creditRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return nil
	}

	amount, err := entity.ParseAmountJSON(req.Amount)
	if err != nil {
		return validationException(err)
	}

	out, err := h.creditUC.Execute(r.Context(), usecase.CreditRequestInput{
		Account:        req.Account,
		Amount:         amount,
		Reference:      req.Reference,
		ProofRef:       req.ProofRef,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(idempotencyKeyHeader)),
	})
	if err != nil {
		return err
	}

	if out.Idempotent {
		h.RespondWithSuccess(w, http.StatusOK, "credit request already recorded", toTransactionResponse(out.Transaction))
		return nil
	}
	h.RespondWithSuccess(w, http.StatusCreated, "credit request created", toTransactionResponse(out.Transaction))
	return nil
}

// handleApprove godoc
// @Summary      Approve a credit request
// @Tags         wallet-admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Transaction ID"
// @Success      200 {object} HttpResponse "Approved transaction"
// @Failure      401 {object} ErrorResponse "Missing or invalid admin token"
// @Failure      404 {object} ErrorResponse "Transaction not found"
// @Failure      409 {object} ErrorResponse "Transaction is not a pending credit"
// @Router       /wallet/credit-requests/{id}/approve [put]
func (h *WalletHandler) handleApprove(w http.ResponseWriter, r *http.Request) error {
	tx, err := h.approvalUC.Approve(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return err
	}

	h.RespondWithSuccess(w, http.StatusOK, "credit request approved", toTransactionResponse(tx))
	return nil
}

// handleReject godoc
// @Summary      Reject a credit request
// @Tags         wallet-admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Transaction ID"
// @Param        request body rejectRequest false "Rejection reason"
// @Success      200 {object} HttpResponse "Rejected transaction"
// @Failure      401 {object} ErrorResponse "Missing or invalid admin token"
// @Failure      404 {object} ErrorResponse "Transaction not found"
// @Failure      409 {object} ErrorResponse "Transaction is not a pending credit"
// @Router       /wallet/credit-requests/{id}/reject [put]
func (h *WalletHandler) handleReject(w http.ResponseWriter, r *http.Request) error {
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.RespondWithError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return nil
	}

	tx, err := h.approvalUC.Reject(r.Context(), mux.Vars(r)["id"], req.Reason)
	if err != nil {
		return err
	}

	h.RespondWithSuccess(w, http.StatusOK, "credit request rejected", toTransactionResponse(tx))
	return nil
}

// handleSpend godoc
// @Summary      Spend from the wallet
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client retry key"
// @Param        request body spendRequest true "Spend"
// @Success      201 {object} HttpResponse "Debit recorded"
// @Success      200 {object} HttpResponse "Replay of an earlier spend"
// @Failure      400 {object} ErrorResponse "Validation error or insufficient funds"
// @Failure      409 {object} ErrorResponse "Idempotency-Key already used for a different request"
// @Router       /wallet/spend [post]
func (h *WalletHandler) handleSpend(w http.ResponseWriter, r *http.Request) error {
	var req spendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return nil
	}

	amount, err := entity.ParseAmountJSON(req.Amount)
	if err != nil {
		return validationException(err)
	}

	out, err := h.spendUC.Execute(r.Context(), usecase.SpendInput{
		Account:        req.Account,
		Amount:         amount,
		Description:    req.Description,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(idempotencyKeyHeader)),
	})
	if err != nil {
		return err
	}

	if out.Idempotent {
		h.RespondWithSuccess(w, http.StatusOK, "spend already recorded", toTransactionResponse(out.Transaction))
		return nil
	}
	h.RespondWithSuccess(w, http.StatusCreated, "spend recorded", toTransactionResponse(out.Transaction))
	return nil
}

// handleGetBalance godoc
// @Summary      Get wallet balance
// @Description  Returns the ledger balance. With reported_balance the value is reconciled and drift is flagged.
// @Tags         wallet
// @Produce      json
// @Param        account query string true "Account"
// @Param        reported_balance query number false "Balance previously shown to the caller"
// @Success      200 {object} HttpResponse "Balance"
// @Failure      400 {object} ErrorResponse "Validation error"
// @Router       /wallet/balance [get]
func (h *WalletHandler) handleGetBalance(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	account := query.Get("account")

	if raw := strings.TrimSpace(query.Get("reported_balance")); raw != "" {
		reported, err := decimal.NewFromString(raw)
		if err != nil {
			return validationException(entity.ErrReportedBalance)
		}

		out, err := h.reconcileUC.Execute(r.Context(), usecase.ReconcileInput{
			Account:         account,
			ReportedBalance: reported,
		})
		if err != nil {
			return err
		}

		h.RespondWithSuccess(w, http.StatusOK, "ok", balanceResponse{
			Account:         out.Account,
			Balance:         out.Balance,
			ReportedBalance: &out.ReportedBalance,
			DriftDetected:   &out.DriftDetected,
		})
		return nil
	}

	out, err := h.balanceUC.Execute(r.Context(), usecase.BalanceInput{Account: account})
	if err != nil {
		return err
	}

	h.RespondWithSuccess(w, http.StatusOK, "ok", balanceResponse{
		Account: out.Account,
		Balance: out.Balance,
	})
	return nil
}

// handleListTransactions godoc
// @Summary      List wallet transactions
// @Tags         wallet
// @Produce      json
// @Param        account query string true "Account"
// @Success      200 {object} HttpResponse "Transactions, newest first"
// @Failure      400 {object} ErrorResponse "Validation error"
// @Router       /wallet/transactions [get]
func (h *WalletHandler) handleListTransactions(w http.ResponseWriter, r *http.Request) error {
	txs, err := h.listUC.Execute(r.Context(), r.URL.Query().Get("account"))
	if err != nil {
		return err
	}

	resp := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, toTransactionResponse(tx))
	}

	h.RespondWithSuccess(w, http.StatusOK, "ok", resp)
	return nil
}

// handleGetTransaction godoc
// @Summary      Get a transaction
// @Tags         wallet
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200 {object} HttpResponse "Transaction"
// @Failure      404 {object} ErrorResponse "Transaction not found"
// @Router       /wallet/transactions/{id} [get]
func (h *WalletHandler) handleGetTransaction(w http.ResponseWriter, r *http.Request) error {
	tx, err := h.getUC.Execute(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return err
	}

	h.RespondWithSuccess(w, http.StatusOK, "ok", toTransactionResponse(tx))
	return nil
}

func (h *WalletHandler) wrap(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		var exc *apperrors.Exception
		if errors.As(err, &exc) {
			h.RespondWithException(w, r, exc)
			return
		}
		h.RespondWithError(w, r, http.StatusInternalServerError, "internal server error", err.Error())
	}
}

func validationException(err error) *apperrors.Exception {
	var validation *entity.ValidationError
	if errors.As(err, &validation) {
		return apperrors.BadRequest(
			apperrors.WithMessage(validation.Error()),
			apperrors.WithField(validation.Field),
		)
	}
	return apperrors.BadRequest(apperrors.WithMessage(err.Error()))
}

func toTransactionResponse(tx *entity.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Account:     tx.Account,
		Amount:      tx.Amount,
		Direction:   string(tx.Direction),
		Status:      string(tx.Status),
		Reference:   tx.Reference,
		ProofRef:    tx.ProofRef,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}
