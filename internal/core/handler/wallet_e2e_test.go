//go:build e2e

package handler_test

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	infradb "wallet-service/infra/db"
	"wallet-service/infra/lock"
	"wallet-service/infra/repository"
	"wallet-service/internal/core/handler"
	"wallet-service/internal/core/usecase"
)

// newE2ERouter wires the full stack against a running Postgres, configured
// through TEST_DB_* variables.
func newE2ERouter(t *testing.T) *mux.Router {
	t.Helper()

	port, err := strconv.Atoi(envOr("TEST_DB_PORT", "5432"))
	if err != nil {
		t.Fatalf("TEST_DB_PORT: %v", err)
	}
	db, err := infradb.Connect(
		envOr("TEST_DB_DRIVER", infradb.DriverPQ),
		envOr("TEST_DB_HOST", "localhost"),
		port,
		envOr("TEST_DB_USER", "postgres"),
		envOr("TEST_DB_PASSWORD", "postgres"),
		envOr("TEST_DB_NAME", "wallet_db"),
	)
	if err != nil {
		t.Fatalf("connect (configure via TEST_DB_* env vars): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := infradb.Migrate(db, "../../../migrations", envOr("TEST_DB_NAME", "wallet_db")); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := usecase.NewFactory(repository.NewTransactionRepository(db), lock.NewMemoryLocker(), testLogger())
	r := mux.NewRouter()
	handler.NewHandlerFactory(f, "").RegisterRoutes(r)
	return r
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func e2eCredit(t *testing.T, r http.Handler, account string, amount int64) string {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/wallet/credit-requests", map[string]any{
		"account":   account,
		"amount":    amount,
		"reference": "TRX-" + uuid.NewString()[:8],
		"proof_ref": "proofs/e2e.png",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("credit request: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeTx(t, rec).ID
}

func TestE2E_CreditApproveSpend(t *testing.T) {
	r := newE2ERouter(t)
	account := uuid.NewString() + "@example.com"

	id := e2eCredit(t, r, account, 500)
	if got := balance(t, r, account); got != 0 {
		t.Fatalf("pending credit must not count, got %d", got)
	}

	for i := range 2 {
		rec := do(t, r, http.MethodPut, "/wallet/credit-requests/"+id+"/approve", nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("approve %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	if got := balance(t, r, account); got != 500 {
		t.Fatalf("expected 500 after approval, got %d", got)
	}

	spend := map[string]any{"account": account, "amount": 300, "description": "credit score lookup"}
	if rec := do(t, r, http.MethodPost, "/wallet/spend", spend, nil); rec.Code != http.StatusCreated {
		t.Fatalf("spend: expected 201, got %d", rec.Code)
	}
	spend["amount"] = 500
	if rec := do(t, r, http.MethodPost, "/wallet/spend", spend, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("overdraft: expected 400, got %d", rec.Code)
	}
	if got := balance(t, r, account); got != 200 {
		t.Fatalf("expected 200, got %d", got)
	}
}

func TestE2E_RejectedCreditStaysOutOfBalance(t *testing.T) {
	r := newE2ERouter(t)
	account := uuid.NewString() + "@example.com"
	id := e2eCredit(t, r, account, 500)

	rec := do(t, r, http.MethodPut, "/wallet/credit-requests/"+id+"/reject", map[string]any{"reason": "blurry proof"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d", rec.Code)
	}
	if tx := decodeTx(t, rec); tx.Description != "blurry proof" {
		t.Fatalf("expected reason in description, got %q", tx.Description)
	}

	rec = do(t, r, http.MethodPut, "/wallet/credit-requests/"+id+"/approve", nil, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("approve after reject: expected 409, got %d", rec.Code)
	}
	if got := balance(t, r, account); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestE2E_IdempotentCreditRequest(t *testing.T) {
	r := newE2ERouter(t)
	account := uuid.NewString() + "@example.com"
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	body := map[string]any{"account": account, "amount": 750, "reference": "TRX-9", "proof_ref": "proofs/9.png"}

	first := do(t, r, http.MethodPost, "/wallet/credit-requests", body, headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("first request: expected 201, got %d", first.Code)
	}
	second := do(t, r, http.MethodPost, "/wallet/credit-requests", body, headers)
	if second.Code != http.StatusOK {
		t.Fatalf("second request: expected 200, got %d", second.Code)
	}
	if a, b := decodeTx(t, first).ID, decodeTx(t, second).ID; a != b {
		t.Fatalf("replay must return the same transaction: %s != %s", a, b)
	}
}

func TestE2E_ConcurrentSpendsNeverOverdraw(t *testing.T) {
	r := newE2ERouter(t)
	account := uuid.NewString() + "@example.com"
	id := e2eCredit(t, r, account, 200)
	if rec := do(t, r, http.MethodPut, "/wallet/credit-requests/"+id+"/approve", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d", rec.Code)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := do(t, r, http.MethodPost, "/wallet/spend", map[string]any{"account": account, "amount": 150, "description": "lookup"}, nil)
			if rec.Code == http.StatusCreated {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one spend to succeed, got %d", succeeded)
	}
	if got := balance(t, r, account); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}

func TestE2E_GetTransaction_NotFound(t *testing.T) {
	r := newE2ERouter(t)

	rec := do(t, r, http.MethodGet, "/wallet/transactions/"+uuid.NewString(), nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
