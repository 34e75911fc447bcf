package httptransport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"raspa-wallet/internal/app/wallet"

	"github.com/go-chi/chi/v5"
)

func newWalletRouter(ledger *fakeLedger, accounts *fakeAccounts, uid string) *chi.Mux {
	svc := wallet.NewService(ledger, accounts, nopEvents{})
	h := NewWalletHandlers(svc, nil)
	router := chi.NewRouter()
	router.Post("/api/deposits/apply", withUser(uid, h.ApplyDeposit()))
	router.Post("/api/transactions", withUser(uid, h.CreateTransaction()))
	return router
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestApplyDepositEndpoint(t *testing.T) {
	ledger := newFakeLedger()
	accounts := newFakeAccounts()
	accounts.balances["u1"] = 100
	router := newWalletRouter(ledger, accounts, "u1")

	w := postJSON(t, router, "/api/deposits/apply", `{"external_ref":"pix_7","amount":25}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp wallet.DepositResult
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Balance != 125 || !resp.Settled {
		t.Fatalf("unexpected result %+v", resp)
	}

	// Retrying the same confirmation must not move the balance again.
	w = postJSON(t, router, "/api/deposits/apply", `{"external_ref":"pix_7","amount":25}`)
	if w.Code != http.StatusOK {
		t.Fatalf("retry: expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if got := accounts.balances["u1"]; got != 125 {
		t.Fatalf("balance = %d, want 125", got)
	}
}

func TestApplyDepositEndpointValidation(t *testing.T) {
	router := newWalletRouter(newFakeLedger(), newFakeAccounts(), "u1")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing ref", `{"amount":25}`, http.StatusBadRequest},
		{"zero amount", `{"external_ref":"pix_1","amount":0}`, http.StatusBadRequest},
		{"malformed", `{"amount":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/deposits/apply", tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d body=%s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateTransactionRoutesByKindAndStatus(t *testing.T) {
	ledger := newFakeLedger()
	accounts := newFakeAccounts()
	accounts.balances["u1"] = 100
	router := newWalletRouter(ledger, accounts, "u1")

	w := postJSON(t, router, "/api/transactions", `{"kind":"deposit","amount":40,"external_ref":"pix_9"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("pending deposit: expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	if got := accounts.balances["u1"]; got != 100 {
		t.Fatalf("pending deposit moved balance to %d", got)
	}

	w = postJSON(t, router, "/api/transactions", `{"kind":"deposit","amount":40,"status":"COMPLETED","external_ref":"pix_9"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("completed deposit: expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if got := accounts.balances["u1"]; got != 140 {
		t.Fatalf("balance = %d, want 140", got)
	}

	w = postJSON(t, router, "/api/transactions", `{"kind":"deposit","amount":40,"status":"REFUNDED","external_ref":"pix_10"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("refunded deposit: expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["ignored"] != true {
		t.Fatalf("expected ignored response, got %v", resp)
	}
	if got := accounts.balances["u1"]; got != 140 {
		t.Fatalf("ignored status moved balance to %d", got)
	}

	w = postJSON(t, router, "/api/transactions", `{"kind":"bet","amount":90}`)
	if w.Code != http.StatusOK {
		t.Fatalf("bet: expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if got := accounts.balances["u1"]; got != 50 {
		t.Fatalf("balance after bet = %d, want 50", got)
	}

	w = postJSON(t, router, "/api/transactions", `{"kind":"bet","amount":90}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("overdraw bet: expected 422, got %d body=%s", w.Code, w.Body.String())
	}

	w = postJSON(t, router, "/api/transactions", `{"kind":"jackpot","amount":10}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind: expected 400, got %d body=%s", w.Code, w.Body.String())
	}
}
