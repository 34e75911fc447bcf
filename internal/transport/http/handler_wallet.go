package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"raspa-wallet/internal/app/wallet"
	"raspa-wallet/internal/store"
)

type WalletHandlers struct {
	walletSvc *wallet.Service
	store     *store.Store
}

func NewWalletHandlers(walletSvc *wallet.Service, st *store.Store) *WalletHandlers {
	return &WalletHandlers{walletSvc: walletSvc, store: st}
}

func (h *WalletHandlers) ApplyDeposit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserFromContext(r.Context())
		if !ok {
			WriteHTTPError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var body struct {
			ExternalRef string `json:"external_ref"`
			Amount      int64  `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		metricDepositApplyTotal.Add(1)
		result, err := h.walletSvc.ApplyDeposit(r.Context(), uid, body.ExternalRef, body.Amount)
		if err != nil {
			metricDepositApplyErrors.Add(1)
			writeWalletError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(result)
	}
}

// CreateTransaction is the generic entrypoint the client UI uses. Deposits
// reported as completed go through the reconciler; deposits awaiting provider
// confirmation land as pending rows; bets and wins settle immediately. A
// deposit with any other status is acknowledged and has no balance effect.
func (h *WalletHandlers) CreateTransaction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserFromContext(r.Context())
		if !ok {
			WriteHTTPError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var body struct {
			Kind        string `json:"kind"`
			Amount      int64  `json:"amount"`
			Status      string `json:"status"`
			ExternalRef string `json:"external_ref"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}

		kind := strings.ToLower(strings.TrimSpace(body.Kind))
		status := strings.ToLower(strings.TrimSpace(body.Status))
		switch kind {
		case store.TxKindDeposit:
			switch status {
			case "", store.TxStatusPending:
				tx, err := h.walletSvc.CreatePendingDeposit(r.Context(), uid, body.ExternalRef, body.Amount, body.Description)
				if err != nil {
					writeWalletError(w, err)
					return
				}
				w.WriteHeader(http.StatusCreated)
				_ = json.NewEncoder(w).Encode(map[string]any{"transaction": tx})
			case store.TxStatusCompleted, "paid":
				if body.ExternalRef == "" {
					WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
					return
				}
				metricDepositApplyTotal.Add(1)
				result, err := h.walletSvc.ApplyDeposit(r.Context(), uid, body.ExternalRef, body.Amount)
				if err != nil {
					metricDepositApplyErrors.Add(1)
					writeWalletError(w, err)
					return
				}
				_ = json.NewEncoder(w).Encode(result)
			default:
				_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "ignored": true})
			}
		case store.TxKindBet, store.TxKindWin:
			metricAdjustmentTotal.Add(1)
			result, err := h.walletSvc.ApplyAdjustment(r.Context(), uid, kind, body.Amount, body.Description)
			if err != nil {
				metricAdjustmentErrors.Add(1)
				writeWalletError(w, err)
				return
			}
			_ = json.NewEncoder(w).Encode(result)
		default:
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
		}
	}
}

func (h *WalletHandlers) ListTransactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserFromContext(r.Context())
		if !ok {
			WriteHTTPError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h.respondTransactionPage(w, r, uid, r.URL.Query().Get("kind"))
	}
}

// ListBets is the shortcut route the game UI polls.
func (h *WalletHandlers) ListBets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserFromContext(r.Context())
		if !ok {
			WriteHTTPError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h.respondTransactionPage(w, r, uid, store.TxKindBet)
	}
}

func (h *WalletHandlers) respondTransactionPage(w http.ResponseWriter, r *http.Request, uid, kind string) {
	page, pageSize, offset := ParsePageQuery(r)
	f := store.TransactionFilter{UserID: uid, Kind: strings.ToLower(strings.TrimSpace(kind))}
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = &t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = &t
		}
	}
	ascending := r.URL.Query().Get("sort") == "asc"

	items, err := h.store.ListTransactions(r.Context(), f, ascending, pageSize, offset)
	if err != nil {
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	total, err := h.store.CountTransactions(r.Context(), f)
	if err != nil {
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"items":       items,
		"total":       total,
		"totalPages":  totalPages,
		"currentPage": page,
	})
}

func writeWalletError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wallet.ErrInvalidArgument):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
	case errors.Is(err, wallet.ErrNotFound):
		WriteHTTPError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, wallet.ErrInsufficientBalance):
		WriteHTTPError(w, http.StatusUnprocessableEntity, "insufficient_balance")
	case errors.Is(err, wallet.ErrUnavailable):
		WriteHTTPError(w, http.StatusServiceUnavailable, "unavailable")
	default:
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}
