package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"raspa-wallet/internal/app/wallet"
)

type WebhookHandlers struct {
	walletSvc *wallet.Service
}

func NewWebhookHandlers(walletSvc *wallet.Service) *WebhookHandlers {
	return &WebhookHandlers{walletSvc: walletSvc}
}

// Pixup receives payment provider callbacks. The provider retries on non-2xx,
// so anything that is not worth retrying answers 200: confirmations that were
// already settled, and statuses we do not act on. A ref that matches no
// deposit is the provider's bug, not ours, and gets a 404; a store outage gets
// a 503 so the provider tries again.
func (h *WebhookHandlers) Pixup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricWebhookTotal.Add(1)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			metricWebhookErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		notif, err := wallet.ParseWebhook(body)
		if err != nil {
			metricWebhookErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if !notif.Confirmed {
			metricWebhookIgnored.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "ignored": true})
			return
		}
		if notif.ExternalRef == "" {
			metricWebhookErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "missing_external_ref")
			return
		}

		result, err := h.walletSvc.ConfirmDeposit(r.Context(), notif.ExternalRef)
		if err != nil {
			metricWebhookErrors.Add(1)
			switch {
			case errors.Is(err, wallet.ErrNotFound):
				WriteHTTPError(w, http.StatusNotFound, "unknown_external_ref")
			case errors.Is(err, wallet.ErrInvalidArgument):
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			default:
				WriteHTTPError(w, http.StatusServiceUnavailable, "unavailable")
			}
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "balance": result.Balance, "settled": result.Settled})
	}
}
