package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"raspa-wallet/internal/app/events"
	"raspa-wallet/internal/store"
)

type EventHandlers struct {
	eventsSvc *events.Service
}

func NewEventHandlers(eventsSvc *events.Service) *EventHandlers {
	return &EventHandlers{eventsSvc: eventsSvc}
}

func (h *EventHandlers) Record() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name     string          `json:"name"`
			Category string          `json:"category"`
			UID      string          `json:"uid"`
			Props    json.RawMessage `json:"props"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if uid, ok := UserFromContext(r.Context()); ok && body.UID == "" {
			body.UID = uid
		}
		err := h.eventsSvc.Record(r.Context(), events.RecordInput{
			Name:     body.Name,
			Category: body.Category,
			UID:      body.UID,
			Props:    body.Props,
			IP:       clientIP(r),
			UA:       r.UserAgent(),
		})
		if err != nil {
			if errors.Is(err, events.ErrInvalidRequest) {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

// List serves the admin event browser. With summary=1 it returns per-category
// counts for the requested window instead of rows.
func (h *EventHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var from, to *time.Time
		if v := q.Get("from"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				from = &t
			}
		}
		if v := q.Get("to"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				to = &t
			}
		}

		if q.Get("summary") == "1" {
			resp, err := h.eventsSvc.Summary(r.Context(), from, to)
			if err != nil {
				WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"counts": resp.Counts,
				"from":   resp.From,
				"to":     resp.To,
			})
			return
		}

		limit, offset := ParsePagination(r)
		f := store.EventFilter{
			Category: strings.ToLower(strings.TrimSpace(q.Get("category"))),
			UID:      q.Get("uid"),
			Name:     q.Get("name"),
			From:     from,
			To:       to,
		}
		resp, err := h.eventsSvc.List(r.Context(), f, limit, offset)
		if err != nil {
			if errors.Is(err, events.ErrInvalidRequest) {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": resp.Items, "total": resp.Total, "limit": limit, "offset": offset})
	}
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}
