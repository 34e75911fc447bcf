package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"raspa-wallet/internal/app/auth"
)

type AuthHandlers struct {
	authSvc *auth.Service
}

func NewAuthHandlers(authSvc *auth.Service) *AuthHandlers {
	return &AuthHandlers{authSvc: authSvc}
}

func (h *AuthHandlers) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.RegisterInput
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		profile, err := h.authSvc.Register(r.Context(), body)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidRequest):
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			case errors.Is(err, auth.ErrEmailTaken):
				WriteHTTPError(w, http.StatusConflict, "email_taken")
			default:
				WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			}
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"user": profile})
	}
}

func (h *AuthHandlers) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		result, err := h.authSvc.Login(r.Context(), body.Email, body.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidRequest):
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			case errors.Is(err, auth.ErrInvalidCredentials):
				WriteHTTPError(w, http.StatusUnauthorized, "invalid_credentials")
			default:
				WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			}
			return
		}
		_ = json.NewEncoder(w).Encode(result)
	}
}

func (h *AuthHandlers) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserFromContext(r.Context())
		if !ok {
			WriteHTTPError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		profile, err := h.authSvc.Profile(r.Context(), uid)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				WriteHTTPError(w, http.StatusNotFound, "not_found")
				return
			}
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"user": profile})
	}
}
