package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"raspa-wallet/internal/app/auth"
	"raspa-wallet/internal/app/events"
	"raspa-wallet/internal/app/wallet"
	"raspa-wallet/internal/config"
	"raspa-wallet/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(st *store.Store, cfg config.ServerConfig) *chi.Mux {
	eventsSvc := events.NewService(st)
	walletSvc := wallet.NewService(st, st, st)
	authSvc := auth.NewService(st, cfg)

	authHandlers := NewAuthHandlers(authSvc)
	walletHandlers := NewWalletHandlers(walletSvc, st)
	webhookHandlers := NewWebhookHandlers(walletSvc)
	eventHandlers := NewEventHandlers(eventsSvc)
	adminHandlers := NewAdminHandlers(st)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Post("/auth/register", authHandlers.Register())
		r.Post("/auth/login", authHandlers.Login())
		r.Post("/webhooks/pixup", webhookHandlers.Pixup())
		r.Post("/events", eventHandlers.Record())

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(authSvc))
			r.Get("/me", authHandlers.Me())
			r.Get("/transactions", walletHandlers.ListTransactions())
			r.Post("/transactions", walletHandlers.CreateTransaction())
			r.Post("/deposits/apply", walletHandlers.ApplyDeposit())
			r.Get("/bets", walletHandlers.ListBets())
		})

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Get("/events", eventHandlers.List())
			r.Get("/admin/users", adminHandlers.Users())
			r.Get("/admin/transactions", adminHandlers.Transactions())

			r.Route("/admin/debug", func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Get("/vars", expvar.Handler().ServeHTTP)
			})
		})
	})

	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 64)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
