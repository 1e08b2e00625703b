package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"poker-ledger/internal/config"
	"poker-ledger/internal/ledger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// NewRouter wires the health check, the optional Telegram webhook and the
// admin ledger API. webhook may be nil when the bot long-polls. Without an
// admin key the API is read-only: the write routes are not mounted.
func NewRouter(svc *ledger.Service, db Pinger, cfg config.ServerConfig, webhook http.Handler) *chi.Mux {
	sessionHandlers := NewSessionHandlers(svc)
	writable := cfg.AdminAPIKey != ""

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", HealthHandler(db))
	if webhook != nil {
		r.With(APILogMiddleware()).Method(http.MethodPost, "/telegram/webhook", webhook)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))

		r.Get("/sessions/current", sessionHandlers.Current())
		if writable {
			r.With(BodyCaptureMiddleware(4096)).Post("/sessions", sessionHandlers.Open())
		}
		r.Route("/sessions/{session_id}", func(r chi.Router) {
			r.Get("/summary", sessionHandlers.Summary())
			r.Get("/players/{player_id}", sessionHandlers.Player())
			if writable {
				r.With(BodyCaptureMiddleware(4096)).Post("/transactions", sessionHandlers.Record())
			}
			r.Get("/export", sessionHandlers.Export())
		})

		r.Get("/debug/vars", expvar.Handler().ServeHTTP)
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
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
