package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterDeps groups what NewRouter needs.
type RouterDeps struct {
	Sessions      SessionService
	Authenticator Authenticator
	DB            Pinger
	Logger        logging.Logger
	Metrics       metrics.Recorder
	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter builds the HTTP API.
//
//	POST /api/v1/register
//	POST /api/v1/login
//	POST /api/v1/refresh-token
//	POST /api/v1/logout        (bearer)
//	GET  /api/v1/me            (bearer)
//	GET  /healthz
//	GET  /metrics
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger.With("module", "http")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(NewRecoveryMiddleware(logger))

	h := NewAuthHandler(deps.Sessions, deps.DB)

	r.Get("/healthz", h.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh-token", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(NewBearerMiddleware(deps.Authenticator))
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, Envelope{Message: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, Envelope{Message: "method not allowed"})
	})

	return r
}
