// Package httptransport assembles the HTTP surface: middleware stack,
// operational endpoints, and the module routes. Handlers delegate to domain
// services; no business logic lives here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"basket/internal/platform/metrics"
	"basket/internal/platform/middleware"
)

// Registrar is implemented by module handlers that mount their own routes.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router needs wired in.
type Deps struct {
	Auth        Registrar
	Shopping    Registrar
	Validator   middleware.TokenValidator
	Revocations middleware.RevocationChecker
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	// Health reports readiness of backing stores; nil means always ready.
	Health func(ctx context.Context) error
}

// NewRouter builds the full router. Token issuance stays outside the auth
// guard; every shopping route sits behind it.
func NewRouter(deps Deps) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Latency(deps.Metrics))

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(r.Context()); err != nil {
				http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	deps.Auth.Register(router)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Revocations, deps.Logger))
		deps.Shopping.Register(r)
	})

	return router
}
