// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bronn/internal/gate"
	"bronn/internal/platform/middleware"
	"bronn/internal/platform/ratelimit"
)

// HealthCheck reports the readiness of one dependency.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries everything the router mounts. Nil fields disable the
// corresponding routes so tests can wire only what they exercise.
type RouterConfig struct {
	Gate       *gate.Gate
	Federation *FederationHandler
	Native     *NativeHandler
	Limiter    *ratelimit.Limiter
	Logger     *slog.Logger
	Checks     map[string]HealthCheck
}

// NewRouter wires all public endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.CaptureMetadata)
	r.Use(middleware.RequestLogging(cfg.Logger))

	r.Get("/healthz", healthHandler(cfg.Checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if cfg.Federation != nil {
		r.Group(func(g chi.Router) {
			if cfg.Limiter != nil {
				g.Use(cfg.Limiter.Middleware(ratelimit.ClassFederation))
			}
			cfg.Federation.Register(g)
		})
	}

	if cfg.Gate != nil && cfg.Native != nil {
		native := cfg.Native.Handler()
		if cfg.Limiter != nil {
			native = cfg.Limiter.Middleware(ratelimit.ClassNativeAuth)(native)
		}
		cfg.Gate.Mount(r, native)
	}

	return r
}

// healthHandler runs each dependency check with a short deadline. Any
// failure flips the endpoint to 503 so orchestrators stop routing here.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		writeJSON(w, status, body)
	}
}
