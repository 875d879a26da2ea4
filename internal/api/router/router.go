package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/salon-dashboard/internal/dashboard"
	httpmiddleware "github.com/wolfman30/salon-dashboard/internal/http/middleware"
	"github.com/wolfman30/salon-dashboard/internal/observability/metrics"
	"github.com/wolfman30/salon-dashboard/pkg/logging"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Metrics            *metrics.SchedulingMetrics
	Dashboard          *dashboard.Handler
	OwnerJWTSecret     string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter
	HealthChecks       map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger, cfg.Metrics))

	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.HealthChecks))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	if cfg.Dashboard != nil {
		r.Route("/api/v1", func(api chi.Router) {
			if cfg.RateLimiter != nil {
				api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
			}
			if cfg.OwnerJWTSecret != "" {
				api.Use(httpmiddleware.OwnerJWT(cfg.OwnerJWTSecret))
			}
			cfg.Dashboard.RegisterRoutes(api)
		})
	}

	return r
}

// healthHandler reports "ok" when every check passes and 503 otherwise.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		response := map[string]string{"status": "ok"}
		code := http.StatusOK
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				response[name] = err.Error()
				response["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			response[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(response)
	}
}
