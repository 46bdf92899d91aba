package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stelliformdigital/stelliform-web/internal/http/handlers"
	httpmiddleware "github.com/stelliformdigital/stelliform-web/internal/http/middleware"
	"github.com/stelliformdigital/stelliform-web/internal/intake"
	"github.com/stelliformdigital/stelliform-web/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger        *logging.Logger
	IntakeHandler *intake.Handler
	AdminLeads    *handlers.AdminLeadsHandler

	// FormLimiter throttles the public form POSTs. Nil disables limiting.
	FormLimiter httpmiddleware.Limiter

	// HealthCheck reports store readiness. Nil means always healthy.
	HealthCheck func(ctx context.Context) error

	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthHandler(cfg.HealthCheck))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.IntakeHandler != nil {
		limited := httpmiddleware.RateLimit(cfg.FormLimiter, cfg.Logger)
		r.Route("/api", func(api chi.Router) {
			api.With(limited).Post("/contact", cfg.IntakeHandler.PostContact)
			api.With(limited).Post("/intake-smart", cfg.IntakeHandler.PostIntakeSmart)
			api.Get("/intake-smart", cfg.IntakeHandler.GetIntakeSmart)
		})
	}

	if cfg.AdminLeads != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			cfg.AdminLeads.Routes(admin)
		})
	}

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
