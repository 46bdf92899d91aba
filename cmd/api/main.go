package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stelliformdigital/stelliform-web/internal/api/router"
	"github.com/stelliformdigital/stelliform-web/internal/app/bootstrap"
	appconfig "github.com/stelliformdigital/stelliform-web/internal/config"
	"github.com/stelliformdigital/stelliform-web/internal/http/handlers"
	"github.com/stelliformdigital/stelliform-web/internal/intake"
	"github.com/stelliformdigital/stelliform-web/internal/observability/metrics"
	"github.com/stelliformdigital/stelliform-web/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting stelliform lead intake API",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	store, err := bootstrap.BuildLeadStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open lead store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	notifier, err := bootstrap.BuildNotifier(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to configure notifications", "error", err)
		os.Exit(1)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	metricsHandler, leadMetrics := setupMetrics(cfg.MetricsEnabled)

	service := intake.NewService(store.Repo, notifier, leadMetrics, logger).WithNotifyTimeout(cfg.NotifyTimeout)
	r := router.New(&router.Config{
		Logger: logger,
		IntakeHandler: intake.NewHandler(service, intake.HandlerConfig{
			MaxBodyBytes:        cfg.MaxBodyBytes,
			IntakeFallbackEmail: cfg.IntakeFallbackEmail,
		}, logger),
		AdminLeads:         handlers.NewAdminLeadsHandler(store.Repo, logger),
		FormLimiter:        bootstrap.BuildFormLimiter(cfg, redisClient, logger),
		HealthCheck:        store.Ping,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second + cfg.NotifyTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "lead_store", store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers lead metrics on a private registry. The returned
// handler is nil when metrics are disabled.
func setupMetrics(enabled bool) (http.Handler, *metrics.LeadMetrics) {
	if !enabled {
		return nil, nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewLeadMetrics(reg)
}
