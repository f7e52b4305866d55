package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/crm-dashboard-go/internal/config"
	"github.com/boddenberg/crm-dashboard-go/internal/handler"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/crm"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/observability"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/pagination"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/resilience"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/transport"
	"github.com/boddenberg/crm-dashboard-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("api_version", cfg.APIVersion),
		zap.String("base_url", cfg.BaseURL),
		zap.String("location_id", cfg.LocationID),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("page_size", cfg.PageSize),
		zap.Int("max_pages", cfg.MaxPages),
		zap.Float64("rate_limit_rps", cfg.RateLimitRPS),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "crm-dashboard")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("crm-api", logger)

	// --- CRM client ---
	version, err := crm.ParseVersion(cfg.APIVersion)
	if err != nil {
		logger.Fatal("invalid CRM API version", zap.Error(err))
	}

	transportCfg := transport.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.HTTPTimeout,
	}
	if version == crm.V2 {
		transportCfg.VersionHeader = cfg.VersionHeader
	}

	client := transport.NewClient(
		&http.Client{},
		transportCfg,
		cb,
		resilience.NewPacer(resilienceCfg.RateLimitRPS, resilienceCfg.RateLimitBurst),
		resilience.NewBulkhead(resilienceCfg.MaxConcurrency),
		metrics,
		logger,
	)

	fetchers, err := crm.NewFetchers(version, client, cfg.LocationID, pagination.Options{
		PageSize: cfg.PageSize,
		MaxPages: cfg.MaxPages,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("failed to build CRM fetchers", zap.Error(err))
	}

	// --- Services ---
	dashboardSvc := service.NewDashboard(
		fetchers.Contacts,
		fetchers.Opportunities,
		fetchers.Conversations,
		fetchers.Pipelines,
		service.DashboardConfig{
			LocationID:     cfg.LocationID,
			BusinessName:   cfg.BusinessName,
			DashboardTitle: cfg.DashboardTitle,
			APIVersion:     string(version),
		},
		metrics,
		logger,
	)

	// --- Router ---
	router := handler.NewRouter(dashboardSvc, cb, metrics, logger)

	// --- Server ---
	// A summary may drain many pages, so writes get more room than reads.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
