package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/salon-dashboard/cmd/mainconfig"
	"github.com/wolfman30/salon-dashboard/internal/api/router"
	"github.com/wolfman30/salon-dashboard/internal/archive"
	"github.com/wolfman30/salon-dashboard/internal/cache"
	appconfig "github.com/wolfman30/salon-dashboard/internal/config"
	"github.com/wolfman30/salon-dashboard/internal/dashboard"
	httpmiddleware "github.com/wolfman30/salon-dashboard/internal/http/middleware"
	"github.com/wolfman30/salon-dashboard/internal/observability/metrics"
	"github.com/wolfman30/salon-dashboard/internal/store"
	"github.com/wolfman30/salon-dashboard/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Service: "salon-dashboard"})
	logger.Info("starting salon dashboard API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"timezone", cfg.Timezone,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings, err := buildSettings(cfg)
	if err != nil {
		logger.Error("invalid scheduling configuration", "error", err)
		os.Exit(1)
	}

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	defer pool.Close()

	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open expense database", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	metricsHandler, schedMetrics := setupMetrics()
	rdb := connectRedis(ctx, cfg, logger)
	if rdb != nil {
		defer rdb.Close()
	}
	viewCache := cache.New(rdb, cache.Options{
		TTL:      cfg.CacheTTL,
		StaleTTL: cfg.CacheStaleTTL,
		Logger:   logger,
		Recorder: schedMetrics,
	})

	svc := dashboard.NewService(dashboard.Deps{
		Repo:     store.New(pool, settings.Location),
		Expenses: store.NewExpenseRepository(sqlDB, settings.Location),
		Cache:    viewCache,
		Metrics:  schedMetrics,
		Logger:   logger,
		Settings: settings,
	})

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.RunEviction(ctx, 5*time.Minute, 10*time.Minute)

	if worker := setupArchiver(ctx, cfg, svc, schedMetrics, logger); worker != nil {
		go worker.Start(ctx)
	}

	healthChecks := map[string]router.HealthCheck{"postgres": pool.Ping}
	if rdb != nil {
		healthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	r := router.New(&router.Config{
		Logger:             logger,
		Metrics:            schedMetrics,
		Dashboard:          dashboard.NewHandler(svc, logger),
		OwnerJWTSecret:     cfg.OwnerJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		HealthChecks:       healthChecks,
	})
	if cfg.OwnerJWTSecret == "" {
		logger.Warn("OWNER_JWT_SECRET not set: dashboard API is unauthenticated")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	viewCache.Wait()

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func buildSettings(cfg *appconfig.Config) (dashboard.Settings, error) {
	hours, err := cfg.BusinessHours()
	if err != nil {
		return dashboard.Settings{}, err
	}
	return dashboard.Settings{
		Hours:              hours,
		Location:           cfg.Location(),
		DefaultDuration:    cfg.DefaultDuration(),
		LookaheadDays:      cfg.LookaheadDays,
		InactiveClientDays: cfg.InactiveClientDays,
		WeekStart:          cfg.FirstWeekday(),
		Inclusion:          cfg.ExpectedInclusion(),
		FitWithinHours:     cfg.SlotsFitWithinHours,
	}, nil
}

func setupMetrics() (http.Handler, *metrics.SchedulingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewSchedulingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Warn("postgres not reachable at startup", "error", err)
	}
	return pool
}

// connectRedis returns nil when no address is configured; views are then
// computed on every request.
func connectRedis(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set: dashboard cache disabled")
		return nil
	}
	opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not reachable at startup", "addr", cfg.RedisAddr, "error", err)
	}
	return rdb
}

func setupArchiver(ctx context.Context, cfg *appconfig.Config, source archive.ReportSource, m *metrics.SchedulingMetrics, logger *logging.Logger) *archive.Worker {
	if cfg.ReportsBucket == "" {
		logger.Info("REPORTS_BUCKET not set: finance report archiving disabled")
		return nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		return nil
	}
	reports := archive.NewReportStore(mainconfig.NewS3Client(awsCfg, cfg), cfg.ReportsBucket, logger)
	loc := cfg.Location()
	return archive.NewWorker(source, reports, m, logger).
		WithInterval(cfg.ReportInterval).
		WithClock(func() time.Time { return time.Now().In(loc) })
}
