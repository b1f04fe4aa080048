package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/launchboard-backend/api/routes"
	"github.com/angelmondragon/launchboard-backend/internal/launches"
	squarewebhook "github.com/angelmondragon/launchboard-backend/internal/webhooks/square"
	"github.com/angelmondragon/launchboard-backend/pkg/config"
	"github.com/angelmondragon/launchboard-backend/pkg/db"
	"github.com/angelmondragon/launchboard-backend/pkg/instance"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
	"github.com/angelmondragon/launchboard-backend/pkg/metrics"
	"github.com/angelmondragon/launchboard-backend/pkg/migrate"
	"github.com/angelmondragon/launchboard-backend/pkg/redis"
	"github.com/angelmondragon/launchboard-backend/pkg/square"
)

const (
	squareIdempotencyScope = "square-webhook"
	shutdownTimeout        = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Instance:    instance.GetID(),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap square client", err)
		os.Exit(1)
	}

	loc, err := cfg.Launch.Location()
	if err != nil {
		logg.Error(context.Background(), "invalid launch timezone", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	launchMetrics := metrics.NewLaunchMetrics(registry)

	launchService, err := launches.NewService(launches.ServiceParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: launches.NewRepository(dbClient.DB()),
		Scheduler: launches.NewScheduler(launches.SchedulerParams{
			CapacityPerWeek: cfg.Launch.CapacityPerWeek,
			SearchDays:      cfg.Launch.SearchDays,
			Location:        loc,
			Metrics:         launchMetrics,
		}),
		Metrics: launchMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create launch service", err)
		os.Exit(1)
	}

	webhookService, err := squarewebhook.NewService(squarewebhook.ServiceParams{
		Logger:   logg,
		Launches: launchService,
		Payments: squareClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create square webhook service", err)
		os.Exit(1)
	}

	guard, err := squarewebhook.NewIdempotencyGuard(redisClient, cfg.Webhooks.IdempotencyTTL, squareIdempotencyScope)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Gatherer:      registry,
			SquareService: webhookService,
			SquareClient:  squareClient,
			SquareGuard:   guard,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server stopped")
	}
}
