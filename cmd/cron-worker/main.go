package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/launchboard-backend/internal/archive"
	"github.com/angelmondragon/launchboard-backend/internal/cron"
	"github.com/angelmondragon/launchboard-backend/internal/launches"
	"github.com/angelmondragon/launchboard-backend/internal/rankings"
	"github.com/angelmondragon/launchboard-backend/internal/winners"
	"github.com/angelmondragon/launchboard-backend/pkg/config"
	"github.com/angelmondragon/launchboard-backend/pkg/db"
	"github.com/angelmondragon/launchboard-backend/pkg/instance"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
	"github.com/angelmondragon/launchboard-backend/pkg/metrics"
	"github.com/angelmondragon/launchboard-backend/pkg/migrate"
	"github.com/angelmondragon/launchboard-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	loc, err := cfg.Launch.Location()
	if err != nil {
		logg.Error(context.Background(), "invalid launch timezone", err)
		os.Exit(1)
	}

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	jobs, err := buildJobs(logg, dbClient, loc, metrics.NewLaunchMetrics(prometheus.DefaultRegisterer), cronMetrics, cfg)
	if err != nil {
		logg.Error(context.Background(), "failed to build cron jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker", envOrLocal(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// buildJobs wires the launch promotion, winner detection and yearly archive
// jobs in the order they must run each cycle.
func buildJobs(logg *logger.Logger, dbClient *db.Client, loc *time.Location, launchMetrics *metrics.LaunchMetrics, cronMetrics *metrics.CronJobMetrics, cfg *config.Config) ([]cron.Job, error) {
	conn := dbClient.DB()

	launchService, err := launches.NewService(launches.ServiceParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: launches.NewRepository(conn),
		Scheduler: launches.NewScheduler(launches.SchedulerParams{
			CapacityPerWeek: cfg.Launch.CapacityPerWeek,
			SearchDays:      cfg.Launch.SearchDays,
			Location:        loc,
			Metrics:         launchMetrics,
		}),
		Metrics: launchMetrics,
	})
	if err != nil {
		return nil, err
	}

	engine, err := rankings.NewEngine(rankings.NewRepository(conn))
	if err != nil {
		return nil, err
	}

	detector, err := winners.NewDetector(winners.DetectorParams{
		Logger:     logg,
		DB:         dbClient,
		Ranker:     engine,
		Repository: winners.NewRepository(conn),
	})
	if err != nil {
		return nil, err
	}

	archiver, err := archive.NewArchiver(archive.ArchiverParams{
		Logger:     logg,
		DB:         dbClient,
		Ranker:     engine,
		Repository: archive.NewRepository(conn),
		Location:   loc,
	})
	if err != nil {
		return nil, err
	}

	promotion, err := cron.NewLaunchPromotionJob(cron.LaunchPromotionJobParams{Logger: logg, Promoter: launchService})
	if err != nil {
		return nil, err
	}
	winnerJob, err := cron.NewWinnerDetectionJob(cron.WinnerDetectionJobParams{Logger: logg, Detector: detector, Metrics: cronMetrics})
	if err != nil {
		return nil, err
	}
	archiveJob, err := cron.NewYearlyArchiveJob(cron.YearlyArchiveJobParams{Logger: logg, Archiver: archiver, Metrics: cronMetrics})
	if err != nil {
		return nil, err
	}
	return []cron.Job{promotion, winnerJob, archiveJob}, nil
}

func envOrLocal(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
