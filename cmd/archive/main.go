package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/launchboard-backend/internal/archive"
	"github.com/angelmondragon/launchboard-backend/internal/rankings"
	"github.com/angelmondragon/launchboard-backend/pkg/config"
	"github.com/angelmondragon/launchboard-backend/pkg/db"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "archive"})

	_ = godotenv.Load()

	year := flag.Int("year", 0, "year to archive (defaults to the previous year)")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "archive",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	loc, err := cfg.Launch.Location()
	requireResource(ctx, logg, "launch timezone", err)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	engine, err := rankings.NewEngine(rankings.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "ranking engine", err)

	archiver, err := archive.NewArchiver(archive.ArchiverParams{
		Logger:     logg,
		DB:         dbClient,
		Ranker:     engine,
		Repository: archive.NewRepository(dbClient.DB()),
		Location:   loc,
	})
	requireResource(ctx, logg, "archiver", err)

	target := *year
	if target == 0 {
		target = archiver.TargetYear()
	}
	ctx = logg.WithArchivePeriod(ctx, target, "")

	summary, err := archiver.ArchiveYear(ctx, target)
	if err != nil {
		logg.Error(ctx, "archive incomplete", err)
		fmt.Fprintf(os.Stderr, "archive %d incomplete: %v\n", target, err)
		os.Exit(1)
	}
	fmt.Printf("archived %d: %d entries %v\n", summary.Year, summary.Total(), summary.Entries)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
