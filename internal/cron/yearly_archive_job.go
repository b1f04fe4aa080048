package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/launchboard-backend/internal/archive"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
	"github.com/angelmondragon/launchboard-backend/pkg/metrics"
)

type yearArchiver interface {
	RunIfDue(ctx context.Context) (*archive.Summary, error)
}

// YearlyArchiveJobParams configure the yearly archive job.
type YearlyArchiveJobParams struct {
	Logger   *logger.Logger
	Archiver yearArchiver
	Metrics  *metrics.CronJobMetrics
}

// NewYearlyArchiveJob builds the job that archives the previous year once.
// It runs every cycle; the archiver skips years that already completed.
func NewYearlyArchiveJob(params YearlyArchiveJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Archiver == nil {
		return nil, fmt.Errorf("archiver required")
	}
	return &yearlyArchiveJob{logg: params.Logger, archiver: params.Archiver, metrics: params.Metrics}, nil
}

type yearlyArchiveJob struct {
	logg     *logger.Logger
	archiver yearArchiver
	metrics  *metrics.CronJobMetrics
}

func (j *yearlyArchiveJob) Name() string { return "yearly-archive" }

func (j *yearlyArchiveJob) Run(ctx context.Context) error {
	summary, err := j.archiver.RunIfDue(ctx)
	if summary == nil {
		return err
	}
	for period, entries := range summary.Entries {
		j.metrics.SetArchivedEntries(period.String(), entries)
	}
	if err != nil {
		return err
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"year": summary.Year, "entries": summary.Total()})
	j.logg.Info(logCtx, "yearly archive completed")
	return nil
}
