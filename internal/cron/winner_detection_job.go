package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/launchboard-backend/internal/winners"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
	"github.com/angelmondragon/launchboard-backend/pkg/metrics"
)

type winnerDetector interface {
	Detect(ctx context.Context) ([]winners.Outcome, error)
}

// WinnerDetectionJobParams configure the winner detection job.
type WinnerDetectionJobParams struct {
	Logger   *logger.Logger
	Detector winnerDetector
	Metrics  *metrics.CronJobMetrics
}

// NewWinnerDetectionJob builds the job that refreshes the rolling winner flags.
func NewWinnerDetectionJob(params WinnerDetectionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Detector == nil {
		return nil, fmt.Errorf("winner detector required")
	}
	return &winnerDetectionJob{logg: params.Logger, detector: params.Detector, metrics: params.Metrics}, nil
}

type winnerDetectionJob struct {
	logg     *logger.Logger
	detector winnerDetector
	metrics  *metrics.CronJobMetrics
}

func (j *winnerDetectionJob) Name() string { return "winner-detection" }

func (j *winnerDetectionJob) Run(ctx context.Context) error {
	outcomes, err := j.detector.Detect(ctx)
	flagged, failed := 0, 0
	for _, outcome := range outcomes {
		result := metrics.WindowCleared
		switch {
		case outcome.Err != nil:
			failed++
			result = metrics.WindowFailed
		case outcome.Winner != nil:
			flagged++
			result = metrics.WindowFlagged
		}
		j.metrics.ObserveWindow(outcome.Window.String(), result)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"flagged": flagged, "failed": failed})
	j.logg.Info(logCtx, "winner detection loop complete")
	return err
}
