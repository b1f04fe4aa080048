package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/launchboard-backend/pkg/logger"
)

type launchPromoter interface {
	PromoteDue(ctx context.Context, now time.Time) (int64, error)
}

// LaunchPromotionJobParams configure the launch promotion job.
type LaunchPromotionJobParams struct {
	Logger   *logger.Logger
	Promoter launchPromoter
}

// NewLaunchPromotionJob builds the job that flips scheduled products to launched once their date arrives.
func NewLaunchPromotionJob(params LaunchPromotionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Promoter == nil {
		return nil, fmt.Errorf("launch promoter required")
	}
	return &launchPromotionJob{logg: params.Logger, promoter: params.Promoter, now: time.Now}, nil
}

type launchPromotionJob struct {
	logg     *logger.Logger
	promoter launchPromoter
	now      func() time.Time
}

func (j *launchPromotionJob) Name() string { return "launch-promotion" }

func (j *launchPromotionJob) Run(ctx context.Context) error {
	promoted, err := j.promoter.PromoteDue(ctx, j.now().UTC())
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithField(ctx, "count", promoted), "launch promotion loop complete")
	return nil
}
