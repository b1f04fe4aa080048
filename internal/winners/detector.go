// Package winners flags the top product of each rolling launch window.
package winners

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/launchboard-backend/internal/rankings"
	"github.com/angelmondragon/launchboard-backend/pkg/enums"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
)

var windowSpans = map[enums.WinnerWindow]time.Duration{
	enums.WinnerWindowDaily:   24 * time.Hour,
	enums.WinnerWindowWeekly:  7 * 24 * time.Hour,
	enums.WinnerWindowMonthly: 30 * 24 * time.Hour,
}

// WindowFor returns the rolling window ending at now.
func WindowFor(window enums.WinnerWindow, now time.Time) (rankings.Window, error) {
	span, ok := windowSpans[window]
	if !ok {
		return rankings.Window{}, fmt.Errorf("unknown winner window %q", window)
	}
	now = now.UTC()
	return rankings.Window{From: now.Add(-span), To: now}, nil
}

type ranker interface {
	Rank(ctx context.Context, window rankings.Window, limit int) ([]rankings.Entry, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DetectorParams wires the winner detector.
type DetectorParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Ranker     ranker
	Repository *Repository
	Now        func() time.Time
}

// Detector recomputes the daily, weekly and monthly winner flags.
type Detector struct {
	logg   *logger.Logger
	db     txRunner
	ranker ranker
	repo   *Repository
	now    func() time.Time
}

// NewDetector builds a detector.
func NewDetector(params DetectorParams) (*Detector, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Ranker == nil {
		return nil, fmt.Errorf("ranker required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Detector{
		logg:   params.Logger,
		db:     params.DB,
		ranker: params.Ranker,
		repo:   params.Repository,
		now:    now,
	}, nil
}

// Outcome is the result of one window.
type Outcome struct {
	Window enums.WinnerWindow
	Winner *uuid.UUID
	Err    error
}

// Detect ranks every window first, then swaps each window's flag in its own transaction.
// A window whose ranking or swap fails keeps its previous flag; the others still proceed.
func (d *Detector) Detect(ctx context.Context) ([]Outcome, error) {
	now := d.now()
	outcomes := make([]Outcome, 0, len(enums.WinnerWindows))
	for _, window := range enums.WinnerWindows {
		outcomes = append(outcomes, d.computeWinner(ctx, window, now))
	}

	var errs error
	for i := range outcomes {
		outcome := &outcomes[i]
		logCtx := d.logg.WithWindow(ctx, outcome.Window.String())
		if outcome.Err == nil {
			outcome.Err = d.db.WithTx(ctx, func(tx *gorm.DB) error {
				return d.repo.WithTx(tx).SwapWinner(ctx, outcome.Window, outcome.Winner)
			})
		}
		if outcome.Err != nil {
			d.logg.Error(logCtx, "winner window skipped; previous flag kept", outcome.Err)
			errs = multierr.Append(errs, fmt.Errorf("%s window: %w", outcome.Window, outcome.Err))
			continue
		}
		if outcome.Winner == nil {
			d.logg.Info(logCtx, "no launched products in window; flag cleared")
			continue
		}
		d.logg.Info(d.logg.WithProductID(logCtx, outcome.Winner.String()), "winner flagged")
	}
	return outcomes, errs
}

func (d *Detector) computeWinner(ctx context.Context, window enums.WinnerWindow, now time.Time) Outcome {
	outcome := Outcome{Window: window}
	bounds, err := WindowFor(window, now)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	entries, err := d.ranker.Rank(ctx, bounds, 1)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if len(entries) > 0 {
		winner := entries[0].ProductID
		outcome.Winner = &winner
	}
	return outcome
}
