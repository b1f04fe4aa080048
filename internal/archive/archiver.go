package archive

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/launchboard-backend/internal/rankings"
	"github.com/angelmondragon/launchboard-backend/pkg/enums"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
)

// TopN is the number of products kept per period.
const TopN = 100

type ranker interface {
	Rank(ctx context.Context, window rankings.Window, limit int) ([]rankings.Entry, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ArchiverParams wires the archiver.
type ArchiverParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Ranker     ranker
	Repository *Repository
	Location   *time.Location
	Now        func() time.Time
}

// Archiver snapshots the top products of the previous year.
type Archiver struct {
	logg   *logger.Logger
	db     txRunner
	ranker ranker
	repo   *Repository
	loc    *time.Location
	now    func() time.Time
}

// NewArchiver builds an archiver.
func NewArchiver(params ArchiverParams) (*Archiver, error) {
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
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Archiver{
		logg:   params.Logger,
		db:     params.DB,
		ranker: params.Ranker,
		repo:   params.Repository,
		loc:    loc,
		now:    now,
	}, nil
}

// TargetYear is the year before the current one in the reference zone.
func (a *Archiver) TargetYear() int {
	return a.now().In(a.loc).Year() - 1
}

// Summary reports how many entries each period stored.
type Summary struct {
	Year    int
	Entries map[enums.ArchivePeriod]int
}

// Total sums the stored entries across periods.
func (s Summary) Total() int {
	total := 0
	for _, n := range s.Entries {
		total += n
	}
	return total
}

// ArchiveYear ranks and stores every period of year. A failing period is logged
// and skipped; earlier periods stay committed.
func (a *Archiver) ArchiveYear(ctx context.Context, year int) (Summary, error) {
	ctx = a.logg.WithArchivePeriod(ctx, year, "")
	summary := Summary{Year: year, Entries: make(map[enums.ArchivePeriod]int, len(enums.ArchivePeriods))}
	var errs error
	for _, period := range enums.ArchivePeriods {
		periodCtx := a.logg.WithArchivePeriod(ctx, year, period.String())
		stored, err := a.archivePeriod(periodCtx, year, period)
		if err != nil {
			a.logg.Error(periodCtx, "archive period failed", err)
			errs = multierr.Append(errs, fmt.Errorf("%s period: %w", period, err))
			continue
		}
		summary.Entries[period] = stored
		a.logg.Info(a.logg.WithField(periodCtx, "entries", stored), "archive period stored")
	}
	return summary, errs
}

func (a *Archiver) archivePeriod(ctx context.Context, year int, period enums.ArchivePeriod) (int, error) {
	window, err := PeriodBounds(year, period, a.loc)
	if err != nil {
		return 0, err
	}
	entries, err := a.ranker.Rank(ctx, window, TopN)
	if err != nil {
		return 0, err
	}
	if err := a.db.WithTx(ctx, func(tx *gorm.DB) error {
		return a.repo.WithTx(tx).ReplacePeriod(ctx, year, period, entries)
	}); err != nil {
		return 0, fmt.Errorf("store entries: %w", err)
	}
	return len(entries), nil
}

// RunIfDue archives the target year once and returns its summary, or nil when the
// year is already complete. The completion marker is only written when every period
// succeeded, so a partial run is retried on the next trigger.
func (a *Archiver) RunIfDue(ctx context.Context) (*Summary, error) {
	year := a.TargetYear()
	done, err := a.repo.RunCompleted(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("check archive run: %w", err)
	}
	if done {
		return nil, nil
	}
	summary, err := a.ArchiveYear(ctx, year)
	if err != nil {
		return &summary, err
	}
	if err := a.repo.MarkCompleted(ctx, year, summary.Total(), a.now()); err != nil {
		return &summary, fmt.Errorf("mark archive run: %w", err)
	}
	return &summary, nil
}
