package launches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/launchboard-backend/pkg/enums"
	"github.com/angelmondragon/launchboard-backend/pkg/metrics"
	pkgerrors "github.com/angelmondragon/launchboard-backend/pkg/errors"
)

const (
	defaultCapacityPerWeek = 1
	defaultSearchDays      = 365
)

// ErrCapacityExhausted is returned when no week inside the search horizon has room.
var ErrCapacityExhausted = pkgerrors.New(pkgerrors.CodeStateConflict, "launch capacity exhausted")

// CapacityStore counts products already holding a launch date in a range.
type CapacityStore interface {
	CountLaunchesBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// SlotStore books capacity weeks on top of the read-only count.
// ReserveWeekSlot must be atomic: it reports false when the week is already full.
type SlotStore interface {
	CapacityStore
	ReserveWeekSlot(ctx context.Context, weekStart time.Time, observed int64, capacity int) (bool, error)
	RecordWeekSlot(ctx context.Context, weekStart time.Time) error
}

// PlanOffsetDays returns the minimum number of days between today and a launch for the plan.
func PlanOffsetDays(plan enums.PlanTier) int {
	switch plan {
	case enums.PlanTierJoin:
		return 8
	case enums.PlanTierRelaunch:
		return 31
	default:
		return 1
	}
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// WeekBounds returns the Monday-aligned week [start, end) containing t in loc.
func WeekBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	day := StartOfDay(t, loc)
	sinceMonday := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -sinceMonday)
	return start, start.AddDate(0, 0, 7)
}

// SchedulerParams configures launch slot assignment.
type SchedulerParams struct {
	CapacityPerWeek int
	SearchDays      int
	Location        *time.Location
	Now             func() time.Time
	Metrics         *metrics.LaunchMetrics
}

// Scheduler assigns launch dates under the weekly capacity limit.
type Scheduler struct {
	capacity   int
	searchDays int
	loc        *time.Location
	now        func() time.Time
	metrics    *metrics.LaunchMetrics
}

// NewScheduler builds a scheduler, filling defaults for zero values.
func NewScheduler(params SchedulerParams) *Scheduler {
	capacity := params.CapacityPerWeek
	if capacity <= 0 {
		capacity = defaultCapacityPerWeek
	}
	searchDays := params.SearchDays
	if searchDays <= 0 {
		searchDays = defaultSearchDays
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		capacity:   capacity,
		searchDays: searchDays,
		loc:        loc,
		now:        now,
		metrics:    params.Metrics,
	}
}

// Location exposes the reference zone used for day and week boundaries.
func (s *Scheduler) Location() *time.Location { return s.loc }

// AssignLaunchSlot picks and books a launch date for the plan.
// A skip plan with a requested date bypasses the search; the booking is still recorded.
func (s *Scheduler) AssignLaunchSlot(ctx context.Context, store SlotStore, plan enums.PlanTier, requested *time.Time) (time.Time, error) {
	if store == nil {
		return time.Time{}, errors.New("slot store required")
	}
	if plan == enums.PlanTierSkip && requested != nil && !requested.IsZero() {
		date := StartOfDay(*requested, s.loc)
		weekStart, _ := WeekBounds(date, s.loc)
		if err := store.RecordWeekSlot(ctx, weekStart.UTC()); err != nil {
			return time.Time{}, fmt.Errorf("record skip slot: %w", err)
		}
		s.metrics.ObserveAttempts(1)
		return date.UTC(), nil
	}

	candidate := StartOfDay(s.now(), s.loc).AddDate(0, 0, PlanOffsetDays(plan))
	for attempt := 1; attempt <= s.searchDays; attempt++ {
		weekStart, weekEnd := WeekBounds(candidate, s.loc)
		count, err := store.CountLaunchesBetween(ctx, weekStart.UTC(), weekEnd.UTC())
		if err != nil {
			return time.Time{}, fmt.Errorf("count launches: %w", err)
		}
		if count < int64(s.capacity) {
			booked, err := store.ReserveWeekSlot(ctx, weekStart.UTC(), count, s.capacity)
			if err != nil {
				return time.Time{}, fmt.Errorf("reserve week slot: %w", err)
			}
			if booked {
				s.metrics.ObserveAttempts(attempt)
				return candidate.UTC(), nil
			}
		}
		candidate = weekEnd
	}
	s.metrics.ObserveAttempts(s.searchDays)
	return time.Time{}, ErrCapacityExhausted
}
