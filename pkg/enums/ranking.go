package enums

import "fmt"

// ArchivePeriod names a ranked sub-range of an archived year.
type ArchivePeriod string

const (
	ArchivePeriodToday ArchivePeriod = "today"
	ArchivePeriodWeek  ArchivePeriod = "week"
	ArchivePeriodMonth ArchivePeriod = "month"
	ArchivePeriodYear  ArchivePeriod = "year"
)

// ArchivePeriods lists the periods in processing order.
var ArchivePeriods = []ArchivePeriod{
	ArchivePeriodToday,
	ArchivePeriodWeek,
	ArchivePeriodMonth,
	ArchivePeriodYear,
}

// String implements fmt.Stringer.
func (p ArchivePeriod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ArchivePeriod.
func (p ArchivePeriod) IsValid() bool {
	for _, candidate := range ArchivePeriods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseArchivePeriod converts raw input into an ArchivePeriod.
func ParseArchivePeriod(value string) (ArchivePeriod, error) {
	period := ArchivePeriod(value)
	if !period.IsValid() {
		return "", fmt.Errorf("invalid archive period %q", value)
	}
	return period, nil
}

// WinnerWindow names a rolling window used for winner detection.
type WinnerWindow string

const (
	WinnerWindowDaily   WinnerWindow = "daily"
	WinnerWindowWeekly  WinnerWindow = "weekly"
	WinnerWindowMonthly WinnerWindow = "monthly"
)

// WinnerWindows lists the windows in processing order.
var WinnerWindows = []WinnerWindow{
	WinnerWindowDaily,
	WinnerWindowWeekly,
	WinnerWindowMonthly,
}

// String implements fmt.Stringer.
func (w WinnerWindow) String() string {
	return string(w)
}

// FlagColumn returns the winner_flags column that stores this window's flag.
func (w WinnerWindow) FlagColumn() string {
	switch w {
	case WinnerWindowDaily:
		return "won_daily"
	case WinnerWindowWeekly:
		return "won_weekly"
	case WinnerWindowMonthly:
		return "won_monthly"
	default:
		return ""
	}
}
