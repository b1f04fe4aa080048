// Package archive persists the yearly top products per named period.
package archive

import (
	"fmt"
	"time"

	"github.com/angelmondragon/launchboard-backend/internal/rankings"
	"github.com/angelmondragon/launchboard-backend/pkg/enums"
)

// PeriodBounds returns the launch-date window of a period inside year, in loc.
func PeriodBounds(year int, period enums.ArchivePeriod, loc *time.Location) (rankings.Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc)
	var start time.Time
	switch period {
	case enums.ArchivePeriodToday:
		start = time.Date(year, time.December, 31, 0, 0, 0, 0, loc)
	case enums.ArchivePeriodWeek:
		start = time.Date(year, time.December, 25, 0, 0, 0, 0, loc)
	case enums.ArchivePeriodMonth:
		start = time.Date(year, time.December, 1, 0, 0, 0, 0, loc)
	case enums.ArchivePeriodYear:
		start = time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return rankings.Window{}, fmt.Errorf("unknown archive period %q", period)
	}
	return rankings.Window{From: start.UTC(), To: end.UTC()}, nil
}
