package recurring

import (
	"time"

	"github.com/rezkam/recur/internal/domain"
)

// Period ends are stamped at 23:59:00 local time.
const (
	periodEndHour   = 23
	periodEndMinute = 59
)

// PeriodEnd returns the end of the period containing dt, at 23:59:00 in dt's zone.
//
// Weeks end on Sunday; quarters end on Mar 31, Jun 30, Sep 30 and Dec 31.
// The result is always the current period's end, even when dt is already past it;
// advancing to the next period is the caller's job.
func PeriodEnd(dt time.Time, g domain.Granularity) time.Time {
	year, month, day := dt.Date()

	switch g {
	case domain.GranularityDay:
		// same day
	case domain.GranularityWeek:
		daysUntilSunday := (7 - int(dt.Weekday())) % 7
		return endOfDay(year, month, day+daysUntilSunday, dt.Location())
	case domain.GranularityMonth:
		day = DaysInMonth(year, month)
	case domain.GranularityQuarter:
		month = time.Month(((int(month)-1)/3 + 1) * 3)
		day = DaysInMonth(year, month)
	case domain.GranularityYear:
		month, day = time.December, 31
	}

	return endOfDay(year, month, day, dt.Location())
}

func endOfDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, periodEndHour, periodEndMinute, 0, 0, loc)
}
