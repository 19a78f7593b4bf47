package recurring

import (
	"time"

	"github.com/rezkam/recur/internal/domain"
)

// DaysInMonth returns the number of days in the given month, accounting for leap years.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddInterval shifts base by count units, keeping the wall-clock time of day.
//
// Day and week units use plain calendar arithmetic. Month-based units clamp the
// day-of-month to the target month's length instead of overflowing into the next
// month: Jan 31 + 1 month is Feb 28 (Feb 29 in leap years), never Mar 3.
// A zero count returns base unchanged.
func AddInterval(base time.Time, count int, unit domain.IntervalUnit) time.Time {
	if count == 0 {
		return base
	}

	if days := unit.DaysPerUnit(); days > 0 {
		return base.AddDate(0, 0, count*days)
	}

	months := unit.MonthsPerUnit()
	if months == 0 {
		return base
	}

	year, month, day := base.Date()
	total := int(month) - 1 + count*months
	targetYear := year + floorDiv(total, 12)
	targetMonth := time.Month(floorMod(total, 12) + 1)

	day = min(day, DaysInMonth(targetYear, targetMonth))

	return time.Date(targetYear, targetMonth, day,
		base.Hour(), base.Minute(), base.Second(), base.Nanosecond(), base.Location())
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// civilDays counts calendar days from a to b using their wall-clock dates.
func civilDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// civilMonths counts calendar months from a to b ignoring the day-of-month.
func civilMonths(a, b time.Time) int {
	return (b.Year()*12 + int(b.Month())) - (a.Year()*12 + int(a.Month()))
}
