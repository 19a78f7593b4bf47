package recurring

import (
	"time"

	"github.com/rezkam/recur/internal/domain"
)

// SnapToWeekday advances dt one day at a time until its weekday is allowed,
// keeping the time of day. An empty set returns dt unchanged.
// At most six days are added because any non-empty set is hit within a week.
func SnapToWeekday(dt time.Time, allowed domain.Weekdays) time.Time {
	if allowed.Empty() {
		return dt
	}
	for range 7 {
		if allowed.Allows(dt) {
			return dt
		}
		dt = dt.AddDate(0, 0, 1)
	}
	return dt
}
