package recurring

import (
	"slices"
	"time"

	"github.com/rezkam/recur/internal/domain"
)

// NextSlot returns the first instant in today strictly after reference, or the
// first instant in tomorrow when every slot of today has passed. Both lists must
// already be resolved against their calendar dates and sorted. ok is false only
// when no candidate exists at all.
func NextSlot(reference time.Time, today, tomorrow []time.Time) (next time.Time, ok bool) {
	for _, slot := range today {
		if slot.After(reference) {
			return slot, true
		}
	}
	if len(tomorrow) == 0 {
		return time.Time{}, false
	}
	return tomorrow[0], true
}

// ResolveSlots turns the ordered clock times of the nominal day containing day into
// instants in loc. A slot whose clock time is earlier than its predecessor's belongs
// to the following calendar day, so "22:00|02:00" yields 22:00 today and 02:00 tomorrow.
// The result is sorted.
func ResolveSlots(day time.Time, slots []domain.ClockTime, loc *time.Location) []time.Time {
	year, month, d := day.In(loc).Date()

	out := make([]time.Time, 0, len(slots))
	offset := 0
	for i, s := range slots {
		if i > 0 && s.Minutes() < slots[i-1].Minutes() {
			offset++
		}
		out = append(out, atClockOnDate(year, month, d+offset, s, loc))
	}

	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out
}

// atClockOnDate builds the instant for a wall-clock time on a date.
// Wall times inside a spring-forward gap are pushed forward past the gap;
// ambiguous fall-back times resolve to the first instant, as time.Date does.
func atClockOnDate(year int, month time.Month, day int, c domain.ClockTime, loc *time.Location) time.Time {
	t := time.Date(year, month, day, c.Hour, c.Minute, 0, 0, loc)

	if t.Hour() != c.Hour || t.Minute() != c.Minute {
		requested := c.Minutes()
		got := t.Hour()*60 + t.Minute()
		if gap := requested - got; gap > 0 {
			return t.Add(time.Duration(gap) * time.Minute)
		}
	}
	return t
}

// slotsAround resolves the candidate lists for the calendar day containing ref:
// today holds the previous nominal day's spill-over plus today's slots, tomorrow
// holds the next nominal day's slots.
func slotsAround(ref time.Time, slots []domain.ClockTime, loc *time.Location) (today, tomorrow []time.Time) {
	local := ref.In(loc)
	year, month, day := local.Date()
	noon := time.Date(year, month, day, 12, 0, 0, 0, loc)

	yesterday := ResolveSlots(noon.AddDate(0, 0, -1), slots, loc)
	today = append(yesterday, ResolveSlots(noon, slots, loc)...)
	slices.SortFunc(today, func(a, b time.Time) int { return a.Compare(b) })

	tomorrow = ResolveSlots(noon.AddDate(0, 0, 1), slots, loc)
	return today, tomorrow
}
