package domain

import (
	"fmt"
	"strings"
	"time"
)

// Weekdays is a set of weekday indices where 0 is Monday and 6 is Sunday.
// The zero value is the empty set, meaning "no restriction".
// It is a plain value, so copies never alias each other.
type Weekdays uint8

// AllWeekdays contains every day of the week.
const AllWeekdays Weekdays = 1<<7 - 1

var weekdayNames = [7]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// NewWeekdays builds a set from 0-6 indices.
func NewWeekdays(indices ...int) (Weekdays, error) {
	var w Weekdays
	for _, i := range indices {
		if i < 0 || i > 6 {
			return 0, fmt.Errorf("%w: got %d", ErrInvalidWeekday, i)
		}
		w |= 1 << i
	}
	return w, nil
}

// ParseWeekday accepts an index ("0".."6") or a name ("mon", "Monday", ...).
func ParseWeekday(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 1 && s[0] >= '0' && s[0] <= '6' {
		return int(s[0] - '0'), nil
	}
	if len(s) >= 3 {
		for i, name := range weekdayNames {
			if strings.HasPrefix(s, name) {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// WeekdayIndex converts a time.Weekday to the Monday-based index used by Weekdays.
func WeekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// Empty reports whether the set imposes no restriction.
func (w Weekdays) Empty() bool {
	return w&AllWeekdays == 0
}

// Has reports whether index i is in the set.
func (w Weekdays) Has(i int) bool {
	if i < 0 || i > 6 {
		return false
	}
	return w&(1<<i) != 0
}

// Allows reports whether t's weekday is in the set. An empty set allows every day.
func (w Weekdays) Allows(t time.Time) bool {
	return w.Empty() || w.Has(WeekdayIndex(t.Weekday()))
}

// With returns a copy of the set with index i added.
func (w Weekdays) With(i int) Weekdays {
	if i < 0 || i > 6 {
		return w
	}
	return w | 1<<i
}

// Indices lists the members in ascending order (Monday first).
func (w Weekdays) Indices() []int {
	var out []int
	for i := range 7 {
		if w.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

// Names lists the members as three-letter lowercase names ("mon", "tue", ...).
func (w Weekdays) Names() []string {
	names := make([]string, 0, 7)
	for _, i := range w.Indices() {
		names = append(names, weekdayNames[i])
	}
	return names
}

func (w Weekdays) String() string {
	if w.Empty() {
		return "any"
	}
	return strings.Join(w.Names(), ",")
}
