package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockTime is a wall-clock time of day with minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

// NewClockTime validates hour and minute against a 24h clock.
func NewClockTime(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidClockTime, hour, minute)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

// ParseClockTime parses "HH:MM" (a single-digit hour is accepted).
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(mm) != 2 || hh == "" || len(hh) > 2 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}

	hour, err := strconv.Atoi(hh)
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}

	return NewClockTime(hour, minute)
}

// ParseDailySlots parses a pipe-separated list such as "08:00|12:00|18:00".
// Order is preserved: a slot earlier than its predecessor belongs to the following day.
func ParseDailySlots(s string) ([]ClockTime, error) {
	if strings.TrimSpace(s) == "" {
		return nil, ErrNoDailySlots
	}

	parts := strings.Split(s, "|")
	slots := make([]ClockTime, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		c, err := ParseClockTime(p)
		if err != nil {
			return nil, err
		}
		slots = append(slots, c)
	}

	if len(slots) == 0 {
		return nil, ErrNoDailySlots
	}
	return slots, nil
}

// Minutes returns minutes since midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// FormatDailySlots renders slots in the pipe-separated form ParseDailySlots accepts.
func FormatDailySlots(slots []ClockTime) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = s.String()
	}
	return strings.Join(parts, "|")
}
