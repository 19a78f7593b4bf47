package domain

import (
	"slices"
	"time"
)

// ScheduleConfig is the immutable input to every recurrence query.
//
// Build a fresh value per entity per query. The engine never copies or mutates it,
// so per-entity overrides must go through WithWeekdays (copy-then-override) rather
// than editing a shared value in place.
//
// BaseDate meaning depends on the frequency:
//   - custom and the fixed intervals: the current due date
//   - custom_from_completion: the last completion timestamp
//   - period_end and daily_multi: only its location is used (optional)
type ScheduleConfig struct {
	Frequency          Frequency
	BaseDate           time.Time
	ApplicableWeekdays Weekdays    // empty = no restriction; must be empty for period_end
	DailySlots         []ClockTime // daily_multi only
}

// Validate reports the first malformed field as a *ConfigError.
func (c ScheduleConfig) Validate() error {
	if err := c.Frequency.Validate(); err != nil {
		return err
	}

	if c.ApplicableWeekdays&^AllWeekdays != 0 {
		return NewConfigError("applicable_weekdays", ErrInvalidWeekday)
	}

	// A period end falls on a fixed calendar day; snapping it would leave the period.
	if c.Frequency.Kind == FrequencyPeriodEnd && !c.ApplicableWeekdays.Empty() {
		return NewConfigError("applicable_weekdays", ErrWeekdaysUnsupported)
	}

	if _, _, stepping := c.Frequency.Step(); stepping && c.BaseDate.IsZero() {
		return NewConfigError("base_date", ErrMissingBaseDate)
	}

	if c.Frequency.Kind == FrequencyDailyMulti {
		if len(c.DailySlots) == 0 {
			return NewConfigError("daily_slots", ErrNoDailySlots)
		}
		for _, s := range c.DailySlots {
			if _, err := NewClockTime(s.Hour, s.Minute); err != nil {
				return NewConfigError("daily_slots", err)
			}
		}
	}

	return nil
}

// Location returns the zone occurrences are computed in: the base date's zone when set,
// otherwise fallback's.
func (c ScheduleConfig) Location(fallback time.Time) *time.Location {
	if !c.BaseDate.IsZero() {
		return c.BaseDate.Location()
	}
	return fallback.Location()
}

// WithWeekdays returns a copy of c with the weekday restriction replaced.
// DailySlots is cloned so the copy shares no backing array with c.
func (c ScheduleConfig) WithWeekdays(w Weekdays) ScheduleConfig {
	out := c
	out.DailySlots = slices.Clone(c.DailySlots)
	out.ApplicableWeekdays = w
	return out
}

// WithBaseDate returns a copy of c anchored at base.
func (c ScheduleConfig) WithBaseDate(base time.Time) ScheduleConfig {
	out := c
	out.DailySlots = slices.Clone(c.DailySlots)
	out.BaseDate = base
	return out
}
