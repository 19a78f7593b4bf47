package recurring

import (
	"fmt"
	"iter"
	"time"

	"github.com/rezkam/recur/internal/domain"
	"github.com/samber/mo"
)

// Default engine limits.
const (
	DefaultMaxIterations  = 1000
	DefaultMaxOccurrences = 100
)

// stallNudge is added to the advancing reference when a period-end computation
// returns the same candidate twice in a row.
const stallNudge = time.Hour

// Config holds the engine's safety bounds.
type Config struct {
	// MaxIterations bounds every advance loop inside a single query.
	MaxIterations int
	// MaxOccurrences is the enumeration limit used when callers pass limit <= 0.
	MaxOccurrences int
}

// Engine answers recurrence queries. It holds no mutable state and is safe for
// concurrent use, provided each call gets its own ScheduleConfig value.
type Engine struct {
	config Config
}

// NewEngine creates a recurrence engine.
// Applies defaults for zero or negative limits.
func NewEngine(config Config) *Engine {
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultMaxIterations
	}
	if config.MaxOccurrences <= 0 {
		config.MaxOccurrences = DefaultMaxOccurrences
	}
	return &Engine{config: config}
}

// NextOccurrence returns the first occurrence strictly after reference.
// The result is empty for the none frequency.
// Malformed configs and exhausted iteration bounds return a *domain.ConfigError.
func (e *Engine) NextOccurrence(cfg domain.ScheduleConfig, reference time.Time) (mo.Option[time.Time], error) {
	if err := cfg.Validate(); err != nil {
		return mo.None[time.Time](), err
	}

	next, ok, err := e.next(cfg, reference)
	if err != nil || !ok {
		return mo.None[time.Time](), err
	}
	return mo.Some(next), nil
}

// Occurrences enumerates occurrences in (windowStart, windowEnd], stopping after
// limit results even if the window is still open. limit <= 0 uses the engine's
// MaxOccurrences. A result of exactly limit entries may be truncated.
func (e *Engine) Occurrences(cfg domain.ScheduleConfig, windowStart, windowEnd time.Time, limit int) ([]time.Time, error) {
	if windowEnd.Before(windowStart) {
		return nil, fmt.Errorf("%w: %s < %s", domain.ErrInvalidWindow,
			windowEnd.Format(time.RFC3339), windowStart.Format(time.RFC3339))
	}
	if limit <= 0 {
		limit = e.config.MaxOccurrences
	}

	out := make([]time.Time, 0)
	for occ, err := range e.between(cfg, windowStart, windowEnd, limit) {
		if err != nil {
			return nil, err
		}
		out = append(out, occ)
	}
	return out, nil
}

// Between lazily yields the same sequence Occurrences returns with the default limit.
// A failure is yielded once as the final element.
func (e *Engine) Between(cfg domain.ScheduleConfig, windowStart, windowEnd time.Time) iter.Seq2[time.Time, error] {
	if windowEnd.Before(windowStart) {
		return func(yield func(time.Time, error) bool) {
			yield(time.Time{}, fmt.Errorf("%w: %s < %s", domain.ErrInvalidWindow,
				windowEnd.Format(time.RFC3339), windowStart.Format(time.RFC3339)))
		}
	}
	return e.between(cfg, windowStart, windowEnd, e.config.MaxOccurrences)
}

func (e *Engine) between(cfg domain.ScheduleConfig, windowStart, windowEnd time.Time, limit int) iter.Seq2[time.Time, error] {
	return func(yield func(time.Time, error) bool) {
		if err := cfg.Validate(); err != nil {
			yield(time.Time{}, err)
			return
		}

		reference := windowStart
		for range limit {
			next, ok, err := e.next(cfg, reference)
			if err != nil {
				yield(time.Time{}, err)
				return
			}
			if !ok || next.After(windowEnd) {
				return
			}
			if !yield(next, nil) {
				return
			}
			reference = next
		}
	}
}

// IsDue reports whether an occurrence falls in (lastDue, now].
func (e *Engine) IsDue(cfg domain.ScheduleConfig, lastDue, now time.Time) (bool, error) {
	next, err := e.NextOccurrence(cfg, lastDue)
	if err != nil {
		return false, err
	}
	at, ok := next.Get()
	return ok && !at.After(now), nil
}

// next dispatches on the frequency. cfg must already be valid.
func (e *Engine) next(cfg domain.ScheduleConfig, reference time.Time) (time.Time, bool, error) {
	switch cfg.Frequency.Kind {
	case domain.FrequencyNone:
		return time.Time{}, false, nil
	case domain.FrequencyDailyMulti:
		return e.nextSlot(cfg, reference)
	case domain.FrequencyPeriodEnd:
		return e.nextPeriodEnd(cfg, reference)
	}

	count, unit, ok := cfg.Frequency.Step()
	if !ok {
		return time.Time{}, false, domain.NewConfigError("frequency", domain.ErrInvalidFrequency)
	}
	return e.nextInterval(cfg.BaseDate, count, unit, cfg.ApplicableWeekdays, reference)
}

// nextInterval finds the smallest k >= 0 with base + k*count units after reference,
// then snaps it to an allowed weekday. The base itself counts when it is still
// ahead of reference, matching an RRULE's DTSTART. Every candidate is computed
// from base so a clamped month-end never drifts (Jan 31, Feb 28, Mar 31, ...).
func (e *Engine) nextInterval(base time.Time, count int, unit domain.IntervalUnit, weekdays domain.Weekdays, reference time.Time) (time.Time, bool, error) {
	ref := reference.In(base.Location())

	// Jump close to the reference instead of stepping from a distant base.
	k := 1
	if base.After(reference) {
		k = 0
	} else if days := unit.DaysPerUnit(); days > 0 {
		k = max(k, civilDays(base, ref)/(count*days))
	} else if months := unit.MonthsPerUnit(); months > 0 {
		k = max(k, civilMonths(base, ref)/(count*months))
	}

	for range e.config.MaxIterations {
		candidate := AddInterval(base, k*count, unit)
		if candidate.After(reference) {
			return SnapToWeekday(candidate, weekdays), true, nil
		}
		k++
	}
	return time.Time{}, false, e.iterationLimit("frequency")
}

// nextPeriodEnd returns the first period end strictly after reference, advancing
// one full period at a time.
func (e *Engine) nextPeriodEnd(cfg domain.ScheduleConfig, reference time.Time) (time.Time, bool, error) {
	g := cfg.Frequency.Granularity
	unit := g.Unit()
	return e.periodEndAfter(reference.In(cfg.Location(reference)), reference, g, func(t time.Time) time.Time {
		return AddInterval(t, 1, unit)
	})
}

// periodEndAfter walks period ends from ref until one is after reference, calling
// step between candidates. A candidate equal to the previous one forces a
// one-hour nudge, so a step that fails to leave the period still terminates.
func (e *Engine) periodEndAfter(ref, reference time.Time, g domain.Granularity, step func(time.Time) time.Time) (time.Time, bool, error) {
	var prev time.Time
	for range e.config.MaxIterations {
		candidate := PeriodEnd(ref, g)
		if candidate.After(reference) {
			return candidate, true, nil
		}
		if candidate.Equal(prev) {
			ref = ref.Add(stallNudge)
		}
		prev = candidate
		ref = step(ref)
	}
	return time.Time{}, false, e.iterationLimit("frequency.granularity")
}

// nextSlot returns the next daily slot after reference on an allowed weekday.
// A slot on a disallowed day moves the search to the end of that day.
func (e *Engine) nextSlot(cfg domain.ScheduleConfig, reference time.Time) (time.Time, bool, error) {
	loc := cfg.Location(reference)
	ref := reference

	for range e.config.MaxIterations {
		today, tomorrow := slotsAround(ref, cfg.DailySlots, loc)
		slot, ok := NextSlot(ref, today, tomorrow)
		if !ok {
			return time.Time{}, false, nil
		}
		if cfg.ApplicableWeekdays.Allows(slot) {
			return slot, true, nil
		}
		y, m, d := slot.In(loc).Date()
		ref = time.Date(y, m, d+1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
	}
	return time.Time{}, false, e.iterationLimit("applicable_weekdays")
}

func (e *Engine) iterationLimit(field string) error {
	return domain.NewConfigError(field,
		fmt.Errorf("%w: no occurrence after %d iterations", domain.ErrIterationLimit, e.config.MaxIterations))
}
