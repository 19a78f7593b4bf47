package domain

import (
	"errors"
	"fmt"
)

// Domain errors returned by schedule validation and the recurrence engine.

var (
	// ErrInvalidConfig indicates a malformed ScheduleConfig. Every ConfigError unwraps to it.
	ErrInvalidConfig = errors.New("invalid schedule config")

	// ErrInvalidFrequency indicates an unknown frequency kind.
	ErrInvalidFrequency = errors.New("invalid frequency")

	// ErrInvalidInterval indicates a custom interval that is not a positive integer.
	ErrInvalidInterval = errors.New("interval must be a positive integer")

	// ErrInvalidUnit indicates an unknown interval unit.
	ErrInvalidUnit = errors.New("invalid interval unit")

	// ErrInvalidGranularity indicates an unknown period granularity.
	ErrInvalidGranularity = errors.New("invalid period granularity")

	// ErrInvalidWeekday indicates a weekday index outside 0-6.
	ErrInvalidWeekday = errors.New("weekday index must be between 0 (Monday) and 6 (Sunday)")

	// ErrNoDailySlots indicates a daily_multi schedule without any clock times.
	ErrNoDailySlots = errors.New("daily_multi requires at least one daily slot")

	// ErrInvalidClockTime indicates a clock time that is not HH:MM within a 24h day.
	ErrInvalidClockTime = errors.New("invalid clock time")

	// ErrMissingBaseDate indicates an interval-based schedule without a base date.
	ErrMissingBaseDate = errors.New("base date is required")

	// ErrIterationLimit indicates the engine exceeded its iteration bound.
	// It always reaches callers wrapped in a ConfigError.
	ErrIterationLimit = errors.New("iteration limit exceeded")

	// ErrInvalidWindow indicates an enumeration window whose end precedes its start.
	ErrInvalidWindow = errors.New("window end is before window start")

	// ErrWeekdaysUnsupported indicates a weekday restriction on a frequency that cannot honor it.
	ErrWeekdaysUnsupported = errors.New("period_end schedules cannot be restricted to weekdays")

	// ErrUnsupportedRRule indicates an RRULE with no equivalent ScheduleConfig.
	ErrUnsupportedRRule = errors.New("unsupported recurrence rule")

	// ErrInvalidDurationFormat indicates an interval that is not a single-component ISO 8601 duration.
	ErrInvalidDurationFormat = errors.New("invalid ISO 8601 interval")
)

// Schedule definition errors.
var (
	ErrScheduleNotFound   = errors.New("schedule not found")
	ErrScheduleExists     = errors.New("schedule already exists")
	ErrScheduleIDRequired = errors.New("schedule id is required")
	ErrNameRequired       = errors.New("schedule name is required")
	ErrEntityIDRequired   = errors.New("assignment entity id is required")
	ErrInvalidTimezone    = errors.New("invalid timezone")
)

// Update errors.
var (
	ErrEmptyUpdateMask = errors.New("update mask cannot be empty")
	ErrUnknownField    = errors.New("unknown field in update mask")
)

// ConfigError is a caller-class error describing which part of a ScheduleConfig is malformed.
// errors.Is matches both ErrInvalidConfig and the wrapped cause.
type ConfigError struct {
	Field string
	Err   error
}

// NewConfigError wraps err as a configuration error on field.
func NewConfigError(field string, err error) *ConfigError {
	return &ConfigError{Field: field, Err: err}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrInvalidConfig, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	return []error{ErrInvalidConfig, e.Err}
}
