package domain

import (
	"fmt"
	"strings"
)

// NewFrequencyKind validates and creates a FrequencyKind (case-insensitive).
func NewFrequencyKind(s string) (FrequencyKind, error) {
	kind := FrequencyKind(strings.ToLower(strings.TrimSpace(s)))

	switch kind {
	case FrequencyNone, FrequencyDaily, FrequencyDailyMulti, FrequencyWeekly,
		FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly,
		FrequencyCustom, FrequencyCustomFromCompletion, FrequencyPeriodEnd:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidFrequency, s)
	}
}

// NewIntervalUnit validates and creates an IntervalUnit (case-insensitive).
func NewIntervalUnit(s string) (IntervalUnit, error) {
	unit := IntervalUnit(strings.ToLower(strings.TrimSpace(s)))

	switch unit {
	case UnitDays, UnitWeeks, UnitMonths, UnitQuarters, UnitYears:
		return unit, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidUnit, s)
	}
}

// NewGranularity validates and creates a Granularity (case-insensitive).
func NewGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))

	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth, GranularityQuarter, GranularityYear:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidGranularity, s)
	}
}

// NewFrequency builds a Frequency from its persisted string parts.
// interval and unit are only read for custom kinds, granularity only for period_end.
func NewFrequency(kind string, interval int, unit, granularity string) (Frequency, error) {
	k, err := NewFrequencyKind(kind)
	if err != nil {
		return Frequency{}, err
	}

	switch k {
	case FrequencyCustom, FrequencyCustomFromCompletion:
		u, err := NewIntervalUnit(unit)
		if err != nil {
			return Frequency{}, err
		}
		if interval <= 0 {
			return Frequency{}, fmt.Errorf("%w: got %d", ErrInvalidInterval, interval)
		}
		return Frequency{Kind: k, Interval: interval, Unit: u}, nil
	case FrequencyPeriodEnd:
		g, err := NewGranularity(granularity)
		if err != nil {
			return Frequency{}, err
		}
		return PeriodEnd(g), nil
	default:
		return Frequency{Kind: k}, nil
	}
}
