package domain

import "fmt"

// Frequency is the tagged recurrence variant of a schedule.
// Interval and Unit are meaningful for custom kinds, Granularity for period_end.
type Frequency struct {
	Kind        FrequencyKind
	Interval    int
	Unit        IntervalUnit
	Granularity Granularity
}

func None() Frequency       { return Frequency{Kind: FrequencyNone} }
func Daily() Frequency      { return Frequency{Kind: FrequencyDaily} }
func DailyMulti() Frequency { return Frequency{Kind: FrequencyDailyMulti} }
func Weekly() Frequency     { return Frequency{Kind: FrequencyWeekly} }
func Biweekly() Frequency   { return Frequency{Kind: FrequencyBiweekly} }
func Monthly() Frequency    { return Frequency{Kind: FrequencyMonthly} }
func Quarterly() Frequency  { return Frequency{Kind: FrequencyQuarterly} }
func Yearly() Frequency     { return Frequency{Kind: FrequencyYearly} }

// Custom repeats every interval units counted from the current due date.
func Custom(interval int, unit IntervalUnit) Frequency {
	return Frequency{Kind: FrequencyCustom, Interval: interval, Unit: unit}
}

// CustomFromCompletion repeats every interval units counted from the last completion.
// The arithmetic is identical to Custom; only the base date the host supplies differs.
func CustomFromCompletion(interval int, unit IntervalUnit) Frequency {
	return Frequency{Kind: FrequencyCustomFromCompletion, Interval: interval, Unit: unit}
}

// PeriodEnd recurs at the end of every calendar period of the given granularity.
func PeriodEnd(g Granularity) Frequency {
	return Frequency{Kind: FrequencyPeriodEnd, Granularity: g}
}

// Step reports the interval stepper arguments for interval-based kinds.
// ok is false for none, daily_multi and period_end.
func (f Frequency) Step() (count int, unit IntervalUnit, ok bool) {
	switch f.Kind {
	case FrequencyDaily:
		return 1, UnitDays, true
	case FrequencyWeekly:
		return 1, UnitWeeks, true
	case FrequencyBiweekly:
		return 2, UnitWeeks, true
	case FrequencyMonthly:
		return 1, UnitMonths, true
	case FrequencyQuarterly:
		return 1, UnitQuarters, true
	case FrequencyYearly:
		return 1, UnitYears, true
	case FrequencyCustom, FrequencyCustomFromCompletion:
		return f.Interval, f.Unit, true
	default:
		return 0, "", false
	}
}

// String renders the frequency for logs, e.g. "custom(3 days)" or "period_end(quarter)".
func (f Frequency) String() string {
	switch f.Kind {
	case FrequencyCustom, FrequencyCustomFromCompletion:
		return fmt.Sprintf("%s(%d %s)", f.Kind, f.Interval, f.Unit)
	case FrequencyPeriodEnd:
		return fmt.Sprintf("%s(%s)", f.Kind, f.Granularity)
	default:
		return string(f.Kind)
	}
}

// Validate checks the variant payload.
func (f Frequency) Validate() error {
	if _, err := NewFrequencyKind(string(f.Kind)); err != nil {
		return NewConfigError("frequency", err)
	}

	switch f.Kind {
	case FrequencyCustom, FrequencyCustomFromCompletion:
		if f.Interval <= 0 {
			return NewConfigError("frequency.interval", fmt.Errorf("%w: got %d", ErrInvalidInterval, f.Interval))
		}
		if _, err := NewIntervalUnit(string(f.Unit)); err != nil {
			return NewConfigError("frequency.unit", err)
		}
	case FrequencyPeriodEnd:
		if _, err := NewGranularity(string(f.Granularity)); err != nil {
			return NewConfigError("frequency.granularity", err)
		}
	}

	return nil
}
