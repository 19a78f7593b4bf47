package domain

// FrequencyKind discriminates the Frequency variant.
// Value object - immutable string enum.
type FrequencyKind string

const (
	FrequencyNone                 FrequencyKind = "none"
	FrequencyDaily                FrequencyKind = "daily"
	FrequencyDailyMulti           FrequencyKind = "daily_multi"
	FrequencyWeekly               FrequencyKind = "weekly"
	FrequencyBiweekly             FrequencyKind = "biweekly"
	FrequencyMonthly              FrequencyKind = "monthly"
	FrequencyQuarterly            FrequencyKind = "quarterly"
	FrequencyYearly               FrequencyKind = "yearly"
	FrequencyCustom               FrequencyKind = "custom"
	FrequencyCustomFromCompletion FrequencyKind = "custom_from_completion"
	FrequencyPeriodEnd            FrequencyKind = "period_end"
)

// IntervalUnit is the unit the interval stepper advances by.
// Value object - immutable string enum.
type IntervalUnit string

const (
	UnitDays     IntervalUnit = "days"
	UnitWeeks    IntervalUnit = "weeks"
	UnitMonths   IntervalUnit = "months"
	UnitQuarters IntervalUnit = "quarters"
	UnitYears    IntervalUnit = "years"
)

// MonthsPerUnit returns how many calendar months one unit spans, or 0 for day-based units.
func (u IntervalUnit) MonthsPerUnit() int {
	switch u {
	case UnitMonths:
		return 1
	case UnitQuarters:
		return 3
	case UnitYears:
		return 12
	default:
		return 0
	}
}

// DaysPerUnit returns how many days one unit spans, or 0 for month-based units.
func (u IntervalUnit) DaysPerUnit() int {
	switch u {
	case UnitDays:
		return 1
	case UnitWeeks:
		return 7
	default:
		return 0
	}
}

// Granularity is the calendar period a period-end schedule is anchored to.
// Value object - immutable string enum.
type Granularity string

const (
	GranularityDay     Granularity = "day"
	GranularityWeek    Granularity = "week"
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
)

// Unit returns the interval unit spanning exactly one period of this granularity.
func (g Granularity) Unit() IntervalUnit {
	switch g {
	case GranularityDay:
		return UnitDays
	case GranularityWeek:
		return UnitWeeks
	case GranularityMonth:
		return UnitMonths
	case GranularityQuarter:
		return UnitQuarters
	case GranularityYear:
		return UnitYears
	default:
		return ""
	}
}
