package recurring

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rezkam/recur/internal/domain"
	"github.com/teambition/rrule-go"
)

// lastFixedMonthDay is the largest day-of-month present in every month.
const lastFixedMonthDay = 28

var rruleWeekdays = [7]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

// ToRRuleString renders cfg as an RFC 5545 RRULE value (without the "RRULE:" prefix),
// e.g. "FREQ=WEEKLY;INTERVAL=2". Combined with DTSTART=cfg.BaseDate, an RRULE
// consumer reproduces exactly the occurrences Engine.Occurrences yields.
//
// The empty string means the schedule has no faithful RRULE form: none, daily_multi,
// custom_from_completion, period_end, invalid configs, and weekday restrictions
// that are not a plain BYDAY filter over daily steps.
func ToRRuleString(cfg domain.ScheduleConfig) string {
	if cfg.Validate() != nil {
		return ""
	}
	if cfg.Frequency.Kind == domain.FrequencyCustomFromCompletion {
		return ""
	}
	count, unit, ok := cfg.Frequency.Step()
	if !ok {
		return ""
	}

	parts := make([]string, 0, 6)
	day := cfg.BaseDate.Day()

	switch unit {
	case domain.UnitDays:
		parts = append(parts, "FREQ=DAILY", "INTERVAL="+strconv.Itoa(count))
		if !cfg.ApplicableWeekdays.Empty() {
			// Snapping only matches a BYDAY filter when every day is stepped.
			if count != 1 {
				return ""
			}
			parts = append(parts, "BYDAY="+byDay(cfg.ApplicableWeekdays))
		}

	case domain.UnitWeeks:
		// Weekly steps keep the base weekday, so the restriction is either a no-op
		// or moves every occurrence off the RRULE's DTSTART grid.
		if !cfg.ApplicableWeekdays.Allows(cfg.BaseDate) {
			return ""
		}
		parts = append(parts, "FREQ=WEEKLY", "INTERVAL="+strconv.Itoa(count))

	case domain.UnitMonths, domain.UnitQuarters:
		if !cfg.ApplicableWeekdays.Empty() {
			return ""
		}
		parts = append(parts, "FREQ=MONTHLY", "INTERVAL="+strconv.Itoa(count*unit.MonthsPerUnit()))
		if day > lastFixedMonthDay {
			parts = append(parts, clampParts(day)...)
		}

	case domain.UnitYears:
		if !cfg.ApplicableWeekdays.Empty() {
			return ""
		}
		parts = append(parts, "FREQ=YEARLY", "INTERVAL="+strconv.Itoa(count))
		if cfg.BaseDate.Month() == time.February && day > lastFixedMonthDay {
			parts = append(parts, "BYMONTH=2")
			parts = append(parts, clampParts(day)...)
		}

	default:
		return ""
	}

	return strings.Join(parts, ";")
}

// clampParts selects day if the month has it, otherwise the month's last day.
func clampParts(day int) []string {
	return []string{fmt.Sprintf("BYMONTHDAY=%d,-1", day), "BYSETPOS=1"}
}

func byDay(w domain.Weekdays) string {
	days := make([]string, 0, 7)
	for _, i := range w.Indices() {
		days = append(days, rruleWeekdays[i])
	}
	return strings.Join(days, ",")
}

// ToROption parses the exported RRULE into rrule-go options anchored at cfg.BaseDate.
// It returns nil without error when the schedule has no RRULE form.
func ToROption(cfg domain.ScheduleConfig) (*rrule.ROption, error) {
	s := ToRRuleString(cfg)
	if s == "" {
		return nil, nil
	}

	opt, err := rrule.StrToROptionInLocation(s, cfg.BaseDate.Location())
	if err != nil {
		return nil, fmt.Errorf("failed to parse exported RRULE %q: %w", s, err)
	}
	opt.Dtstart = cfg.BaseDate
	return opt, nil
}
