package recurring

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rezkam/recur/internal/domain"
	"github.com/teambition/rrule-go"
)

// FromRRule maps an RRULE (with or without the "RRULE:" prefix) anchored at dtstart
// back to a ScheduleConfig. Only the shapes ToRRuleString emits are accepted;
// everything else returns domain.ErrUnsupportedRRule.
func FromRRule(s string, dtstart time.Time) (domain.ScheduleConfig, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "RRULE:")
	if s == "" {
		return domain.ScheduleConfig{}, fmt.Errorf("%w: empty rule", domain.ErrUnsupportedRRule)
	}
	if dtstart.IsZero() {
		return domain.ScheduleConfig{}, domain.NewConfigError("base_date", domain.ErrMissingBaseDate)
	}

	opt, err := rrule.StrToROptionInLocation(s, dtstart.Location())
	if err != nil {
		return domain.ScheduleConfig{}, fmt.Errorf("%w: %v", domain.ErrUnsupportedRRule, err)
	}

	if opt.Count != 0 || !opt.Until.IsZero() {
		return domain.ScheduleConfig{}, fmt.Errorf("%w: bounded rules (COUNT/UNTIL) have no schedule form", domain.ErrUnsupportedRRule)
	}
	if len(opt.Byhour) > 0 || len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 ||
		len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 || len(opt.Byeaster) > 0 {
		return domain.ScheduleConfig{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedRRule, s)
	}

	interval := max(opt.Interval, 1)
	cfg := domain.ScheduleConfig{BaseDate: dtstart}

	switch opt.Freq {
	case rrule.DAILY:
		if !noMonthFilters(opt) {
			return domain.ScheduleConfig{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedRRule, s)
		}
		weekdays, err := weekdaysFrom(opt.Byweekday)
		if err != nil {
			return domain.ScheduleConfig{}, err
		}
		if !weekdays.Empty() && interval != 1 {
			return domain.ScheduleConfig{}, fmt.Errorf("%w: BYDAY with INTERVAL>1", domain.ErrUnsupportedRRule)
		}
		cfg.ApplicableWeekdays = weekdays
		cfg.Frequency = pick(interval, domain.UnitDays, map[int]domain.Frequency{1: domain.Daily()})

	case rrule.WEEKLY:
		if !noMonthFilters(opt) {
			return domain.ScheduleConfig{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedRRule, s)
		}
		weekdays, err := weekdaysFrom(opt.Byweekday)
		if err != nil {
			return domain.ScheduleConfig{}, err
		}
		// A single BYDAY equal to DTSTART's weekday is the plain weekly grid.
		if !weekdays.Empty() && weekdays != domain.Weekdays(0).With(domain.WeekdayIndex(dtstart.Weekday())) {
			return domain.ScheduleConfig{}, fmt.Errorf("%w: BYDAY must match DTSTART weekday", domain.ErrUnsupportedRRule)
		}
		cfg.Frequency = pick(interval, domain.UnitWeeks, map[int]domain.Frequency{1: domain.Weekly(), 2: domain.Biweekly()})

	case rrule.MONTHLY:
		if len(opt.Byweekday) > 0 || len(opt.Bymonth) > 0 || !isClampFilter(opt, dtstart) {
			return domain.ScheduleConfig{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedRRule, s)
		}
		cfg.Frequency = pick(interval, domain.UnitMonths, map[int]domain.Frequency{1: domain.Monthly(), 3: domain.Quarterly()})

	case rrule.YEARLY:
		if len(opt.Byweekday) > 0 || !isClampFilter(opt, dtstart) {
			return domain.ScheduleConfig{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedRRule, s)
		}
		if len(opt.Bymonth) > 0 && !slices.Equal(opt.Bymonth, []int{int(dtstart.Month())}) {
			return domain.ScheduleConfig{}, fmt.Errorf("%w: BYMONTH must match DTSTART month", domain.ErrUnsupportedRRule)
		}
		cfg.Frequency = pick(interval, domain.UnitYears, map[int]domain.Frequency{1: domain.Yearly()})

	default:
		return domain.ScheduleConfig{}, fmt.Errorf("%w: FREQ=%v", domain.ErrUnsupportedRRule, opt.Freq)
	}

	return cfg, cfg.Validate()
}

// pick returns the named frequency for interval when one exists, otherwise custom.
func pick(interval int, unit domain.IntervalUnit, named map[int]domain.Frequency) domain.Frequency {
	if f, ok := named[interval]; ok {
		return f
	}
	return domain.Custom(interval, unit)
}

func noMonthFilters(opt *rrule.ROption) bool {
	return len(opt.Bymonth) == 0 && len(opt.Bymonthday) == 0 && len(opt.Bysetpos) == 0
}

// isClampFilter accepts no day filter, or the BYMONTHDAY=D,-1;BYSETPOS=1 form
// where D is DTSTART's day.
func isClampFilter(opt *rrule.ROption, dtstart time.Time) bool {
	if len(opt.Bymonthday) == 0 && len(opt.Bysetpos) == 0 {
		return true
	}
	days := slices.Clone(opt.Bymonthday)
	slices.Sort(days)
	return slices.Equal(days, []int{-1, dtstart.Day()}) && slices.Equal(opt.Bysetpos, []int{1})
}

func weekdaysFrom(days []rrule.Weekday) (domain.Weekdays, error) {
	var w domain.Weekdays
	for _, d := range days {
		if d.N() != 0 {
			return 0, fmt.Errorf("%w: ordinal BYDAY %s", domain.ErrUnsupportedRRule, d.String())
		}
		w = w.With(d.Day())
	}
	return w, nil
}
