package recurring

import (
	"errors"
	"testing"
	"time"

	"github.com/rezkam/recur/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWeekdays(t *testing.T, indices ...int) domain.Weekdays {
	t.Helper()
	w, err := domain.NewWeekdays(indices...)
	require.NoError(t, err)
	return w
}

func mustNext(t *testing.T, e *Engine, cfg domain.ScheduleConfig, reference time.Time) time.Time {
	t.Helper()
	next, err := e.NextOccurrence(cfg, reference)
	require.NoError(t, err)
	got, ok := next.Get()
	require.True(t, ok, "expected an occurrence after %v", reference)
	return got
}

func TestNextOccurrence_Scenarios(t *testing.T) {
	e := NewEngine(Config{})

	tests := []struct {
		name      string
		cfg       domain.ScheduleConfig
		reference time.Time
		want      time.Time
	}{
		{
			name:      "weekly skips to the next grid point",
			cfg:       domain.ScheduleConfig{Frequency: domain.Weekly(), BaseDate: at(2025, 1, 1, 0, 0)},
			reference: at(2025, 1, 10, 0, 0),
			want:      at(2025, 1, 15, 0, 0),
		},
		{
			name: "daily multi rolls past the last slot",
			cfg: domain.ScheduleConfig{
				Frequency:  domain.DailyMulti(),
				DailySlots: mustSlots(t, "08:00|12:00|18:00"),
			},
			reference: at(2025, 3, 10, 19, 0),
			want:      at(2025, 3, 11, 8, 0),
		},
		{
			name:      "custom every three days",
			cfg:       domain.ScheduleConfig{Frequency: domain.Custom(3, domain.UnitDays), BaseDate: at(2025, 1, 1, 0, 0)},
			reference: at(2025, 1, 4, 0, 0),
			want:      at(2025, 1, 7, 0, 0),
		},
		{
			name:      "week end seconds before the boundary moves to next week",
			cfg:       domain.ScheduleConfig{Frequency: domain.PeriodEnd(domain.GranularityWeek)},
			reference: time.Date(2025, 1, 5, 23, 59, 30, 0, time.UTC),
			want:      at(2025, 1, 12, 23, 59),
		},
		{
			name:      "month end exactly at the boundary is not repeated",
			cfg:       domain.ScheduleConfig{Frequency: domain.PeriodEnd(domain.GranularityMonth)},
			reference: at(2025, 1, 31, 23, 59),
			want:      at(2025, 2, 28, 23, 59),
		},
		{
			name:      "quarter end",
			cfg:       domain.ScheduleConfig{Frequency: domain.PeriodEnd(domain.GranularityQuarter)},
			reference: at(2025, 5, 1, 0, 0),
			want:      at(2025, 6, 30, 23, 59),
		},
		{
			name:      "year end",
			cfg:       domain.ScheduleConfig{Frequency: domain.PeriodEnd(domain.GranularityYear)},
			reference: at(2025, 12, 31, 23, 59),
			want:      at(2026, 12, 31, 23, 59),
		},
		{
			name:      "from completion steps from the completion time",
			cfg:       domain.ScheduleConfig{Frequency: domain.CustomFromCompletion(2, domain.UnitWeeks), BaseDate: at(2025, 1, 10, 18, 0)},
			reference: at(2025, 1, 11, 0, 0),
			want:      at(2025, 1, 24, 18, 0),
		},
		{
			name: "daily with weekday filter snaps forward",
			cfg: domain.ScheduleConfig{
				Frequency:          domain.Daily(),
				BaseDate:           at(2025, 1, 1, 8, 0),
				ApplicableWeekdays: mustWeekdays(t, 0, 4),
			},
			reference: at(2025, 1, 3, 8, 0),
			want:      at(2025, 1, 6, 8, 0),
		},
		{
			name:      "distant base does not exhaust iterations",
			cfg:       domain.ScheduleConfig{Frequency: domain.Daily(), BaseDate: at(2000, 1, 1, 8, 0)},
			reference: at(2025, 6, 1, 12, 0),
			want:      at(2025, 6, 2, 8, 0),
		},
		{
			name:      "distant monthly base keeps its day",
			cfg:       domain.ScheduleConfig{Frequency: domain.Monthly(), BaseDate: at(1990, 1, 31, 8, 0)},
			reference: at(2025, 2, 1, 0, 0),
			want:      at(2025, 2, 28, 8, 0),
		},
		{
			name:      "reference before base yields the base",
			cfg:       domain.ScheduleConfig{Frequency: domain.Quarterly(), BaseDate: at(2025, 1, 31, 0, 0)},
			reference: at(2024, 6, 1, 0, 0),
			want:      at(2025, 1, 31, 0, 0),
		},
		{
			name:      "reference at base yields the first step",
			cfg:       domain.ScheduleConfig{Frequency: domain.Quarterly(), BaseDate: at(2025, 1, 31, 0, 0)},
			reference: at(2025, 1, 31, 0, 0),
			want:      at(2025, 4, 30, 0, 0),
		},
		{
			name: "future base on a restricted day snaps forward",
			cfg: domain.ScheduleConfig{
				Frequency:          domain.Weekly(),
				BaseDate:           at(2025, 1, 10, 9, 0), // Friday
				ApplicableWeekdays: mustWeekdays(t, 0),
			},
			reference: at(2025, 1, 5, 0, 0),
			want:      at(2025, 1, 13, 9, 0),
		},
		{
			name: "daily multi on a restricted day waits for an allowed one",
			cfg: domain.ScheduleConfig{
				Frequency:          domain.DailyMulti(),
				DailySlots:         mustSlots(t, "08:00|18:00"),
				ApplicableWeekdays: mustWeekdays(t, 0),
			},
			reference: at(2025, 3, 10, 19, 0), // Monday
			want:      at(2025, 3, 17, 8, 0),
		},
		{
			name: "slot after midnight belongs to the previous day's list",
			cfg: domain.ScheduleConfig{
				Frequency:  domain.DailyMulti(),
				DailySlots: mustSlots(t, "22:00|02:00"),
			},
			reference: at(2025, 3, 10, 1, 0),
			want:      at(2025, 3, 10, 2, 0),
		},
		{
			name: "slot list resumes in the evening",
			cfg: domain.ScheduleConfig{
				Frequency:  domain.DailyMulti(),
				DailySlots: mustSlots(t, "22:00|02:00"),
			},
			reference: at(2025, 3, 10, 3, 0),
			want:      at(2025, 3, 10, 22, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustNext(t, e, tt.cfg, tt.reference)
			assert.True(t, tt.want.Equal(got), "expected %v, got %v", tt.want, got)
		})
	}
}

func TestNextOccurrence_NoneIsEmpty(t *testing.T) {
	e := NewEngine(Config{})

	next, err := e.NextOccurrence(domain.ScheduleConfig{Frequency: domain.None()}, at(2025, 1, 1, 0, 0))

	require.NoError(t, err)
	assert.True(t, next.IsAbsent())
}

func TestNextOccurrence_StrictlyAfterAndIdempotent(t *testing.T) {
	e := NewEngine(Config{})
	base := at(2024, 1, 31, 9, 0)

	configs := map[string]domain.ScheduleConfig{
		"daily":      {Frequency: domain.Daily(), BaseDate: base},
		"weekly":     {Frequency: domain.Weekly(), BaseDate: base},
		"biweekly":   {Frequency: domain.Biweekly(), BaseDate: base},
		"monthly":    {Frequency: domain.Monthly(), BaseDate: base},
		"quarterly":  {Frequency: domain.Quarterly(), BaseDate: base},
		"yearly":     {Frequency: domain.Yearly(), BaseDate: base},
		"custom":     {Frequency: domain.Custom(5, domain.UnitDays), BaseDate: base},
		"restricted": {Frequency: domain.Daily(), BaseDate: base, ApplicableWeekdays: mustWeekdays(t, 5, 6)},
		"multi":      {Frequency: domain.DailyMulti(), DailySlots: mustSlots(t, "07:15|13:00|21:45")},
		"week end":   {Frequency: domain.PeriodEnd(domain.GranularityWeek)},
		"day end":    {Frequency: domain.PeriodEnd(domain.GranularityDay)},
	}

	references := []time.Time{
		base,
		at(2024, 2, 29, 9, 0),
		time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC),
		at(2024, 12, 31, 23, 59),
		at(2025, 7, 4, 13, 0),
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			for _, ref := range references {
				first := mustNext(t, e, cfg, ref)
				assert.True(t, first.After(ref), "%v is not after %v", first, ref)

				again := mustNext(t, e, cfg, ref)
				assert.True(t, first.Equal(again))
			}
		})
	}
}

func TestNextOccurrence_IterationLimit(t *testing.T) {
	e := NewEngine(Config{MaxIterations: 1})

	// The current week's end is already past, so a second iteration is needed.
	cfg := domain.ScheduleConfig{Frequency: domain.PeriodEnd(domain.GranularityWeek)}
	next, err := e.NextOccurrence(cfg, time.Date(2025, 1, 5, 23, 59, 30, 0, time.UTC))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIterationLimit))
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
	assert.True(t, next.IsAbsent())
}

func TestPeriodEndAfter_StalledStepIsNudged(t *testing.T) {
	reference := time.Date(2025, 1, 5, 23, 59, 30, 0, time.UTC) // Sunday
	stalled := func(ref time.Time) time.Time { return AddInterval(ref, 0, domain.UnitDays) }

	tests := []struct {
		granularity domain.Granularity
		want        time.Time
	}{
		{domain.GranularityDay, at(2025, 1, 6, 23, 59)},
		{domain.GranularityWeek, at(2025, 1, 12, 23, 59)},
	}

	for _, tt := range tests {
		t.Run(string(tt.granularity), func(t *testing.T) {
			got, ok, err := NewEngine(Config{MaxIterations: 3}).periodEndAfter(reference, reference, tt.granularity, stalled)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("without enough iterations the stall is reported", func(t *testing.T) {
		_, _, err := NewEngine(Config{MaxIterations: 2}).periodEndAfter(reference, reference, domain.GranularityDay, stalled)
		assert.ErrorIs(t, err, domain.ErrIterationLimit)
	})
}

func TestNextOccurrence_InvalidConfig(t *testing.T) {
	e := NewEngine(Config{})

	tests := []struct {
		name    string
		cfg     domain.ScheduleConfig
		wantErr error
		field   string
	}{
		{
			name:    "zero interval",
			cfg:     domain.ScheduleConfig{Frequency: domain.Custom(0, domain.UnitDays), BaseDate: at(2025, 1, 1, 0, 0)},
			wantErr: domain.ErrInvalidInterval,
			field:   "frequency.interval",
		},
		{
			name:    "daily multi without slots",
			cfg:     domain.ScheduleConfig{Frequency: domain.DailyMulti()},
			wantErr: domain.ErrNoDailySlots,
			field:   "daily_slots",
		},
		{
			name:    "weekday out of range",
			cfg:     domain.ScheduleConfig{Frequency: domain.Daily(), BaseDate: at(2025, 1, 1, 0, 0), ApplicableWeekdays: domain.Weekdays(1 << 7)},
			wantErr: domain.ErrInvalidWeekday,
			field:   "applicable_weekdays",
		},
		{
			name:    "missing base date",
			cfg:     domain.ScheduleConfig{Frequency: domain.Monthly()},
			wantErr: domain.ErrMissingBaseDate,
			field:   "base_date",
		},
		{
			name:    "unknown frequency",
			cfg:     domain.ScheduleConfig{Frequency: domain.Frequency{Kind: "hourly"}, BaseDate: at(2025, 1, 1, 0, 0)},
			wantErr: domain.ErrInvalidFrequency,
			field:   "frequency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.NextOccurrence(tt.cfg, at(2025, 1, 1, 0, 0))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
			assert.True(t, errors.Is(err, tt.wantErr))

			var cfgErr *domain.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestOccurrences_MonthEndDoesNotDrift(t *testing.T) {
	e := NewEngine(Config{})
	base := at(2025, 1, 31, 9, 0)
	cfg := domain.ScheduleConfig{Frequency: domain.Monthly(), BaseDate: base}

	got, err := e.Occurrences(cfg, base, at(2025, 5, 31, 9, 0), 0)

	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		at(2025, 2, 28, 9, 0),
		at(2025, 3, 31, 9, 0),
		at(2025, 4, 30, 9, 0),
		at(2025, 5, 31, 9, 0),
	}, got)
}

func TestOccurrences_WeekdayFilter(t *testing.T) {
	e := NewEngine(Config{})
	base := at(2025, 1, 1, 8, 0)
	cfg := domain.ScheduleConfig{Frequency: domain.Daily(), BaseDate: base, ApplicableWeekdays: mustWeekdays(t, 0, 4)}

	got, err := e.Occurrences(cfg, base, at(2025, 1, 14, 0, 0), 0)

	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		at(2025, 1, 3, 8, 0),
		at(2025, 1, 6, 8, 0),
		at(2025, 1, 10, 8, 0),
		at(2025, 1, 13, 8, 0),
	}, got)
}

func TestOccurrences_Limit(t *testing.T) {
	base := at(2025, 1, 1, 0, 0)
	cfg := domain.ScheduleConfig{Frequency: domain.Daily(), BaseDate: base}

	t.Run("explicit limit truncates an open window", func(t *testing.T) {
		got, err := NewEngine(Config{}).Occurrences(cfg, base, at(2025, 12, 31, 0, 0), 10)
		require.NoError(t, err)
		assert.Len(t, got, 10)
		assert.Equal(t, at(2025, 1, 11, 0, 0), got[9])
	})

	t.Run("non-positive limit uses the engine default", func(t *testing.T) {
		got, err := NewEngine(Config{}).Occurrences(cfg, base, at(2025, 12, 31, 0, 0), 0)
		require.NoError(t, err)
		assert.Len(t, got, DefaultMaxOccurrences)
	})

	t.Run("configured default", func(t *testing.T) {
		got, err := NewEngine(Config{MaxOccurrences: 7}).Occurrences(cfg, base, at(2025, 12, 31, 0, 0), -1)
		require.NoError(t, err)
		assert.Len(t, got, 7)
	})
}

func TestOccurrences_WindowIsHalfOpen(t *testing.T) {
	e := NewEngine(Config{})
	base := at(2025, 1, 1, 0, 0)
	cfg := domain.ScheduleConfig{Frequency: domain.Weekly(), BaseDate: base}

	got, err := e.Occurrences(cfg, at(2025, 1, 8, 0, 0), at(2025, 1, 22, 0, 0), 0)

	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(2025, 1, 15, 0, 0), at(2025, 1, 22, 0, 0)}, got)
}

func TestOccurrences_EmptyResults(t *testing.T) {
	e := NewEngine(Config{})
	base := at(2025, 1, 1, 0, 0)

	t.Run("none frequency", func(t *testing.T) {
		got, err := e.Occurrences(domain.ScheduleConfig{Frequency: domain.None()}, base, at(2026, 1, 1, 0, 0), 0)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("empty window", func(t *testing.T) {
		cfg := domain.ScheduleConfig{Frequency: domain.Daily(), BaseDate: base}
		got, err := e.Occurrences(cfg, base, base, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestOccurrences_Errors(t *testing.T) {
	e := NewEngine(Config{})
	base := at(2025, 1, 1, 0, 0)

	t.Run("inverted window", func(t *testing.T) {
		cfg := domain.ScheduleConfig{Frequency: domain.Daily(), BaseDate: base}
		_, err := e.Occurrences(cfg, base, base.Add(-time.Hour), 0)
		assert.ErrorIs(t, err, domain.ErrInvalidWindow)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := e.Occurrences(domain.ScheduleConfig{Frequency: domain.Weekly()}, base, base.AddDate(0, 1, 0), 0)
		assert.ErrorIs(t, err, domain.ErrMissingBaseDate)
	})
}

func TestBetween_MatchesOccurrences(t *testing.T) {
	e := NewEngine(Config{})
	base := at(2025, 1, 31, 0, 0)
	cfg := domain.ScheduleConfig{Frequency: domain.Custom(2, domain.UnitMonths), BaseDate: base}
	end := at(2027, 1, 1, 0, 0)

	want, err := e.Occurrences(cfg, base, end, 0)
	require.NoError(t, err)

	var got []time.Time
	for occ, err := range e.Between(cfg, base, end) {
		require.NoError(t, err)
		got = append(got, occ)
	}

	assert.Equal(t, want, got)
}

func TestBetween_StopsEarly(t *testing.T) {
	e := NewEngine(Config{})
	base := at(2025, 1, 1, 0, 0)
	cfg := domain.ScheduleConfig{Frequency: domain.Daily(), BaseDate: base}

	var got []time.Time
	for occ, err := range e.Between(cfg, base, at(2026, 1, 1, 0, 0)) {
		require.NoError(t, err)
		got = append(got, occ)
		if len(got) == 3 {
			break
		}
	}

	assert.Len(t, got, 3)
}

func TestBetween_InvertedWindowYieldsError(t *testing.T) {
	e := NewEngine(Config{})
	base := at(2025, 1, 1, 0, 0)

	var errs []error
	for _, err := range e.Between(domain.ScheduleConfig{Frequency: domain.Daily(), BaseDate: base}, base, base.Add(-time.Minute)) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], domain.ErrInvalidWindow)
}

func TestIsDue(t *testing.T) {
	e := NewEngine(Config{})
	base := at(2025, 1, 1, 8, 0)
	cfg := domain.ScheduleConfig{Frequency: domain.Weekly(), BaseDate: base}

	due, err := e.IsDue(cfg, base, at(2025, 1, 8, 8, 0))
	require.NoError(t, err)
	assert.True(t, due)

	due, err = e.IsDue(cfg, base, at(2025, 1, 7, 23, 59))
	require.NoError(t, err)
	assert.False(t, due)

	due, err = e.IsDue(domain.ScheduleConfig{Frequency: domain.None()}, base, at(2030, 1, 1, 0, 0))
	require.NoError(t, err)
	assert.False(t, due)
}

func TestEngine_OverrideDoesNotAliasSharedConfig(t *testing.T) {
	e := NewEngine(Config{})
	shared := domain.ScheduleConfig{
		Frequency:  domain.DailyMulti(),
		DailySlots: mustSlots(t, "09:00|17:00"),
	}

	mondays := shared.WithWeekdays(mustWeekdays(t, 0))
	mondays.DailySlots[0] = domain.ClockTime{Hour: 6}

	assert.True(t, shared.ApplicableWeekdays.Empty())
	assert.Equal(t, 9, shared.DailySlots[0].Hour)

	// 2025-03-11 is a Tuesday.
	ref := at(2025, 3, 11, 10, 0)
	assert.Equal(t, at(2025, 3, 11, 17, 0), mustNext(t, e, shared, ref))
	assert.Equal(t, at(2025, 3, 17, 6, 0), mustNext(t, e, mondays, ref))
}

func TestEngine_DailyMultiUsesBaseZone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	e := NewEngine(Config{})
	cfg := domain.ScheduleConfig{
		Frequency:  domain.DailyMulti(),
		BaseDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, berlin),
		DailySlots: mustSlots(t, "09:00"),
	}

	// 07:30 UTC is 08:30 in Berlin in winter.
	got := mustNext(t, e, cfg, at(2025, 1, 15, 7, 30))

	assert.True(t, time.Date(2025, 1, 15, 9, 0, 0, 0, berlin).Equal(got))
}
