package domain

import (
	"testing"
	"time"

	"github.com/rezkam/recur/internal/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefinition() ScheduleDefinition {
	return ScheduleDefinition{
		ID:         "meds",
		Name:       "Medication",
		Frequency:  DailyMulti(),
		Weekdays:   AllWeekdays,
		DailySlots: []ClockTime{{8, 0}, {20, 0}},
		DueDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Assignments: []Assignment{
			{EntityID: "alice"},
			{EntityID: "bob", Override: Override{Weekdays: ptr.To(Weekdays(0).With(5).With(6))}},
		},
	}
}

func TestScheduleDefinition_BaseFor(t *testing.T) {
	due := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	done := time.Date(2025, 1, 3, 18, 0, 0, 0, time.UTC)

	def := ScheduleDefinition{Frequency: Weekly(), DueDate: due}
	assert.Equal(t, due, def.BaseFor(Assignment{LastCompleted: &done}))

	def.Frequency = CustomFromCompletion(3, UnitDays)
	assert.Equal(t, done, def.BaseFor(Assignment{LastCompleted: &done}))
	assert.Equal(t, due, def.BaseFor(Assignment{}), "never completed falls back to due date")
}

func TestScheduleDefinition_ConfigFor_OverrideDoesNotLeak(t *testing.T) {
	def := newDefinition()

	bob := def.ConfigFor(def.DueDate, def.Assignment("bob").Override)
	alice := def.ConfigFor(def.DueDate, def.Assignment("alice").Override)

	assert.Equal(t, []int{5, 6}, bob.ApplicableWeekdays.Indices())
	assert.Equal(t, AllWeekdays, alice.ApplicableWeekdays)
	assert.Equal(t, AllWeekdays, def.Weekdays)

	bob.DailySlots[0].Hour = 9
	assert.Equal(t, 8, alice.DailySlots[0].Hour)
	assert.Equal(t, 8, def.DailySlots[0].Hour)
}

func TestScheduleDefinition_Assignment(t *testing.T) {
	def := newDefinition()

	assert.NotNil(t, def.Assignment("bob").Override.Weekdays)

	carol := def.Assignment("carol")
	assert.Equal(t, "carol", carol.EntityID)
	assert.Nil(t, carol.Override.Weekdays)
	assert.Nil(t, carol.LastCompleted)
}

func TestScheduleDefinition_Validate(t *testing.T) {
	require.NoError(t, newDefinition().Validate())

	tests := []struct {
		name    string
		mutate  func(d *ScheduleDefinition)
		wantErr error
	}{
		{"missing id", func(d *ScheduleDefinition) { d.ID = "" }, ErrScheduleIDRequired},
		{"missing name", func(d *ScheduleDefinition) { d.Name = "" }, ErrNameRequired},
		{"bad config", func(d *ScheduleDefinition) { d.DailySlots = nil }, ErrNoDailySlots},
		{"missing entity", func(d *ScheduleDefinition) { d.Assignments[0].EntityID = "" }, ErrEntityIDRequired},
		{"bad override", func(d *ScheduleDefinition) { d.Assignments[1].Override.Weekdays = ptr.To(Weekdays(1 << 7)) }, ErrInvalidWeekday},
		{"restricted period end", func(d *ScheduleDefinition) { d.Frequency = PeriodEnd(GranularityWeek) }, ErrWeekdaysUnsupported},
		{"restricted period end override", func(d *ScheduleDefinition) {
			d.Weekdays = 0
			d.Frequency = PeriodEnd(GranularityWeek)
			d.Assignments = d.Assignments[1:]
		}, ErrWeekdaysUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := newDefinition()
			tt.mutate(&def)
			assert.ErrorIs(t, def.Validate(), tt.wantErr)
		})
	}
}

func TestScheduleDefinition_Clone(t *testing.T) {
	def := newDefinition()
	def.RecordCompletion("alice", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))

	c := def.Clone()
	c.DailySlots[0].Hour = 1
	*c.Assignments[1].Override.Weekdays = 0
	*c.Assignments[0].LastCompleted = time.Time{}
	c.Assignments = append(c.Assignments, Assignment{EntityID: "dave"})

	assert.Equal(t, 8, def.DailySlots[0].Hour)
	assert.False(t, def.Assignments[1].Override.Weekdays.Empty())
	assert.False(t, def.Assignments[0].LastCompleted.IsZero())
	assert.Len(t, def.Assignments, 2)
}

func TestScheduleDefinition_RecordCompletion(t *testing.T) {
	def := newDefinition()
	first := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
	second := time.Date(2025, 1, 3, 8, 0, 0, 0, time.UTC)

	def.RecordCompletion("alice", first)
	def.RecordCompletion("carol", second)
	def.RecordCompletion("alice", second)

	require.Len(t, def.Assignments, 3)
	assert.Equal(t, second, *def.Assignment("alice").LastCompleted)
	assert.Equal(t, second, *def.Assignment("carol").LastCompleted)
	assert.Nil(t, def.Assignment("bob").LastCompleted)
}
