package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/rezkam/recur/internal/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateScheduleParams_Validate_UnknownField(t *testing.T) {
	tests := []struct {
		name    string
		mask    []string
		wantErr bool
	}{
		{
			name:    "valid field description",
			mask:    []string{"description"},
			wantErr: false,
		},
		{
			name:    "valid multiple fields",
			mask:    []string{"description", "weekdays", "daily_slots"},
			wantErr: false,
		},
		{
			name:    "unknown field typo",
			mask:    []string{"frequncy"},
			wantErr: true,
		},
		{
			name:    "mix of valid and unknown",
			mask:    []string{"description", "owner"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := UpdateScheduleParams{ID: "x", UpdateMask: tt.mask}.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnknownField))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateScheduleParams_Validate_RequiredValues(t *testing.T) {
	assert.ErrorIs(t, UpdateScheduleParams{}.Validate(), ErrEmptyUpdateMask)

	assert.ErrorIs(t, UpdateScheduleParams{UpdateMask: []string{FieldName}}.Validate(), ErrNameRequired)
	assert.ErrorIs(t, UpdateScheduleParams{UpdateMask: []string{FieldName}, Name: ptr.To("")}.Validate(), ErrNameRequired)
	assert.ErrorIs(t, UpdateScheduleParams{UpdateMask: []string{FieldFrequency}}.Validate(), ErrInvalidFrequency)
	assert.ErrorIs(t, UpdateScheduleParams{UpdateMask: []string{FieldDueDate}}.Validate(), ErrMissingBaseDate)

	assert.NoError(t, UpdateScheduleParams{
		UpdateMask: []string{FieldName, FieldFrequency, FieldDueDate},
		Name:       ptr.To("Plants"),
		Frequency:  ptr.To(Weekly()),
		DueDate:    ptr.To(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
	}.Validate())
}

func TestUpdateScheduleParams_Apply(t *testing.T) {
	def := newDefinition()
	due := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	params := UpdateScheduleParams{
		ID:         def.ID,
		UpdateMask: []string{FieldName, FieldWeekdays, FieldDailySlots, FieldDueDate},
		Name:       ptr.To("Vitamins"),
		DailySlots: []ClockTime{{7, 0}},
		DueDate:    &due,
	}
	require.NoError(t, params.Validate())

	got := params.Apply(def)

	assert.Equal(t, "Vitamins", got.Name)
	assert.True(t, got.Weekdays.Empty(), "nil weekdays in the mask clears the restriction")
	assert.Equal(t, []ClockTime{{7, 0}}, got.DailySlots)
	assert.Equal(t, due, got.DueDate)
	assert.Equal(t, def.Frequency, got.Frequency, "unmasked fields are kept")

	assert.Equal(t, "Medication", def.Name)
	assert.Equal(t, AllWeekdays, def.Weekdays)
	assert.Len(t, def.DailySlots, 2)

	params.DailySlots[0].Hour = 9
	assert.Equal(t, 7, got.DailySlots[0].Hour)
}
