package domain

import (
	"fmt"
	"time"
)

// Update mask field names for UpdateScheduleParams.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldFrequency   = "frequency"
	FieldWeekdays    = "weekdays"
	FieldDailySlots  = "daily_slots"
	FieldDueDate     = "due_date"
)

var updateScheduleValidFields = map[string]struct{}{
	FieldName:        {},
	FieldDescription: {},
	FieldFrequency:   {},
	FieldWeekdays:    {},
	FieldDailySlots:  {},
	FieldDueDate:     {},
}

// UpdateScheduleParams describes a partial update of a ScheduleDefinition.
// Only fields named in UpdateMask are applied.
type UpdateScheduleParams struct {
	ID         string
	UpdateMask []string

	Name        *string
	Description *string
	Frequency   *Frequency
	Weekdays    *Weekdays
	DailySlots  []ClockTime
	DueDate     *time.Time
}

// Validate checks that UpdateMask contains only known fields and that
// required fields have non-nil values when included in the mask.
func (p UpdateScheduleParams) Validate() error {
	if len(p.UpdateMask) == 0 {
		return ErrEmptyUpdateMask
	}

	maskSet := make(map[string]bool, len(p.UpdateMask))

	for _, field := range p.UpdateMask {
		if _, ok := updateScheduleValidFields[field]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		maskSet[field] = true
	}

	if maskSet[FieldName] && (p.Name == nil || *p.Name == "") {
		return ErrNameRequired
	}
	if maskSet[FieldFrequency] && p.Frequency == nil {
		return NewConfigError("frequency", ErrInvalidFrequency)
	}
	if maskSet[FieldDueDate] && p.DueDate == nil {
		return NewConfigError("base_date", ErrMissingBaseDate)
	}

	return nil
}

// Apply returns a copy of d with the masked fields replaced. d is not modified.
// Call Validate first.
func (p UpdateScheduleParams) Apply(d ScheduleDefinition) ScheduleDefinition {
	out := d.Clone()
	for _, field := range p.UpdateMask {
		switch field {
		case FieldName:
			out.Name = *p.Name
		case FieldDescription:
			if p.Description != nil {
				out.Description = *p.Description
			} else {
				out.Description = ""
			}
		case FieldFrequency:
			out.Frequency = *p.Frequency
		case FieldWeekdays:
			if p.Weekdays != nil {
				out.Weekdays = *p.Weekdays
			} else {
				out.Weekdays = 0
			}
		case FieldDailySlots:
			out.DailySlots = append([]ClockTime(nil), p.DailySlots...)
		case FieldDueDate:
			out.DueDate = *p.DueDate
		}
	}
	return out
}
