package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/rezkam/recur/internal/ptr"
)

// ScheduleDefinition is the host's persisted description of a recurring obligation,
// shared by every entity it is assigned to.
type ScheduleDefinition struct {
	ID          string
	Name        string
	Description string

	Frequency  Frequency
	Weekdays   Weekdays
	DailySlots []ClockTime

	// DueDate is the current due date (base for fixed and custom intervals).
	DueDate time.Time

	Assignments []Assignment
}

// Assignment binds a definition to one entity (e.g. one person), with optional overrides.
type Assignment struct {
	EntityID string
	Override Override

	// LastCompleted is the base for custom_from_completion schedules.
	LastCompleted *time.Time
}

// Override holds per-entity replacements. A nil field keeps the definition's value.
type Override struct {
	Weekdays *Weekdays
}

// BaseFor picks the base date the engine steps from: the last completion for
// custom_from_completion, the current due date for everything else.
// Falls back to the due date when the entity has never completed the obligation.
func (d ScheduleDefinition) BaseFor(a Assignment) time.Time {
	if d.Frequency.Kind == FrequencyCustomFromCompletion && a.LastCompleted != nil {
		return *a.LastCompleted
	}
	return d.DueDate
}

// ConfigFor builds a fresh ScheduleConfig for one entity. The definition is never
// modified; the returned config owns its own slot slice.
func (d ScheduleDefinition) ConfigFor(base time.Time, o Override) ScheduleConfig {
	cfg := ScheduleConfig{
		Frequency:          d.Frequency,
		BaseDate:           base,
		ApplicableWeekdays: d.Weekdays,
		DailySlots:         slices.Clone(d.DailySlots),
	}
	if o.Weekdays != nil {
		cfg = cfg.WithWeekdays(*o.Weekdays)
	}
	return cfg
}

// Assignment returns the assignment for entityID, or a zero-override assignment
// when the entity has none.
func (d ScheduleDefinition) Assignment(entityID string) Assignment {
	for _, a := range d.Assignments {
		if a.EntityID == entityID {
			return a
		}
	}
	return Assignment{EntityID: entityID}
}

// Validate checks identity fields, the shared config anchored at DueDate, and
// each assignment's override.
func (d ScheduleDefinition) Validate() error {
	if d.ID == "" {
		return ErrScheduleIDRequired
	}
	if d.Name == "" {
		return ErrNameRequired
	}
	if err := d.ConfigFor(d.DueDate, Override{}).Validate(); err != nil {
		return fmt.Errorf("schedule %s: %w", d.ID, err)
	}
	for _, a := range d.Assignments {
		if a.EntityID == "" {
			return fmt.Errorf("schedule %s: %w", d.ID, ErrEntityIDRequired)
		}
		if a.Override.Weekdays == nil {
			continue
		}
		if err := d.ConfigFor(d.DueDate, a.Override).Validate(); err != nil {
			return fmt.Errorf("schedule %s: entity %s: %w", d.ID, a.EntityID, err)
		}
	}
	return nil
}

// Clone returns a deep copy; no slice or pointer is shared with d.
func (d ScheduleDefinition) Clone() ScheduleDefinition {
	out := d
	out.DailySlots = slices.Clone(d.DailySlots)
	out.Assignments = make([]Assignment, len(d.Assignments))
	for i, a := range d.Assignments {
		out.Assignments[i] = a.clone()
	}
	if d.Assignments == nil {
		out.Assignments = nil
	}
	return out
}

func (a Assignment) clone() Assignment {
	out := a
	out.LastCompleted = ptr.Clone(a.LastCompleted)
	out.Override.Weekdays = ptr.Clone(a.Override.Weekdays)
	return out
}

// RecordCompletion stores at as entityID's last completion, adding an
// assignment when the entity has none.
func (d *ScheduleDefinition) RecordCompletion(entityID string, at time.Time) {
	for i := range d.Assignments {
		if d.Assignments[i].EntityID == entityID {
			d.Assignments[i].LastCompleted = ptr.To(at)
			return
		}
	}
	d.Assignments = append(d.Assignments, Assignment{EntityID: entityID, LastCompleted: ptr.To(at)})
}
