// Package calendar converts schedules to and from iCalendar (RFC 5545) data.
package calendar

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/rezkam/recur/internal/domain"
	"github.com/rezkam/recur/internal/recurring"
)

// ProductID identifies exported calendars.
const ProductID = "-//recur//Schedule Export//EN"

// Entry is one schedule to be written as a VEVENT.
type Entry struct {
	// UID is generated (UUIDv7) when empty.
	UID         string
	Summary     string
	Description string
	Config      domain.ScheduleConfig
	// Start is used as DTSTART when Config has no base date
	// (period_end and daily_multi schedules).
	Start time.Time
}

// BuildEvent creates a VEVENT for e. DTSTART is the config's base date so that
// RRULE consumers anchor on the same grid as the engine. The RRULE property is
// omitted when the schedule has no faithful RRULE form.
func BuildEvent(e Entry, stamp time.Time) (*ical.Event, error) {
	if err := e.Config.Validate(); err != nil {
		return nil, err
	}

	start := e.Config.BaseDate
	if start.IsZero() {
		start = e.Start
	}
	if start.IsZero() {
		return nil, domain.NewConfigError("base_date", domain.ErrMissingBaseDate)
	}

	uid := e.UID
	if uid == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate uid: %w", err)
		}
		uid = id.String()
	}

	summary := e.Summary
	if summary == "" {
		summary = e.Config.Frequency.String()
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uid)
	event.Props.SetText(ical.PropSummary, summary)
	if e.Description != "" {
		event.Props.SetText(ical.PropDescription, e.Description)
	}
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start)

	opt, err := recurring.ToROption(e.Config)
	if err != nil {
		return nil, err
	}
	if opt != nil {
		// SetText would escape the commas in BYDAY and BYMONTHDAY.
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.SetValueType(ical.ValueRecurrence)
		prop.Value = recurring.ToRRuleString(e.Config)
		event.Props.Set(prop)
	}

	return event, nil
}

// NewCalendar returns an empty VCALENDAR with the required headers.
func NewCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	return cal
}

// Export writes entries as a single VCALENDAR.
func Export(w io.Writer, entries []Entry, stamp time.Time) error {
	cal := NewCalendar()
	for _, e := range entries {
		event, err := BuildEvent(e, stamp)
		if err != nil {
			return fmt.Errorf("failed to build event %q: %w", e.Summary, err)
		}
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
