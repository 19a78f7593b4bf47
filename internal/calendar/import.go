package calendar

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/rezkam/recur/internal/domain"
	"github.com/rezkam/recur/internal/recurring"
)

// ErrMissingStart is returned for a VEVENT without a usable DTSTART.
var ErrMissingStart = errors.New("event has no DTSTART")

// Imported is a schedule recovered from a VEVENT.
type Imported struct {
	UID         string
	Summary     string
	Description string
	Config      domain.ScheduleConfig
}

// Skipped records a VEVENT that could not be mapped to a schedule.
type Skipped struct {
	UID string
	Err error
}

// ImportResult holds the mapped schedules and the events that were left out.
type ImportResult struct {
	Schedules []Imported
	Skipped   []Skipped
}

// Import reads VEVENTs from an iCalendar stream. Each event's DTSTART becomes the
// base date and its RRULE is mapped with recurring.FromRRule. Events without an
// RRULE import as one-off schedules (frequency none). Floating DTSTART values
// (no TZID, no trailing Z) are read in loc.
//
// Only a malformed calendar is an error; events that do not map are reported in
// ImportResult.Skipped.
func Import(r io.Reader, loc *time.Location) (ImportResult, error) {
	if loc == nil {
		loc = time.UTC
	}

	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to parse calendar: %w", err)
	}

	result := ImportResult{Schedules: make([]Imported, 0)}
	for _, ve := range cal.Events() {
		imported, err := importEvent(ve, loc)
		if err != nil {
			result.Skipped = append(result.Skipped, Skipped{UID: propValue(ve, ics.ComponentPropertyUniqueId), Err: err})
			continue
		}
		result.Schedules = append(result.Schedules, imported)
	}
	return result, nil
}

func importEvent(ve *ics.VEvent, loc *time.Location) (Imported, error) {
	start, err := eventStart(ve, loc)
	if err != nil {
		return Imported{}, err
	}

	out := Imported{
		UID:         propValue(ve, ics.ComponentPropertyUniqueId),
		Summary:     propValue(ve, ics.ComponentPropertySummary),
		Description: propValue(ve, ics.ComponentPropertyDescription),
	}

	rule := propValue(ve, ics.ComponentPropertyRrule)
	if rule == "" {
		out.Config = domain.ScheduleConfig{Frequency: domain.None(), BaseDate: start}
		return out, nil
	}

	cfg, err := recurring.FromRRule(rule, start)
	if err != nil {
		return Imported{}, err
	}
	out.Config = cfg
	return out, nil
}

// eventStart resolves DTSTART. The library handles UTC and TZID forms; floating
// times are re-read in loc because the library would place them in time.Local.
func eventStart(ve *ics.VEvent, loc *time.Location) (time.Time, error) {
	prop := ve.GetProperty(ics.ComponentPropertyDtStart)
	if prop == nil || prop.Value == "" {
		return time.Time{}, ErrMissingStart
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMissingStart, err)
	}

	_, hasTZID := prop.ICalParameters["TZID"]
	if hasTZID || strings.HasSuffix(prop.Value, "Z") {
		return start, nil
	}

	return time.Date(start.Year(), start.Month(), start.Day(),
		start.Hour(), start.Minute(), start.Second(), 0, loc), nil
}

func propValue(ve *ics.VEvent, p ics.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}
