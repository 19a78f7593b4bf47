package fs

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rezkam/recur/internal/domain"
	"github.com/rezkam/recur/internal/ptr"
)

// scheduleDocument is the on-disk YAML form of a domain.ScheduleDefinition.
//
//	id: plants
//	name: Water the plants
//	frequency: {kind: custom, every: P3D}
//	weekdays: [mon, thu]
//	due_date: 2025-01-01T08:00
//	timezone: Europe/Berlin
//	assignments:
//	  - entity_id: alice
//	    weekdays: [sat]
type scheduleDocument struct {
	ID          string               `yaml:"id" validate:"required,max=128,excludesall=/\\"`
	Name        string               `yaml:"name" validate:"required"`
	Description string               `yaml:"description,omitempty"`
	Frequency   frequencyDocument    `yaml:"frequency"`
	Weekdays    []string             `yaml:"weekdays,omitempty" validate:"max=7"`
	DailySlots  string               `yaml:"daily_slots,omitempty"`
	DueDate     string               `yaml:"due_date,omitempty"`
	Timezone    string               `yaml:"timezone,omitempty" validate:"omitempty,timezone"`
	Assignments []assignmentDocument `yaml:"assignments,omitempty" validate:"dive"`
}

type frequencyDocument struct {
	Kind string `yaml:"kind" validate:"required,oneof=none daily daily_multi weekly biweekly monthly quarterly yearly custom custom_from_completion period_end"`
	// Every is an ISO 8601 shorthand for Interval and Unit ("P3D", "P2W").
	Every       string `yaml:"every,omitempty" validate:"excluded_with=Interval"`
	Interval    int    `yaml:"interval,omitempty" validate:"gte=0"`
	Unit        string `yaml:"unit,omitempty" validate:"omitempty,oneof=days weeks months quarters years"`
	Granularity string `yaml:"granularity,omitempty" validate:"omitempty,oneof=day week month quarter year"`
}

type assignmentDocument struct {
	EntityID string `yaml:"entity_id" validate:"required"`
	// Weekdays overrides the definition's restriction when present.
	// An empty list ("weekdays: []") lifts it; an absent key inherits it.
	Weekdays      *[]string `yaml:"weekdays,omitempty" validate:"omitempty,max=7"`
	LastCompleted string    `yaml:"last_completed,omitempty"`
}

// Accepted due_date and last_completed layouts. Values without an offset are
// read in the document's timezone. Values with one keep it unless the document
// names a timezone.
var (
	zonedLayouts = []string{time.RFC3339Nano, time.RFC3339}
	localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError turns the first validator failure into a ConfigError naming
// the YAML path, e.g. "frequency.kind".
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	return domain.NewConfigError(field, fmt.Errorf("failed %q validation", fe.Tag()))
}

// toDomain converts a validated document. loc is used when the document names no timezone.
func (doc scheduleDocument) toDomain(loc *time.Location) (domain.ScheduleDefinition, error) {
	named := doc.Timezone != ""
	if named {
		l, err := time.LoadLocation(doc.Timezone)
		if err != nil {
			return domain.ScheduleDefinition{}, fmt.Errorf("%w: %s", domain.ErrInvalidTimezone, doc.Timezone)
		}
		loc = l
	}

	freq, err := doc.Frequency.toDomain()
	if err != nil {
		return domain.ScheduleDefinition{}, domain.NewConfigError("frequency", err)
	}

	weekdays, err := parseWeekdays(doc.Weekdays)
	if err != nil {
		return domain.ScheduleDefinition{}, domain.NewConfigError("weekdays", err)
	}

	var slots []domain.ClockTime
	if strings.TrimSpace(doc.DailySlots) != "" {
		if slots, err = domain.ParseDailySlots(doc.DailySlots); err != nil {
			return domain.ScheduleDefinition{}, domain.NewConfigError("daily_slots", err)
		}
	}

	due, err := parseTime(doc.DueDate, loc, named)
	if err != nil {
		return domain.ScheduleDefinition{}, domain.NewConfigError("due_date", err)
	}

	def := domain.ScheduleDefinition{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Frequency:   freq,
		Weekdays:    weekdays,
		DailySlots:  slots,
		DueDate:     due,
	}

	for i, a := range doc.Assignments {
		assignment := domain.Assignment{EntityID: a.EntityID}
		if a.Weekdays != nil {
			w, err := parseWeekdays(*a.Weekdays)
			if err != nil {
				return domain.ScheduleDefinition{}, domain.NewConfigError(fmt.Sprintf("assignments[%d].weekdays", i), err)
			}
			assignment.Override.Weekdays = ptr.To(w)
		}
		if a.LastCompleted != "" {
			done, err := parseTime(a.LastCompleted, loc, named)
			if err != nil {
				return domain.ScheduleDefinition{}, domain.NewConfigError(fmt.Sprintf("assignments[%d].last_completed", i), err)
			}
			assignment.LastCompleted = ptr.To(done)
		}
		def.Assignments = append(def.Assignments, assignment)
	}

	return def, nil
}

func (f frequencyDocument) toDomain() (domain.Frequency, error) {
	interval, unit := f.Interval, f.Unit
	if f.Every != "" {
		n, u, err := domain.ParseISOInterval(f.Every)
		if err != nil {
			return domain.Frequency{}, err
		}
		interval, unit = n, string(u)
	}
	return domain.NewFrequency(f.Kind, interval, unit, f.Granularity)
}

// fromDomain builds the document written back to disk. Times are stored in
// RFC 3339 with the due date's zone recorded as timezone when it has a loadable
// name (UTC included). Fixed offsets survive through the RFC 3339 offset.
func fromDomain(def domain.ScheduleDefinition) scheduleDocument {
	doc := scheduleDocument{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Frequency: frequencyDocument{
			Kind:        string(def.Frequency.Kind),
			Interval:    def.Frequency.Interval,
			Unit:        string(def.Frequency.Unit),
			Granularity: string(def.Frequency.Granularity),
		},
		Weekdays:   def.Weekdays.Names(),
		DailySlots: domain.FormatDailySlots(def.DailySlots),
		DueDate:    formatTime(def.DueDate),
	}
	if len(doc.Weekdays) == 0 {
		doc.Weekdays = nil
	}
	if !def.DueDate.IsZero() {
		doc.Timezone = zoneName(def.DueDate.Location())
	}

	for _, a := range def.Assignments {
		ad := assignmentDocument{
			EntityID:      a.EntityID,
			LastCompleted: formatTime(ptr.Deref(a.LastCompleted, time.Time{})),
		}
		if a.Override.Weekdays != nil {
			names := a.Override.Weekdays.Names()
			ad.Weekdays = &names
		}
		doc.Assignments = append(doc.Assignments, ad)
	}
	return doc
}

func parseWeekdays(names []string) (domain.Weekdays, error) {
	var w domain.Weekdays
	for _, n := range names {
		i, err := domain.ParseWeekday(n)
		if err != nil {
			return 0, err
		}
		w = w.With(i)
	}
	return w, nil
}

// zoneName returns the IANA name to record for loc, or "" when loc cannot be
// reloaded by name (Local, fixed offsets).
func zoneName(loc *time.Location) string {
	name := loc.String()
	if name == "" || name == "Local" {
		return ""
	}
	if _, err := time.LoadLocation(name); err != nil {
		return ""
	}
	return name
}

// parseTime reads s in loc when it has no offset. An offset-bearing value is
// moved into loc only when the document named loc, or when loc has the same
// offset at that instant; otherwise its own offset is kept so calendar
// arithmetic happens on the day it was written for.
func parseTime(s string, loc *time.Location, named bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range zonedLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if named {
			return t.In(loc), nil
		}
		_, offset := t.Zone()
		if _, locOffset := t.In(loc).Zone(); locOffset == offset {
			return t.In(loc), nil
		}
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (want RFC 3339 or 2006-01-02T15:04)", s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
