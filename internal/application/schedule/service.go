package schedule

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/recur/internal/calendar"
	"github.com/rezkam/recur/internal/domain"
	"github.com/rezkam/recur/internal/ptr"
	"github.com/rezkam/recur/internal/recurring"
	"github.com/samber/mo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/rezkam/recur/internal/application/schedule"

// Default configuration values.
const (
	DefaultUpcomingLimit = 10
)

// importNamespace derives stable schedule IDs from iCalendar UIDs so that
// importing the same file twice reports existing schedules instead of duplicating them.
var importNamespace = uuid.MustParse("6f1c3f0e-6a55-4c1e-9a0b-3c52d1f0a7e4")

// Config holds configuration for the Service.
type Config struct {
	// UpcomingLimit caps Upcoming when the caller passes limit <= 0.
	UpcomingLimit int
}

// Due is one obligation that has come due for an entity.
type Due struct {
	ScheduleID string
	Name       string
	EntityID   string
	// At is the earliest occurrence after the entity's last completion.
	At time.Time
}

// ImportReport lists what an iCalendar import created and what it left out.
type ImportReport struct {
	Created []*domain.ScheduleDefinition
	Skipped []calendar.Skipped
}

// Service answers per-entity schedule questions on top of the recurrence engine.
//
// Definitions are shared; every query builds a fresh ScheduleConfig for the entity
// (copy-then-override) so one entity's override never leaks into another's.
// DueDate anchors the occurrence grid and is never moved. Progress is tracked per
// entity through Assignment.LastCompleted.
type Service struct {
	repo        Repository
	engine      *recurring.Engine
	config      Config
	tracer      trace.Tracer
	evaluations metric.Int64Counter
	completions metric.Int64Counter
}

// NewService creates a new schedule service.
// Applies application defaults for zero or invalid config values.
func NewService(repo Repository, engine *recurring.Engine, config Config) *Service {
	if config.UpcomingLimit <= 0 {
		config.UpcomingLimit = DefaultUpcomingLimit
	}

	meter := otel.Meter(instrumentationName)
	evaluations, err := meter.Int64Counter("recur.schedule.evaluations",
		metric.WithDescription("Recurrence queries answered, by frequency and outcome"))
	if err != nil {
		evaluations = noop.Int64Counter{}
	}
	completions, err := meter.Int64Counter("recur.schedule.completions",
		metric.WithDescription("Completions recorded"))
	if err != nil {
		completions = noop.Int64Counter{}
	}

	return &Service{
		repo:        repo,
		engine:      engine,
		config:      config,
		tracer:      otel.Tracer(instrumentationName),
		evaluations: evaluations,
		completions: completions,
	}
}

// CreateSchedule validates and stores a new definition. An empty ID is replaced with a UUIDv7.
func (s *Service) CreateSchedule(ctx context.Context, def domain.ScheduleDefinition) (*domain.ScheduleDefinition, error) {
	if def.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate id: %w", err)
		}
		def.ID = id.String()
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateSchedule(ctx, &def)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	slog.InfoContext(ctx, "schedule created",
		slog.String("schedule_id", created.ID),
		slog.String("frequency", created.Frequency.String()))
	return created, nil
}

// GetSchedule retrieves a definition by ID.
func (s *Service) GetSchedule(ctx context.Context, id string) (*domain.ScheduleDefinition, error) {
	if id == "" {
		return nil, domain.ErrScheduleIDRequired
	}
	return s.repo.FindScheduleByID(ctx, id)
}

// ListSchedules returns every definition ordered by ID. Definitions that loaded
// are returned alongside the error describing the ones that did not.
func (s *Service) ListSchedules(ctx context.Context) ([]*domain.ScheduleDefinition, error) {
	return s.repo.ListSchedules(ctx)
}

// UpdateSchedule updates a definition using field mask.
// Only updates fields specified in UpdateMask.
func (s *Service) UpdateSchedule(ctx context.Context, params domain.UpdateScheduleParams) (*domain.ScheduleDefinition, error) {
	if params.ID == "" {
		return nil, domain.ErrScheduleIDRequired
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.FindScheduleByID(ctx, params.ID)
	if err != nil {
		return nil, err
	}

	updated := params.Apply(*current)
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.repo.UpdateSchedule(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}
	return saved, nil
}

// NextDue returns the entity's first occurrence strictly after reference.
// The result is empty for one-off (none) schedules.
func (s *Service) NextDue(ctx context.Context, id, entityID string, reference time.Time) (mo.Option[time.Time], error) {
	ctx, span := s.startSpan(ctx, "schedule.NextDue", id, entityID)
	defer span.End()

	def, err := s.GetSchedule(ctx, id)
	if err != nil {
		return mo.None[time.Time](), recordError(span, err)
	}

	cfg := configFor(def, entityID)
	next, err := s.engine.NextOccurrence(cfg, reference)
	s.countEvaluation(ctx, cfg, err)
	if err != nil {
		return mo.None[time.Time](), recordError(span, fmt.Errorf("schedule %s: %w", id, err))
	}
	return next, nil
}

// Upcoming lists the entity's occurrences in (from, to], at most limit of them.
// limit <= 0 uses Config.UpcomingLimit.
func (s *Service) Upcoming(ctx context.Context, id, entityID string, from, to time.Time, limit int) ([]time.Time, error) {
	ctx, span := s.startSpan(ctx, "schedule.Upcoming", id, entityID)
	defer span.End()

	if limit <= 0 {
		limit = s.config.UpcomingLimit
	}

	def, err := s.GetSchedule(ctx, id)
	if err != nil {
		return nil, recordError(span, err)
	}

	cfg := configFor(def, entityID)
	occurrences, err := s.engine.Occurrences(cfg, from, to, limit)
	s.countEvaluation(ctx, cfg, err)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("schedule %s: %w", id, err))
	}
	span.SetAttributes(attribute.Int("occurrences", len(occurrences)))
	return occurrences, nil
}

// RRule returns the entity's RFC 5545 recurrence rule, or "" when its schedule
// has no faithful RRULE form.
func (s *Service) RRule(ctx context.Context, id, entityID string) (string, error) {
	def, err := s.GetSchedule(ctx, id)
	if err != nil {
		return "", err
	}
	return recurring.ToRRuleString(configFor(def, entityID)), nil
}

// IsDue reports whether an occurrence falls after the entity's last completion
// (or the due date, if it never completed) and at or before now.
func (s *Service) IsDue(ctx context.Context, id, entityID string, now time.Time) (bool, error) {
	due, err := s.pending(ctx, id, entityID, now)
	if err != nil {
		return false, err
	}
	return due.IsPresent(), nil
}

func (s *Service) pending(ctx context.Context, id, entityID string, now time.Time) (mo.Option[Due], error) {
	def, err := s.GetSchedule(ctx, id)
	if err != nil {
		return mo.None[Due](), err
	}
	return s.pendingFor(ctx, def, entityID, now)
}

// pendingFor finds the entity's oldest unfulfilled occurrence at or before now.
// Until the entity completes once, the due date itself is owed when it is an
// occurrence. A one-off schedule is owed once, at its due date. An entity with
// neither a completion nor a due date owes nothing yet.
func (s *Service) pendingFor(ctx context.Context, def *domain.ScheduleDefinition, entityID string, now time.Time) (mo.Option[Due], error) {
	a := def.Assignment(entityID)
	due := Due{ScheduleID: def.ID, Name: def.Name, EntityID: entityID}

	if def.Frequency.Kind == domain.FrequencyNone {
		if a.LastCompleted != nil || def.DueDate.IsZero() || def.DueDate.After(now) {
			return mo.None[Due](), nil
		}
		due.At = def.DueDate
		return mo.Some(due), nil
	}

	since := lastHandled(def, entityID)
	if since.IsZero() {
		return mo.None[Due](), nil
	}

	if a.LastCompleted == nil {
		since = since.Add(-time.Nanosecond)
	}

	cfg := configFor(def, entityID)
	next, err := s.engine.NextOccurrence(cfg, since)
	s.countEvaluation(ctx, cfg, err)
	if err != nil {
		return mo.None[Due](), fmt.Errorf("schedule %s: %w", def.ID, err)
	}

	at, ok := next.Get()
	if !ok || at.After(now) {
		return mo.None[Due](), nil
	}
	due.At = at
	return mo.Some(due), nil
}

// DueNow evaluates every schedule and assignment and returns what is due at now.
// Schedules without assignments are evaluated once with an empty entity ID.
// Definitions that fail to load or evaluate are logged and skipped.
func (s *Service) DueNow(ctx context.Context, now time.Time) ([]Due, error) {
	ctx, span := s.tracer.Start(ctx, "schedule.DueNow")
	defer span.End()

	defs, err := s.repo.ListSchedules(ctx)
	if err != nil {
		if len(defs) == 0 {
			return nil, recordError(span, fmt.Errorf("failed to list schedules: %w", err))
		}
		slog.WarnContext(ctx, "some schedules could not be loaded", slog.String("error", err.Error()))
	}

	due := make([]Due, 0)
	for _, def := range defs {
		entities := []string{""}
		if len(def.Assignments) > 0 {
			entities = entities[:0]
			for _, a := range def.Assignments {
				entities = append(entities, a.EntityID)
			}
		}

		for _, entityID := range entities {
			d, err := s.pendingFor(ctx, def, entityID, now)
			if err != nil {
				slog.WarnContext(ctx, "schedule evaluation failed",
					slog.String("schedule_id", def.ID),
					slog.String("entity_id", entityID),
					slog.String("error", err.Error()))
				continue
			}
			if v, ok := d.Get(); ok {
				due = append(due, v)
			}
		}
	}

	span.SetAttributes(attribute.Int("due", len(due)))
	return due, nil
}

// Complete records that entityID fulfilled the schedule at at.
// custom_from_completion schedules restart their interval from at; every other
// kind keeps its grid and only moves the entity's progress marker.
func (s *Service) Complete(ctx context.Context, id, entityID string, at time.Time) (*domain.ScheduleDefinition, error) {
	ctx, span := s.startSpan(ctx, "schedule.Complete", id, entityID)
	defer span.End()

	if entityID == "" {
		return nil, recordError(span, domain.ErrEntityIDRequired)
	}

	def, err := s.GetSchedule(ctx, id)
	if err != nil {
		return nil, recordError(span, err)
	}

	updated := def.Clone()
	updated.RecordCompletion(entityID, at)

	saved, err := s.repo.UpdateSchedule(ctx, &updated)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("failed to record completion: %w", err))
	}

	s.completions.Add(ctx, 1, metric.WithAttributes(attribute.String("frequency", string(def.Frequency.Kind))))
	slog.InfoContext(ctx, "completion recorded",
		slog.String("schedule_id", id),
		slog.String("entity_id", entityID),
		slog.Time("at", at))
	return saved, nil
}

// Export writes the given schedules (all of them when ids is empty) as an
// iCalendar stream. Each definition is exported without per-entity overrides.
// Schedules without a due date start at stamp.
func (s *Service) Export(ctx context.Context, w io.Writer, stamp time.Time, ids ...string) error {
	ctx, span := s.tracer.Start(ctx, "schedule.Export")
	defer span.End()

	var defs []*domain.ScheduleDefinition
	if len(ids) == 0 {
		all, err := s.repo.ListSchedules(ctx)
		if err != nil {
			return recordError(span, fmt.Errorf("failed to list schedules: %w", err))
		}
		defs = all
	} else {
		for _, id := range ids {
			def, err := s.GetSchedule(ctx, id)
			if err != nil {
				return recordError(span, err)
			}
			defs = append(defs, def)
		}
	}

	entries := make([]calendar.Entry, 0, len(defs))
	for _, def := range defs {
		entries = append(entries, calendar.Entry{
			UID:         def.ID,
			Summary:     def.Name,
			Description: def.Description,
			Config:      def.ConfigFor(def.DueDate, domain.Override{}),
			Start:       stamp,
		})
	}

	if err := calendar.Export(w, entries, stamp); err != nil {
		return recordError(span, err)
	}
	span.SetAttributes(attribute.Int("schedules", len(entries)))
	return nil
}

// Import creates a schedule for every VEVENT that maps to one. Schedule IDs are
// derived from the event UID, so re-importing a file skips events imported before
// with domain.ErrScheduleExists. Floating start times are read in loc.
func (s *Service) Import(ctx context.Context, r io.Reader, loc *time.Location) (*ImportReport, error) {
	ctx, span := s.tracer.Start(ctx, "schedule.Import")
	defer span.End()

	result, err := calendar.Import(r, loc)
	if err != nil {
		return nil, recordError(span, err)
	}

	report := &ImportReport{Skipped: result.Skipped}
	for _, imp := range result.Schedules {
		def := definitionFromImport(imp)
		created, err := s.repo.CreateSchedule(ctx, &def)
		if err != nil {
			report.Skipped = append(report.Skipped, calendar.Skipped{UID: imp.UID, Err: err})
			continue
		}
		report.Created = append(report.Created, created)
	}

	for _, sk := range report.Skipped {
		slog.WarnContext(ctx, "event not imported",
			slog.String("uid", sk.UID),
			slog.String("error", sk.Err.Error()))
	}
	span.SetAttributes(
		attribute.Int("created", len(report.Created)),
		attribute.Int("skipped", len(report.Skipped)))
	return report, nil
}

func definitionFromImport(imp calendar.Imported) domain.ScheduleDefinition {
	id := uuid.NewSHA1(importNamespace, []byte(imp.UID)).String()
	if imp.UID == "" {
		id = uuid.NewString()
	}
	name := imp.Summary
	if name == "" {
		name = imp.UID
	}
	if name == "" {
		name = imp.Config.Frequency.String()
	}
	return domain.ScheduleDefinition{
		ID:          id,
		Name:        name,
		Description: imp.Description,
		Frequency:   imp.Config.Frequency,
		Weekdays:    imp.Config.ApplicableWeekdays,
		DailySlots:  imp.Config.DailySlots,
		DueDate:     imp.Config.BaseDate,
	}
}

// configFor builds the entity's own config: its override applied to a copy of
// the shared definition, anchored at its base date.
func configFor(def *domain.ScheduleDefinition, entityID string) domain.ScheduleConfig {
	a := def.Assignment(entityID)
	return def.ConfigFor(def.BaseFor(a), a.Override)
}

// lastHandled is the point after which the entity still owes an occurrence.
func lastHandled(def *domain.ScheduleDefinition, entityID string) time.Time {
	return ptr.Deref(def.Assignment(entityID).LastCompleted, def.DueDate)
}

func (s *Service) startSpan(ctx context.Context, name, id, entityID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("schedule_id", id),
		attribute.String("entity_id", entityID)))
}

func (s *Service) countEvaluation(ctx context.Context, cfg domain.ScheduleConfig, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.evaluations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("frequency", string(cfg.Frequency.Kind)),
		attribute.String("outcome", outcome)))
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
