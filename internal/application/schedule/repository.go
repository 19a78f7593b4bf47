package schedule

import (
	"context"

	"github.com/rezkam/recur/internal/domain"
)

// Repository defines storage operations for schedule definitions.
// All create/update operations return the definition as persisted.
type Repository interface {
	// CreateSchedule stores a new definition.
	// Returns domain.ErrScheduleExists if the ID is taken.
	CreateSchedule(ctx context.Context, def *domain.ScheduleDefinition) (*domain.ScheduleDefinition, error)

	// FindScheduleByID retrieves a definition by its ID.
	// Returns domain.ErrScheduleNotFound if it doesn't exist.
	FindScheduleByID(ctx context.Context, id string) (*domain.ScheduleDefinition, error)

	// UpdateSchedule replaces a stored definition.
	// Returns domain.ErrScheduleNotFound if it doesn't exist.
	UpdateSchedule(ctx context.Context, def *domain.ScheduleDefinition) (*domain.ScheduleDefinition, error)

	// ListSchedules returns every definition ordered by ID.
	ListSchedules(ctx context.Context) ([]*domain.ScheduleDefinition, error)
}
