package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/recur/internal/application/schedule"
	"github.com/rezkam/recur/internal/domain"
	"github.com/rezkam/recur/internal/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefinition(name string) *domain.ScheduleDefinition {
	id, _ := uuid.NewV7()
	return &domain.ScheduleDefinition{
		ID:         id.String(),
		Name:       name,
		Frequency:  domain.Custom(3, domain.UnitDays),
		Weekdays:   domain.Weekdays(0).With(0).With(3),
		DailySlots: nil,
		DueDate:    time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC),
	}
}

// RunRepositoryComplianceTest runs a standard set of tests against a Repository implementation.
// setup is a function that returns a fresh (clean) Repository instance for the test
// and a cleanup function called after the test.
func RunRepositoryComplianceTest(t *testing.T, setup func() (schedule.Repository, func())) {
	t.Run("CreateAndFindSchedule", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()
		ctx := context.Background()

		def := newDefinition("Water the plants")
		def.Description = "Kitchen and balcony"

		created, err := repo.CreateSchedule(ctx, def)
		require.NoError(t, err)
		assert.Equal(t, def.ID, created.ID)

		fetched, err := repo.FindScheduleByID(ctx, def.ID)
		require.NoError(t, err)
		assert.Equal(t, def.Name, fetched.Name)
		assert.Equal(t, def.Description, fetched.Description)
		assert.Equal(t, def.Frequency, fetched.Frequency)
		assert.Equal(t, def.Weekdays, fetched.Weekdays)
		assert.True(t, def.DueDate.Equal(fetched.DueDate))
		assert.Empty(t, fetched.Assignments)
	})

	t.Run("CreateDuplicateSchedule", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()
		ctx := context.Background()

		def := newDefinition("Duplicate")
		_, err := repo.CreateSchedule(ctx, def)
		require.NoError(t, err)

		_, err = repo.CreateSchedule(ctx, def)
		assert.ErrorIs(t, err, domain.ErrScheduleExists)
	})

	t.Run("CreateInvalidSchedule", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()
		ctx := context.Background()

		def := newDefinition("Invalid")
		def.Frequency = domain.DailyMulti()

		_, err := repo.CreateSchedule(ctx, def)
		assert.ErrorIs(t, err, domain.ErrNoDailySlots)

		_, err = repo.FindScheduleByID(ctx, def.ID)
		assert.ErrorIs(t, err, domain.ErrScheduleNotFound)
	})

	t.Run("UpdateSchedule", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()
		ctx := context.Background()

		def := newDefinition("Medication")
		_, err := repo.CreateSchedule(ctx, def)
		require.NoError(t, err)

		def.Frequency = domain.DailyMulti()
		def.DailySlots = []domain.ClockTime{{Hour: 8}, {Hour: 20}}
		def.Assignments = []domain.Assignment{
			{EntityID: "alice", LastCompleted: ptr.To(time.Date(2025, 2, 1, 8, 5, 0, 0, time.UTC))},
			{EntityID: "bob", Override: domain.Override{Weekdays: ptr.To(domain.Weekdays(0).With(5).With(6))}},
			{EntityID: "carol", Override: domain.Override{Weekdays: ptr.To(domain.Weekdays(0))}},
		}

		_, err = repo.UpdateSchedule(ctx, def)
		require.NoError(t, err)

		fetched, err := repo.FindScheduleByID(ctx, def.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.DailyMulti(), fetched.Frequency)
		assert.Equal(t, def.DailySlots, fetched.DailySlots)
		require.Len(t, fetched.Assignments, 3)

		alice := fetched.Assignment("alice")
		require.NotNil(t, alice.LastCompleted)
		assert.True(t, def.Assignments[0].LastCompleted.Equal(*alice.LastCompleted))
		assert.Nil(t, alice.Override.Weekdays)

		bob := fetched.Assignment("bob")
		require.NotNil(t, bob.Override.Weekdays)
		assert.Equal(t, []int{5, 6}, bob.Override.Weekdays.Indices())

		// An empty override lifts the definition's restriction; it is not "inherit".
		carol := fetched.Assignment("carol")
		require.NotNil(t, carol.Override.Weekdays)
		assert.True(t, carol.Override.Weekdays.Empty())
		assert.True(t, fetched.ConfigFor(fetched.DueDate, carol.Override).ApplicableWeekdays.Empty())
		assert.False(t, fetched.ConfigFor(fetched.DueDate, alice.Override).ApplicableWeekdays.Empty())
	})

	t.Run("UpdateNonExistentSchedule", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()

		_, err := repo.UpdateSchedule(context.Background(), newDefinition("Ghost"))
		assert.ErrorIs(t, err, domain.ErrScheduleNotFound)
	})

	t.Run("ListSchedules", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()
		ctx := context.Background()

		first := newDefinition("First")
		second := newDefinition("Second")
		// Insert out of order; the listing is ordered by ID.
		_, err := repo.CreateSchedule(ctx, second)
		require.NoError(t, err)
		_, err = repo.CreateSchedule(ctx, first)
		require.NoError(t, err)

		defs, err := repo.ListSchedules(ctx)
		require.NoError(t, err)
		require.Len(t, defs, 2)
		assert.Less(t, defs[0].ID, defs[1].ID)

		ids := map[string]bool{}
		for _, d := range defs {
			ids[d.ID] = true
		}
		assert.True(t, ids[first.ID])
		assert.True(t, ids[second.ID])
	})

	t.Run("ListEmpty", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()

		defs, err := repo.ListSchedules(context.Background())
		require.NoError(t, err)
		assert.Empty(t, defs)
	})

	t.Run("FindNonExistentSchedule", func(t *testing.T) {
		repo, teardown := setup()
		defer teardown()

		_, err := repo.FindScheduleByID(context.Background(), "non-existent-id")
		assert.ErrorIs(t, err, domain.ErrScheduleNotFound)
	})
}
