package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

func setupCompletions(t *testing.T) (*MockRepo, *MockCompletionRepo, *services.CompletionService, *domain.Habit) {
	t.Helper()

	habits := NewMockRepo()
	records := NewMockCompletionRepo()
	svc := services.NewCompletionService(records, habits, nil, 30, fixedClock("2024-03-10"))

	h, err := domain.NewHabit("Meditate", "user-1")
	require.NoError(t, err)
	h.StartDate = date("2024-01-01")
	require.NoError(t, habits.Create(context.Background(), h))

	return habits, records, svc, h
}

func TestCompletionService_Toggle(t *testing.T) {
	ctx := context.Background()

	t.Run("Flip: missing record becomes completed, then not completed", func(t *testing.T) {
		habits, records, svc, h := setupCompletions(t)

		first, err := svc.Toggle(ctx, services.ToggleInput{HabitID: h.ID, UserID: "user-1", Date: date("2024-03-10")})
		require.NoError(t, err)
		assert.True(t, first.Record.Completed)
		assert.True(t, first.NewlyCompleted)
		assert.Equal(t, 1, first.Record.Version)
		assert.NotEmpty(t, first.Record.ID)
		assert.Equal(t, 1, first.Streak.Current)
		assert.Equal(t, 1, first.Stats.TotalCompletions)

		second, err := svc.Toggle(ctx, services.ToggleInput{HabitID: h.ID, UserID: "user-1", Date: date("2024-03-10")})
		require.NoError(t, err)
		assert.False(t, second.Record.Completed)
		assert.False(t, second.NewlyCompleted)
		assert.Equal(t, first.Record.ID, second.Record.ID)
		assert.Equal(t, 2, second.Record.Version)
		assert.Equal(t, 0, second.Streak.Current)

		assert.Equal(t, 1, records.count())
		assert.Equal(t, 0, habits.stored(h.ID).Streak.Current)
	})

	t.Run("Explicit state: completing twice is not newly completed", func(t *testing.T) {
		_, _, svc, h := setupCompletions(t)
		in := services.ToggleInput{HabitID: h.ID, UserID: "user-1", Date: date("2024-03-09"), Completed: ptr(true)}

		first, err := svc.Toggle(ctx, in)
		require.NoError(t, err)
		assert.True(t, first.NewlyCompleted)

		second, err := svc.Toggle(ctx, in)
		require.NoError(t, err)
		assert.True(t, second.Record.Completed)
		assert.False(t, second.NewlyCompleted)
	})

	t.Run("Not-done marker then completion counts as newly completed", func(t *testing.T) {
		_, _, svc, h := setupCompletions(t)
		d := date("2024-03-08")

		res, err := svc.Toggle(ctx, services.ToggleInput{HabitID: h.ID, UserID: "user-1", Date: d, Completed: ptr(false)})
		require.NoError(t, err)
		assert.False(t, res.Record.Completed)
		assert.False(t, res.NewlyCompleted)

		res, err = svc.Toggle(ctx, services.ToggleInput{HabitID: h.ID, UserID: "user-1", Date: d})
		require.NoError(t, err)
		assert.True(t, res.Record.Completed)
		assert.True(t, res.NewlyCompleted)
	})

	t.Run("Streak and cached progress follow the history", func(t *testing.T) {
		habits, _, svc, h := setupCompletions(t)

		var last *services.ToggleResult
		for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-08", "2024-03-09", "2024-03-10"} {
			var err error
			last, err = svc.Toggle(ctx, services.ToggleInput{HabitID: h.ID, UserID: "user-1", Date: date(d), Value: ptr(10.0), Notes: ptr("ok")})
			require.NoError(t, err)
		}

		assert.Equal(t, 3, last.Streak.Current)
		assert.Equal(t, 3, last.Streak.Best)
		assert.Equal(t, date("2024-03-10"), *last.Streak.LastCompletionDate)
		assert.Equal(t, 5, last.Stats.TotalCompletions)
		assert.Equal(t, 10.0, *last.Record.Value)
		assert.Equal(t, "ok", last.Record.Notes)

		stored := habits.stored(h.ID)
		assert.Equal(t, last.Streak, stored.Streak)
		assert.Equal(t, last.Stats, stored.Stats)
	})

	t.Run("Fail: another user's habit", func(t *testing.T) {
		_, records, svc, h := setupCompletions(t)

		_, err := svc.Toggle(ctx, services.ToggleInput{HabitID: h.ID, UserID: "user-2", Date: date("2024-03-10")})

		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Equal(t, 0, records.count())
	})

	t.Run("Fail: invalid input never reaches storage", func(t *testing.T) {
		_, records, svc, h := setupCompletions(t)

		_, err := svc.Toggle(ctx, services.ToggleInput{HabitID: h.ID, UserID: "user-1"})
		assert.ErrorIs(t, err, domain.ErrCompletionDate)

		_, err = svc.Toggle(ctx, services.ToggleInput{HabitID: h.ID, UserID: "user-1", Date: date("2024-03-10"), Value: ptr(-1.0)})
		assert.ErrorIs(t, err, domain.ErrCompletionNegativeVal)

		assert.Equal(t, 0, records.upserts)
	})

	t.Run("Fail: unknown habit", func(t *testing.T) {
		_, _, svc, _ := setupCompletions(t)

		_, err := svc.Toggle(ctx, services.ToggleInput{HabitID: "nope", UserID: "user-1", Date: date("2024-03-10")})

		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
	})

	t.Run("Progress write failure does not fail the toggle", func(t *testing.T) {
		habitRepo := new(MockHabitRepo)
		records := NewMockCompletionRepo()
		svc := services.NewCompletionService(records, habitRepo, nil, 30, fixedClock("2024-03-10"))

		h := &domain.Habit{ID: "h1", UserID: "user-1", StartDate: date("2024-03-01")}
		habitRepo.On("GetByID", mock.Anything, "h1").Return(h, nil)
		habitRepo.On("UpdateProgress", mock.Anything, "h1", mock.Anything, mock.Anything).Return(errors.New("db down"))

		res, err := svc.Toggle(ctx, services.ToggleInput{HabitID: "h1", UserID: "user-1", Date: date("2024-03-10")})

		require.NoError(t, err)
		assert.True(t, res.Record.Completed)
		habitRepo.AssertExpectations(t)
	})
}

func TestCompletionService_ConcurrentToggles(t *testing.T) {
	habits, records, svc, h := setupCompletions(t)
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := date("2024-01-01").AddDays(i)
			_, err := svc.Toggle(ctx, services.ToggleInput{HabitID: h.ID, UserID: "user-1", Date: d, Completed: ptr(true)})
			if err != nil {
				errs <- fmt.Errorf("toggle %s: %w", d, err)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	assert.Equal(t, n, records.count())
	assert.Equal(t, n, habits.stored(h.ID).Stats.TotalCompletions)
	assert.Equal(t, n, habits.stored(h.ID).Streak.Best)
}

func TestCompletionService_ListByHabitID(t *testing.T) {
	_, _, svc, h := setupCompletions(t)
	ctx := context.Background()

	for _, d := range []string{"2024-03-01", "2024-03-05", "2024-03-09"} {
		_, err := svc.Toggle(ctx, services.ToggleInput{HabitID: h.ID, UserID: "user-1", Date: date(d)})
		require.NoError(t, err)
	}

	got, err := svc.ListByHabitID(ctx, h.ID, "user-1", date("2024-03-02"), date("2024-03-09"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, date("2024-03-05"), got[0].Date)
	assert.Equal(t, date("2024-03-09"), got[1].Date)

	_, err = svc.ListByHabitID(ctx, h.ID, "user-2", date("2024-03-01"), date("2024-03-09"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
