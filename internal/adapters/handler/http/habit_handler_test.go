package http_test

import (
	"net/http"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

func TestHabitHandler_Create(t *testing.T) {
	t.Run("Success: 201 with recurrence", func(t *testing.T) {
		api := newTestAPI(t)

		habit := api.createHabit(t, "user-1", map[string]any{
			"title": "Gym",
			"type":  "boolean",
			"recurrence": map[string]any{
				"type":          "custom_weekly",
				"specific_days": []int{1, 3, 5},
			},
			"start_date": "2024-03-04",
		})

		assert.NotEmpty(t, habit.ID)
		assert.Equal(t, "user-1", habit.UserID)
		assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 4}, habit.StartDate)
		assert.Equal(t, domain.CustomWeekly{SpecificDays: []time.Weekday{time.Monday, time.Wednesday, time.Friday}}, habit.Recurrence.Recurrence)
	})

	t.Run("Success: defaults to daily from today", func(t *testing.T) {
		api := newTestAPI(t)

		habit := api.createHabit(t, "user-1", map[string]any{"title": "Read"})

		assert.Equal(t, domain.DateOf(fixedNow), habit.StartDate)
		assert.Equal(t, domain.DefaultRecurrence(), habit.Recurrence.Recurrence)
	})

	t.Run("Success: retried create returns the stored habit", func(t *testing.T) {
		api := newTestAPI(t)
		body := map[string]any{"id": "7d7a4c8e-6a43-4c5c-9a4e-1f2b3c4d5e6f", "title": "Walk"}

		first := api.createHabit(t, "user-1", body)
		second := api.createHabit(t, "user-1", body)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.Version, second.Version)
	})

	tests := []struct {
		name    string
		body    any
		message string
	}{
		{"missing title", map[string]any{"type": "boolean"}, "Title"},
		{"malformed json", `{"title": `, ""},
		{"bad color", map[string]any{"title": "X", "color": "red"}, "invalid color"},
		{"bad start date", map[string]any{"title": "X", "start_date": "2024-02-30"}, "invalid start_date"},
		{"recurrence without type", map[string]any{"title": "X", "recurrence": map[string]any{"frequency": "daily"}}, "invalid recurrence"},
		{"quota out of range", map[string]any{"title": "X", "recurrence": map[string]any{"type": "custom_weekly", "times_per_week": 9}}, "invalid recurrence"},
		{"pattern of six days", map[string]any{"title": "X", "recurrence": map[string]any{"type": "custom_cycle", "pattern": []bool{true, false, true, false, true, false}}}, "invalid recurrence"},
		{"alternating without active days", map[string]any{"title": "X", "recurrence": map[string]any{"type": "alternating", "active_days": 0, "rest_days": 3}}, "invalid recurrence"},
		{"task recurrence on a habit", map[string]any{"title": "X", "recurrence": map[string]any{"type": "task", "frequency": "daily", "interval": 1}}, "task recurrence"},
	}

	for _, tt := range tests {
		t.Run("Fail: "+tt.name, func(t *testing.T) {
			api := newTestAPI(t)

			w := api.do(t, http.MethodPost, "/habits", "user-1", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}

	t.Run("Fail: 401 without user", func(t *testing.T) {
		api := newTestAPI(t)
		w := api.do(t, http.MethodPost, "/habits", "", map[string]any{"title": "X"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHabitHandler_ReadUpdateDelete(t *testing.T) {
	api := newTestAPI(t)
	habit := api.createHabit(t, "user-1", map[string]any{"title": "Meditate"})

	t.Run("Get own habit", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/habits/"+habit.ID, "user-1", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Another user's habit is not found", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/habits/"+habit.ID, "user-2", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("List is scoped to the user", func(t *testing.T) {
		api.createHabit(t, "user-2", map[string]any{"title": "Other"})

		w := api.do(t, http.MethodGet, "/habits", "user-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]domain.Habit](t, w), 1)
	})

	t.Run("Partial update replaces the recurrence", func(t *testing.T) {
		w := api.do(t, http.MethodPut, "/habits/"+habit.ID, "user-1", map[string]any{
			"title":      "Meditate daily",
			"version":    habit.Version,
			"recurrence": map[string]any{"type": "alternating", "active_days": 2, "rest_days": 1},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		updated := decode[domain.Habit](t, w)
		assert.Equal(t, "Meditate daily", updated.Title)
		assert.Equal(t, habit.Version+1, updated.Version)
		assert.Equal(t, domain.AdvancedPattern{Cycle: domain.AlternatingCycle{ActiveDays: 2, RestDays: 1}}, updated.Recurrence.Recurrence)
	})

	t.Run("Stale version is a conflict", func(t *testing.T) {
		w := api.do(t, http.MethodPut, "/habits/"+habit.ID, "user-1", map[string]any{
			"title":   "Late edit",
			"version": habit.Version,
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "version conflict")
	})

	t.Run("Archived habits cannot be reordered", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/habits/"+habit.ID+"/archive", "user-1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotNil(t, decode[domain.Habit](t, w).ArchivedAt)

		w = api.do(t, http.MethodPatch, "/habits/"+habit.ID+"/position", "user-1", map[string]any{"position": 3})
		assert.Equal(t, http.StatusConflict, w.Code)

		w = api.do(t, http.MethodPost, "/habits/"+habit.ID+"/restore", "user-1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = api.do(t, http.MethodPatch, "/habits/"+habit.ID+"/position", "user-1", map[string]any{"position": 3})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 3, decode[domain.Habit](t, w).SortOrder)
	})

	t.Run("Sync returns changes after the cursor", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/habits/sync?last_sync=yesterday", "user-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = api.do(t, http.MethodGet, "/habits/sync", "user-1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[struct {
			Changes []domain.Habit `json:"changes"`
		}](t, w)
		assert.Len(t, resp.Changes, 1)
	})

	t.Run("Delete", func(t *testing.T) {
		w := api.do(t, http.MethodDelete, "/habits/"+habit.ID, "user-2", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = api.do(t, http.MethodDelete, "/habits/"+habit.ID, "user-1", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = api.do(t, http.MethodGet, "/habits/"+habit.ID, "user-1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
