package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/engine"
)

func ids(entries []engine.AgendaEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Item.ID
	}
	return out
}

func TestSelectForDate(t *testing.T) {
	target := mustDate("2024-01-10")
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	at := func(minutes int) time.Time { return created.Add(time.Duration(minutes) * time.Minute) }

	items := []domain.AgendaItem{
		{
			Kind: domain.ItemHabit, ID: "daily-habit",
			Recurrence: domain.SimpleRecurrence{Frequency: domain.FrequencyDaily},
			Anchor:     mustDate("2024-01-01"), ActiveFrom: ptr(mustDate("2024-01-01")),
			CreatedAt: at(0),
		},
		{
			Kind: domain.ItemHabit, ID: "rest-day-habit",
			Recurrence: domain.AdvancedPattern{Cycle: domain.AlternatingCycle{ActiveDays: 1, RestDays: 1}},
			Anchor:     mustDate("2024-01-01"),
			CreatedAt:  at(1),
		},
		{
			Kind: domain.ItemHabit, ID: "not-started",
			Recurrence: domain.SimpleRecurrence{Frequency: domain.FrequencyDaily},
			Anchor:     mustDate("2024-02-01"), ActiveFrom: ptr(mustDate("2024-02-01")),
			CreatedAt: at(2),
		},
		{
			Kind: domain.ItemHabit, ID: "ended",
			Recurrence: domain.SimpleRecurrence{Frequency: domain.FrequencyDaily},
			Anchor:     mustDate("2023-12-01"), ActiveUntil: ptr(mustDate("2024-01-09")),
			CreatedAt: at(3),
		},
		{
			Kind: domain.ItemTask, ID: "due-today-low", Priority: domain.PriorityLow,
			NominalDate: ptr(target), DueDate: ptr(target),
			CreatedAt: at(4),
		},
		{
			Kind: domain.ItemTask, ID: "overdue-medium", Priority: domain.PriorityMedium,
			NominalDate: ptr(mustDate("2024-01-05")), DueDate: ptr(mustDate("2024-01-05")),
			CreatedAt: at(5),
		},
		{
			Kind: domain.ItemTask, ID: "overdue-done", Priority: domain.PriorityUrgent,
			NominalDate: ptr(mustDate("2024-01-05")), DueDate: ptr(mustDate("2024-01-05")),
			Completed: true, CreatedAt: at(6),
		},
		{
			Kind: domain.ItemTask, ID: "overdue-urgent", Priority: domain.PriorityUrgent,
			NominalDate: ptr(mustDate("2024-01-08")), DueDate: ptr(mustDate("2024-01-08")),
			CreatedAt: at(7),
		},
		{
			Kind: domain.ItemTask, ID: "future", Priority: domain.PriorityUrgent,
			NominalDate: ptr(mustDate("2024-01-20")), DueDate: ptr(mustDate("2024-01-20")),
			CreatedAt: at(8),
		},
		{
			Kind: domain.ItemTask, ID: "undated-high", Priority: domain.PriorityHigh,
			CreatedAt: at(9),
		},
		{
			Kind: domain.ItemTask, ID: "undated-low", Priority: domain.PriorityLow,
			CreatedAt: at(10),
		},
		{
			Kind: domain.ItemTask, ID: "recurring-task", Priority: domain.PriorityMedium,
			Recurrence: domain.TaskRecurrence{Enabled: true, Frequency: domain.FrequencyDaily, Interval: 3},
			Anchor:     mustDate("2024-01-01"), NominalDate: ptr(mustDate("2024-01-01")), DueDate: ptr(mustDate("2024-01-01")),
			CreatedAt: at(11),
		},
	}

	got := engine.SelectForDate(items, target, engine.DefaultAgendaPolicy())

	assert.Equal(t, []string{
		"overdue-urgent",
		"overdue-medium",
		"undated-high",
		"recurring-task",
		"due-today-low",
		"daily-habit",
	}, ids(got))

	byID := map[string]engine.AgendaEntry{}
	for _, e := range got {
		byID[e.Item.ID] = e
	}
	assert.True(t, byID["overdue-urgent"].Overdue)
	assert.Equal(t, engine.ReasonOverdue, byID["overdue-urgent"].Reason)
	assert.Equal(t, engine.ReasonPriority, byID["undated-high"].Reason)
	assert.Equal(t, engine.ReasonDue, byID["daily-habit"].Reason)
	assert.False(t, byID["recurring-task"].Overdue, "recurring tasks never carry forward")
}

func TestSelectForDate_StableOnTies(t *testing.T) {
	target := mustDate("2024-01-10")
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	var items []domain.AgendaItem
	for _, id := range []string{"a", "b", "c", "d"} {
		items = append(items, domain.AgendaItem{
			Kind: domain.ItemTask, ID: id, Priority: domain.PriorityMedium,
			NominalDate: ptr(target), DueDate: ptr(target), CreatedAt: created,
		})
	}

	got := engine.SelectForDate(items, target, engine.DefaultAgendaPolicy())

	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(got))
}

func TestSelectForDate_PriorityThreshold(t *testing.T) {
	target := mustDate("2024-01-10")
	items := []domain.AgendaItem{
		{Kind: domain.ItemTask, ID: "low", Priority: domain.PriorityLow},
		{Kind: domain.ItemTask, ID: "none", Priority: domain.PriorityNone},
		{Kind: domain.ItemTask, ID: "done-urgent", Priority: domain.PriorityUrgent, Completed: true},
	}

	assert.Empty(t, engine.SelectForDate(items, target, engine.DefaultAgendaPolicy()))

	policy := engine.AgendaPolicy{PriorityThreshold: domain.PriorityLow}
	assert.Equal(t, []string{"low"}, ids(engine.SelectForDate(items, target, policy)))
}

func TestSelectForDate_InvalidPatternFallsBackToNominalDate(t *testing.T) {
	start := mustDate("2024-01-01")
	item := domain.AgendaItem{
		Kind: domain.ItemHabit, ID: "broken",
		Recurrence:  domain.AdvancedPattern{Cycle: domain.AlternatingCycle{}},
		Anchor:      start,
		NominalDate: ptr(start),
	}

	onStart := engine.SelectForDate([]domain.AgendaItem{item}, start, engine.DefaultAgendaPolicy())
	require.Len(t, onStart, 1)
	assert.True(t, onStart[0].Fallback)

	assert.Empty(t, engine.SelectForDate([]domain.AgendaItem{item}, start.AddDays(1), engine.DefaultAgendaPolicy()))
}

func TestSelectForDate_DisabledTaskRecurrence(t *testing.T) {
	due := mustDate("2024-01-05")
	item := domain.AgendaItem{
		Kind: domain.ItemTask, ID: "one-off",
		Recurrence:  domain.TaskRecurrence{Enabled: false, Frequency: domain.FrequencyDaily},
		Anchor:      mustDate("2024-01-01"),
		NominalDate: ptr(due), DueDate: ptr(due),
	}

	onDue := engine.SelectForDate([]domain.AgendaItem{item}, due, engine.DefaultAgendaPolicy())
	require.Len(t, onDue, 1)
	assert.False(t, onDue[0].Overdue)

	later := engine.SelectForDate([]domain.AgendaItem{item}, due.AddDays(2), engine.DefaultAgendaPolicy())
	require.Len(t, later, 1)
	assert.True(t, later[0].Overdue)
}

func TestSelectForDate_Holidays(t *testing.T) {
	holiday := mustDate("2024-01-10")
	item := domain.AgendaItem{
		Kind: domain.ItemHabit, ID: "workday",
		Recurrence: domain.AdvancedPattern{Cycle: domain.UnlimitedCycle{}, SkipHolidays: true},
		Anchor:     mustDate("2024-01-01"),
	}
	policy := engine.DefaultAgendaPolicy()
	policy.Holidays = domain.NewHolidaySet(holiday)

	assert.Empty(t, engine.SelectForDate([]domain.AgendaItem{item}, holiday, policy))
	assert.Len(t, engine.SelectForDate([]domain.AgendaItem{item}, holiday.AddDays(1), policy), 1)
}
