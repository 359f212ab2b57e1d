package domain_test

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

func ptr[T any](v T) *T {
	return &v
}

func TestUnmarshalRecurrence(t *testing.T) {
	tests := []struct {
		name string
		json string
		want domain.Recurrence
	}{
		{
			name: "Simple weekly",
			json: `{"type":"simple","frequency":"weekly"}`,
			want: domain.SimpleRecurrence{Frequency: domain.FrequencyWeekly},
		},
		{
			name: "Simple without frequency defaults to daily",
			json: `{"type":"simple"}`,
			want: domain.SimpleRecurrence{Frequency: domain.FrequencyDaily},
		},
		{
			name: "Custom weekly normalizes days",
			json: `{"type":"custom_weekly","times_per_week":2,"specific_days":[5,1,1,9]}`,
			want: domain.CustomWeekly{TimesPerWeek: 2, SpecificDays: []time.Weekday{time.Monday, time.Friday}},
		},
		{
			name: "Limited with both caps and modifiers",
			json: `{"type":"limited","max_occurrences":10,"end_after_days":30,"skip_weekends":true}`,
			want: domain.AdvancedPattern{
				Cycle:        domain.LimitedCycle{MaxOccurrences: ptr(10), EndAfterDays: ptr(30)},
				SkipWeekends: true,
			},
		},
		{
			name: "Alternating",
			json: `{"type":"alternating","active_days":2,"rest_days":1,"skip_holidays":true}`,
			want: domain.AdvancedPattern{
				Cycle:        domain.AlternatingCycle{ActiveDays: 2, RestDays: 1},
				SkipHolidays: true,
			},
		},
		{
			name: "Custom cycle",
			json: `{"type":"custom_cycle","pattern":[false,true,false,true,false,true,false],"repeat_every_weeks":2}`,
			want: domain.AdvancedPattern{Cycle: domain.CustomCycle{
				Pattern:          [7]bool{false, true, false, true, false, true, false},
				RepeatEveryWeeks: 2,
			}},
		},
		{
			name: "Custom cycle with a short mask is kept as unknown",
			json: `{"type":"custom_cycle","pattern":[true,true]}`,
			want: domain.UnknownRecurrence{Type: "custom_cycle"},
		},
		{
			name: "Task recurrence defaults to enabled",
			json: `{"type":"task","frequency":"monthly","interval":2,"day_of_month":15,"end_date":"2024-12-31"}`,
			want: domain.TaskRecurrence{
				Enabled:    true,
				Frequency:  domain.FrequencyMonthly,
				Interval:   2,
				DayOfMonth: 15,
				EndDate:    &civil.Date{Year: 2024, Month: 12, Day: 31},
			},
		},
		{
			name: "Unknown tag",
			json: `{"type":"lunar"}`,
			want: domain.UnknownRecurrence{Type: "lunar"},
		},
		{
			name: "Null",
			json: `null`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.UnmarshalRecurrence([]byte(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnmarshalRecurrence_Errors(t *testing.T) {
	t.Run("Malformed end date is a ParseError", func(t *testing.T) {
		_, err := domain.UnmarshalRecurrence([]byte(`{"type":"task","end_date":"31/12/2024"}`))

		var parseErr *domain.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, "end_date", parseErr.Field)
		assert.Equal(t, "31/12/2024", parseErr.Input)
	})

	t.Run("Missing type", func(t *testing.T) {
		_, err := domain.UnmarshalRecurrence([]byte(`{"frequency":"daily"}`))
		assert.ErrorIs(t, err, domain.ErrRecurrenceMissingType)
	})
}

func TestMarshalRecurrence_KeepsVariant(t *testing.T) {
	original := domain.AdvancedPattern{
		Cycle:        domain.AlternatingCycle{ActiveDays: 3, RestDays: 0},
		SkipWeekends: true,
	}

	data, err := domain.MarshalRecurrence(original)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"alternating","active_days":3,"rest_days":0,"skip_weekends":true}`, string(data))

	decoded, err := domain.UnmarshalRecurrence(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestSchedule_Scan(t *testing.T) {
	var s domain.Schedule

	require.NoError(t, s.Scan([]byte(`{"type":"unlimited"}`)))
	assert.Equal(t, domain.AdvancedPattern{Cycle: domain.UnlimitedCycle{}}, s.Recurrence)

	require.NoError(t, s.Scan(nil))
	assert.False(t, s.IsSet())

	assert.Error(t, s.Scan(42))
}

func TestValidateRecurrence(t *testing.T) {
	assert.NoError(t, domain.ValidateRecurrence(nil))
	assert.NoError(t, domain.ValidateRecurrence(domain.SimpleRecurrence{Frequency: domain.FrequencyDaily}))
	assert.NoError(t, domain.ValidateRecurrence(domain.AdvancedPattern{Cycle: domain.AlternatingCycle{ActiveDays: 3, RestDays: 0}}))

	for _, c := range []domain.AlternatingCycle{
		{},
		{ActiveDays: 0, RestDays: 2},
		{ActiveDays: -1, RestDays: 4},
		{ActiveDays: 2, RestDays: -1},
	} {
		err := domain.ValidateRecurrence(domain.AdvancedPattern{Cycle: c})
		assert.ErrorIs(t, err, domain.ErrInvalidPattern, "%+v", c)
	}
}
