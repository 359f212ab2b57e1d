package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

var (
	ErrRecurrenceMissingType = errors.New("recurrence type is required")
)

type RecurrenceKind string

const (
	RecurrenceSimple       RecurrenceKind = "simple"
	RecurrenceCustomWeekly RecurrenceKind = "custom_weekly"
	RecurrenceLimited      RecurrenceKind = "limited"
	RecurrenceUnlimited    RecurrenceKind = "unlimited"
	RecurrenceAlternating  RecurrenceKind = "alternating"
	RecurrenceCustomCycle  RecurrenceKind = "custom_cycle"
	RecurrenceTask         RecurrenceKind = "task"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyCustom  Frequency = "custom"
)

// Recurrence is the schedule attached to a habit or task. Exactly one variant
// is active per entity; the set of variants is closed.
type Recurrence interface {
	Kind() RecurrenceKind
	isRecurrence()
}

// SimpleRecurrence repeats daily, or weekly/monthly on the anchor's weekday or
// day of month.
type SimpleRecurrence struct {
	Frequency Frequency
}

// CustomWeekly is a weekly quota. With SpecificDays set only those weekdays
// are due; otherwise the first TimesPerWeek weekdays of each week are.
type CustomWeekly struct {
	TimesPerWeek int
	SpecificDays []time.Weekday
}

// AdvancedPattern is a cycle measured from the anchor date, with optional
// weekend/holiday suppression applied after the cycle's own verdict.
type AdvancedPattern struct {
	Cycle        Cycle
	SkipWeekends bool
	SkipHolidays bool
}

// Cycle is the shape of an AdvancedPattern.
type Cycle interface {
	cycleKind() RecurrenceKind
}

// LimitedCycle is due every day until one of its caps is reached. A nil cap
// is not set.
type LimitedCycle struct {
	MaxOccurrences *int
	EndAfterDays   *int
}

type UnlimitedCycle struct{}

// AlternatingCycle is ActiveDays due days followed by RestDays off days.
type AlternatingCycle struct {
	ActiveDays int
	RestDays   int
}

// CustomCycle is a weekday mask (Sunday first) applied every
// RepeatEveryWeeks weeks from the anchor.
type CustomCycle struct {
	Pattern          [7]bool
	RepeatEveryWeeks int
}

// TaskRecurrence is the interval-based grammar used by tasks.
// DayOfMonth is zero when unset.
type TaskRecurrence struct {
	Enabled        bool
	Frequency      Frequency
	Interval       int
	DaysOfWeek     []time.Weekday
	DayOfMonth     int
	EndDate        *civil.Date
	MaxOccurrences *int
}

// UnknownRecurrence carries a tag this version does not understand. It is
// always due.
type UnknownRecurrence struct {
	Type string
}

func (SimpleRecurrence) Kind() RecurrenceKind { return RecurrenceSimple }
func (CustomWeekly) Kind() RecurrenceKind { return RecurrenceCustomWeekly }
func (TaskRecurrence) Kind() RecurrenceKind { return RecurrenceTask }
func (u UnknownRecurrence) Kind() RecurrenceKind { return RecurrenceKind(u.Type) }

func (p AdvancedPattern) Kind() RecurrenceKind {
	if p.Cycle == nil {
		return RecurrenceUnlimited
	}
	return p.Cycle.cycleKind()
}

func (SimpleRecurrence) isRecurrence() {}
func (CustomWeekly) isRecurrence() {}
func (AdvancedPattern) isRecurrence() {}
func (TaskRecurrence) isRecurrence() {}
func (UnknownRecurrence) isRecurrence() {}

func (LimitedCycle) cycleKind() RecurrenceKind { return RecurrenceLimited }
func (UnlimitedCycle) cycleKind() RecurrenceKind { return RecurrenceUnlimited }
func (AlternatingCycle) cycleKind() RecurrenceKind { return RecurrenceAlternating }
func (CustomCycle) cycleKind() RecurrenceKind { return RecurrenceCustomCycle }

// DefaultRecurrence is attached to habits created without a schedule.
func DefaultRecurrence() Recurrence {
	return SimpleRecurrence{Frequency: FrequencyDaily}
}

// RecurrenceSpec is the tagged wire form of a Recurrence, shared by the JSON
// API, the jsonb column and the CLI plan files.
type RecurrenceSpec struct {
	Type string `json:"type" yaml:"type" validate:"required"`

	Frequency string `json:"frequency,omitempty" yaml:"frequency,omitempty" validate:"omitempty,oneof=daily weekly monthly custom"`

	TimesPerWeek int   `json:"times_per_week,omitempty" yaml:"times_per_week,omitempty" validate:"omitempty,min=1,max=7"`
	SpecificDays []int `json:"specific_days,omitempty" yaml:"specific_days,omitempty" validate:"omitempty,dive,min=0,max=6"`

	MaxOccurrences   *int   `json:"max_occurrences,omitempty" yaml:"max_occurrences,omitempty" validate:"omitempty,min=1"`
	EndAfterDays     *int   `json:"end_after_days,omitempty" yaml:"end_after_days,omitempty" validate:"omitempty,min=1"`
	ActiveDays       *int   `json:"active_days,omitempty" yaml:"active_days,omitempty" validate:"omitempty,min=1"`
	RestDays         *int   `json:"rest_days,omitempty" yaml:"rest_days,omitempty" validate:"omitempty,min=0"`
	Pattern          []bool `json:"pattern,omitempty" yaml:"pattern,omitempty" validate:"omitempty,len=7"`
	RepeatEveryWeeks int    `json:"repeat_every_weeks,omitempty" yaml:"repeat_every_weeks,omitempty" validate:"omitempty,min=1"`
	SkipWeekends     bool   `json:"skip_weekends,omitempty" yaml:"skip_weekends,omitempty"`
	SkipHolidays     bool   `json:"skip_holidays,omitempty" yaml:"skip_holidays,omitempty"`

	Enabled    *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Interval   int    `json:"interval,omitempty" yaml:"interval,omitempty" validate:"omitempty,min=1"`
	DaysOfWeek []int  `json:"days_of_week,omitempty" yaml:"days_of_week,omitempty" validate:"omitempty,dive,min=0,max=6"`
	DayOfMonth int    `json:"day_of_month,omitempty" yaml:"day_of_month,omitempty" validate:"omitempty,min=1,max=31"`
	EndDate    string `json:"end_date,omitempty" yaml:"end_date,omitempty"`
}

// ToRecurrence converts the wire form into its variant. Unknown tags and
// partially specified variants decode to something that is due rather than
// failing; only a malformed end_date is an error.
func (s RecurrenceSpec) ToRecurrence() (Recurrence, error) {
	switch RecurrenceKind(s.Type) {
	case "":
		return nil, ErrRecurrenceMissingType
	case RecurrenceSimple:
		freq := Frequency(s.Frequency)
		if freq == "" {
			freq = FrequencyDaily
		}
		return SimpleRecurrence{Frequency: freq}, nil
	case RecurrenceCustomWeekly:
		return CustomWeekly{
			TimesPerWeek: s.TimesPerWeek,
			SpecificDays: toWeekdays(s.SpecificDays),
		}, nil
	case RecurrenceLimited:
		return s.advanced(LimitedCycle{MaxOccurrences: s.MaxOccurrences, EndAfterDays: s.EndAfterDays}), nil
	case RecurrenceUnlimited:
		return s.advanced(UnlimitedCycle{}), nil
	case RecurrenceAlternating:
		return s.advanced(AlternatingCycle{ActiveDays: deref(s.ActiveDays, 1), RestDays: deref(s.RestDays, 0)}), nil
	case RecurrenceCustomCycle:
		if len(s.Pattern) != 7 {
			return UnknownRecurrence{Type: s.Type}, nil
		}
		var mask [7]bool
		copy(mask[:], s.Pattern)
		return s.advanced(CustomCycle{Pattern: mask, RepeatEveryWeeks: s.RepeatEveryWeeks}), nil
	case RecurrenceTask:
		end, err := ParseOptionalDate("end_date", s.EndDate)
		if err != nil {
			return nil, err
		}
		freq := Frequency(s.Frequency)
		if freq == "" {
			freq = FrequencyDaily
		}
		return TaskRecurrence{
			Enabled:        deref(s.Enabled, true),
			Frequency:      freq,
			Interval:       s.Interval,
			DaysOfWeek:     toWeekdays(s.DaysOfWeek),
			DayOfMonth:     s.DayOfMonth,
			EndDate:        end,
			MaxOccurrences: s.MaxOccurrences,
		}, nil
	default:
		return UnknownRecurrence{Type: s.Type}, nil
	}
}

func (s RecurrenceSpec) advanced(c Cycle) AdvancedPattern {
	return AdvancedPattern{Cycle: c, SkipWeekends: s.SkipWeekends, SkipHolidays: s.SkipHolidays}
}

// SpecOf returns the wire form of r. A nil Recurrence yields the zero spec.
func SpecOf(r Recurrence) RecurrenceSpec {
	switch v := r.(type) {
	case SimpleRecurrence:
		return RecurrenceSpec{Type: string(RecurrenceSimple), Frequency: string(v.Frequency)}
	case CustomWeekly:
		return RecurrenceSpec{
			Type:         string(RecurrenceCustomWeekly),
			TimesPerWeek: v.TimesPerWeek,
			SpecificDays: fromWeekdays(v.SpecificDays),
		}
	case AdvancedPattern:
		spec := RecurrenceSpec{
			Type:         string(v.Kind()),
			SkipWeekends: v.SkipWeekends,
			SkipHolidays: v.SkipHolidays,
		}
		switch c := v.Cycle.(type) {
		case LimitedCycle:
			spec.MaxOccurrences = c.MaxOccurrences
			spec.EndAfterDays = c.EndAfterDays
		case AlternatingCycle:
			active, rest := c.ActiveDays, c.RestDays
			spec.ActiveDays = &active
			spec.RestDays = &rest
		case CustomCycle:
			spec.Pattern = append([]bool(nil), c.Pattern[:]...)
			spec.RepeatEveryWeeks = c.RepeatEveryWeeks
		}
		return spec
	case TaskRecurrence:
		enabled := v.Enabled
		spec := RecurrenceSpec{
			Type:           string(RecurrenceTask),
			Frequency:      string(v.Frequency),
			Enabled:        &enabled,
			Interval:       v.Interval,
			DaysOfWeek:     fromWeekdays(v.DaysOfWeek),
			DayOfMonth:     v.DayOfMonth,
			MaxOccurrences: v.MaxOccurrences,
		}
		if v.EndDate != nil {
			spec.EndDate = v.EndDate.String()
		}
		return spec
	case UnknownRecurrence:
		return RecurrenceSpec{Type: v.Type}
	default:
		return RecurrenceSpec{}
	}
}

// MarshalRecurrence encodes r as its tagged JSON envelope. A nil Recurrence
// encodes as JSON null.
func MarshalRecurrence(r Recurrence) ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	return json.Marshal(SpecOf(r))
}

// UnmarshalRecurrence decodes a tagged JSON envelope. Empty input and JSON
// null decode to a nil Recurrence.
func UnmarshalRecurrence(data []byte) (Recurrence, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var spec RecurrenceSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode recurrence: %w", err)
	}
	return spec.ToRecurrence()
}

func toWeekdays(days []int) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, time.Weekday(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func fromWeekdays(days []time.Weekday) []int {
	if len(days) == 0 {
		return nil
	}
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}

func deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
