// Package engine decides when recurring habits and tasks are due and derives
// streak and consistency figures from completion histories. Every function is
// pure: "today" and the holiday calendar are always passed in.
package engine

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

// IsDue reports whether spec schedules an occurrence on target. Offsets are
// measured from anchor. A nil spec, like a disabled TaskRecurrence, is due on
// the anchor date only; for tasks that anchor must be the nominal date, which
// DueOn takes care of.
//
// The only error is a wrapped domain.ErrInvalidPattern; any variant that is
// merely incomplete or unknown is due.
func IsDue(spec domain.Recurrence, anchor, target civil.Date, holidays domain.HolidaySet) (bool, error) {
	switch r := spec.(type) {
	case nil:
		return target == anchor, nil
	case domain.SimpleRecurrence:
		return simpleDue(r, anchor, target), nil
	case domain.CustomWeekly:
		return customWeeklyDue(r, target), nil
	case domain.AdvancedPattern:
		due, err := cycleDue(r.Cycle, anchor, target)
		if err != nil || !due {
			return false, err
		}
		return !skipped(r, target, holidays), nil
	case domain.TaskRecurrence:
		return taskDue(r, anchor, target), nil
	default:
		return true, nil
	}
}

// CountOccurrences returns how many days in [anchor, through] spec makes due.
func CountOccurrences(spec domain.Recurrence, anchor, through civil.Date, holidays domain.HolidaySet) (int, error) {
	count := 0
	for d := anchor; !d.After(through); d = d.AddDays(1) {
		due, err := IsDue(spec, anchor, d, holidays)
		if err != nil {
			return 0, err
		}
		if due {
			count++
		}
	}
	return count, nil
}

// DueOn reports whether item is scheduled on target, leaving out the overdue
// and priority rules of the agenda. Items without an active recurrence are due
// on their nominal date only.
func DueOn(item domain.AgendaItem, target civil.Date, holidays domain.HolidaySet) (bool, error) {
	rec := activeRecurrence(item)
	if rec == nil {
		return item.NominalDate != nil && *item.NominalDate == target, nil
	}
	return IsDue(rec, item.Anchor, target, holidays)
}

// activeRecurrence drops a disabled task recurrence so the item falls back to
// its nominal date.
func activeRecurrence(item domain.AgendaItem) domain.Recurrence {
	if r, ok := item.Recurrence.(domain.TaskRecurrence); ok && !r.Enabled {
		return nil
	}
	return item.Recurrence
}

func simpleDue(r domain.SimpleRecurrence, anchor, target civil.Date) bool {
	switch r.Frequency {
	case domain.FrequencyWeekly:
		return domain.Weekday(target) == domain.Weekday(anchor)
	case domain.FrequencyMonthly:
		return target.Day == anchor.Day
	default:
		return true
	}
}

// customWeeklyDue marks the first TimesPerWeek weekdays of each week, Sunday
// first, when no specific days are given.
func customWeeklyDue(r domain.CustomWeekly, target civil.Date) bool {
	wd := domain.Weekday(target)
	if len(r.SpecificDays) > 0 {
		return containsWeekday(r.SpecificDays, wd)
	}
	if r.TimesPerWeek < 1 || r.TimesPerWeek > 7 {
		return true
	}
	return int(wd) < r.TimesPerWeek
}

func cycleDue(c domain.Cycle, anchor, target civil.Date) (bool, error) {
	days := target.DaysSince(anchor)
	if days < 0 {
		return false, nil
	}

	switch c := c.(type) {
	case nil, domain.UnlimitedCycle:
		return true, nil
	case domain.LimitedCycle:
		if c.EndAfterDays != nil && days >= *c.EndAfterDays {
			return false, nil
		}
		if c.MaxOccurrences != nil && days+1 > *c.MaxOccurrences {
			return false, nil
		}
		return true, nil
	case domain.AlternatingCycle:
		length := c.ActiveDays + c.RestDays
		if c.ActiveDays < 1 || c.RestDays < 0 {
			return false, fmt.Errorf("%w: alternating %d on / %d off", domain.ErrInvalidPattern, c.ActiveDays, c.RestDays)
		}
		return days%length < c.ActiveDays, nil
	case domain.CustomCycle:
		every := c.RepeatEveryWeeks
		if every < 1 {
			every = 1
		}
		if (days/7)%every != 0 {
			return false, nil
		}
		return c.Pattern[domain.Weekday(target)], nil
	default:
		return true, nil
	}
}

func skipped(p domain.AdvancedPattern, target civil.Date, holidays domain.HolidaySet) bool {
	if p.SkipWeekends {
		if wd := domain.Weekday(target); wd == time.Saturday || wd == time.Sunday {
			return true
		}
	}
	return p.SkipHolidays && holidays.Contains(target)
}

func taskDue(r domain.TaskRecurrence, anchor, target civil.Date) bool {
	if !r.Enabled {
		return target == anchor
	}
	if r.EndDate != nil && target.After(*r.EndDate) {
		return false
	}
	if !taskRuleDue(r, anchor, target) {
		return false
	}
	if r.MaxOccurrences == nil {
		return true
	}
	return countTaskRule(r, anchor, target, *r.MaxOccurrences) <= *r.MaxOccurrences
}

// taskRuleDue applies the interval rule alone, without the end caps.
func taskRuleDue(r domain.TaskRecurrence, anchor, target civil.Date) bool {
	days := target.DaysSince(anchor)
	if days < 0 {
		return false
	}
	interval := r.Interval
	if interval < 1 {
		interval = 1
	}

	switch r.Frequency {
	case domain.FrequencyDaily, domain.FrequencyCustom:
		return days%interval == 0
	case domain.FrequencyWeekly:
		if (days/7)%interval != 0 {
			return false
		}
		if len(r.DaysOfWeek) == 0 {
			return domain.Weekday(target) == domain.Weekday(anchor)
		}
		return containsWeekday(r.DaysOfWeek, domain.Weekday(target))
	case domain.FrequencyMonthly:
		day := r.DayOfMonth
		if day == 0 {
			day = anchor.Day
		}
		return target.Day == day && domain.MonthsBetween(anchor, target)%interval == 0
	default:
		return true
	}
}

// countTaskRule counts rule matches in [anchor, target], stopping once the
// count passes limit.
func countTaskRule(r domain.TaskRecurrence, anchor, target civil.Date, limit int) int {
	count := 0
	for d := anchor; !d.After(target); d = d.AddDays(1) {
		if taskRuleDue(r, anchor, d) {
			count++
			if count > limit {
				break
			}
		}
	}
	return count
}

func containsWeekday(days []time.Weekday, wd time.Weekday) bool {
	for _, d := range days {
		if d == wd {
			return true
		}
	}
	return false
}
