package engine

import (
	"errors"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

// Reason explains why an item made it onto the agenda.
type Reason string

const (
	ReasonDue      Reason = "due"
	ReasonOverdue  Reason = "overdue"
	ReasonPriority Reason = "priority"
)

// AgendaPolicy tunes SelectForDate. Undated tasks at or above
// PriorityThreshold are always listed.
type AgendaPolicy struct {
	PriorityThreshold domain.Priority
	Holidays          domain.HolidaySet
}

func DefaultAgendaPolicy() AgendaPolicy {
	return AgendaPolicy{PriorityThreshold: domain.PriorityHigh}
}

type AgendaEntry struct {
	Item    domain.AgendaItem `json:"item"`
	Overdue bool              `json:"overdue"`
	Reason  Reason            `json:"reason"`
	// Fallback is set when the item's pattern could not be evaluated and it
	// was scheduled on its nominal date instead.
	Fallback bool `json:"fallback,omitempty"`
}

// SelectForDate picks the items that belong on target's agenda, ordered
// overdue first, then by descending priority, then by creation time.
func SelectForDate(items []domain.AgendaItem, target civil.Date, policy AgendaPolicy) []AgendaEntry {
	entries := make([]AgendaEntry, 0, len(items))
	for _, item := range items {
		if entry, ok := selectItem(item, target, policy); ok {
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Overdue != b.Overdue {
			return a.Overdue
		}
		if a.Item.Priority != b.Item.Priority {
			return a.Item.Priority > b.Item.Priority
		}
		return a.Item.CreatedAt.Before(b.Item.CreatedAt)
	})
	return entries
}

func selectItem(item domain.AgendaItem, target civil.Date, policy AgendaPolicy) (AgendaEntry, bool) {
	if item.ActiveFrom != nil && target.Before(*item.ActiveFrom) {
		return AgendaEntry{}, false
	}
	if item.ActiveUntil != nil && target.After(*item.ActiveUntil) {
		return AgendaEntry{}, false
	}

	entry := AgendaEntry{Item: item, Reason: ReasonDue}

	recurrence := activeRecurrence(item)

	if recurrence != nil {
		due, err := IsDue(recurrence, item.Anchor, target, policy.Holidays)
		if err == nil {
			return entry, due
		}
		if !errors.Is(err, domain.ErrInvalidPattern) {
			return entry, true
		}
		entry.Fallback = true
	}

	if item.NominalDate != nil && *item.NominalDate == target {
		return entry, true
	}
	if entry.Fallback || item.Kind != domain.ItemTask || item.Completed {
		return AgendaEntry{}, false
	}

	if item.DueDate != nil && item.DueDate.Before(target) {
		entry.Overdue = true
		entry.Reason = ReasonOverdue
		return entry, true
	}
	if item.NominalDate == nil && item.Priority >= policy.PriorityThreshold {
		entry.Reason = ReasonPriority
		return entry, true
	}
	return AgendaEntry{}, false
}
