package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

type ItemKind string

const (
	ItemHabit ItemKind = "habit"
	ItemTask  ItemKind = "task"
)

// AgendaItem is the scheduling view of a habit or task.
type AgendaItem struct {
	Kind       ItemKind   `json:"kind"`
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Priority   Priority   `json:"priority"`
	Recurrence Recurrence `json:"-"`

	// Anchor is where cycle offsets are counted from.
	Anchor civil.Date `json:"-"`
	// NominalDate is the single date an item without recurrence is due on.
	NominalDate *civil.Date `json:"nominal_date,omitempty"`
	// DueDate is set for tasks with a deadline; it drives overdue carry-forward.
	DueDate *civil.Date `json:"due_date,omitempty"`

	ActiveFrom  *civil.Date `json:"-"`
	ActiveUntil *civil.Date `json:"-"`

	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"-"`
}
