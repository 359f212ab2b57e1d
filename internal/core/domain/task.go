package domain

import (
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskConflict       = errors.New("task version conflict")
	ErrTaskTitleEmpty     = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong   = errors.New("task title is too long (max 100 chars)")
	ErrTaskDescTooLong    = errors.New("task description is too long (max 500 chars)")
	ErrTaskInvalidUserID  = errors.New("invalid user id")
	ErrTaskRecurrenceKind = errors.New("tasks only accept task recurrence")
	ErrTaskDueBeforeStart = errors.New("task due date is before its start date")
	ErrInvalidPriority    = errors.New("invalid priority (must be Baja, Media, Alta or Urgente)")
)

type Task struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Priority    Priority    `json:"priority"`
	StartDate   *civil.Date `json:"start_date,omitempty"`
	DueDate     *civil.Date `json:"due_date,omitempty"`
	Recurrence  Schedule    `json:"recurrence"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`

	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

type TaskAttributes struct {
	Title       string
	Description string
	Priority    Priority
	StartDate   *civil.Date
	DueDate     *civil.Date
	Recurrence  Recurrence
}

func validateTask(a TaskAttributes) error {
	title := strings.TrimSpace(a.Title)
	if title == "" {
		return ErrTaskTitleEmpty
	}
	if len(title) > MaxTitleLen {
		return ErrTaskTitleTooLong
	}
	if len(strings.TrimSpace(a.Description)) > MaxDescLen {
		return ErrTaskDescTooLong
	}
	if !a.Priority.IsValid() {
		return ErrInvalidPriority
	}
	if a.Recurrence != nil {
		if _, ok := a.Recurrence.(TaskRecurrence); !ok {
			return ErrTaskRecurrenceKind
		}
	}
	if a.StartDate != nil && a.DueDate != nil && a.DueDate.Before(*a.StartDate) {
		return ErrTaskDueBeforeStart
	}
	return nil
}

func NewTask(userID string, a TaskAttributes) (*Task, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrTaskInvalidUserID
	}
	if err := validateTask(a); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       strings.TrimSpace(a.Title),
		Description: strings.TrimSpace(a.Description),
		Priority:    a.Priority,
		StartDate:   a.StartDate,
		DueDate:     a.DueDate,
		Recurrence:  NewSchedule(a.Recurrence),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (t *Task) Update(a TaskAttributes) error {
	if err := validateTask(a); err != nil {
		return err
	}

	t.Title = strings.TrimSpace(a.Title)
	t.Description = strings.TrimSpace(a.Description)
	t.Priority = a.Priority
	t.StartDate = a.StartDate
	t.DueDate = a.DueDate
	t.Recurrence = NewSchedule(a.Recurrence)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *Task) IsCompleted() bool {
	return t.CompletedAt != nil
}

// Complete marks the task done and reports whether it was open before.
func (t *Task) Complete(at time.Time) bool {
	if t.CompletedAt != nil {
		return false
	}
	done := at.UTC()
	t.CompletedAt = &done
	t.UpdatedAt = done
	return true
}

func (t *Task) Reopen() {
	if t.CompletedAt == nil {
		return
	}
	t.CompletedAt = nil
	t.UpdatedAt = time.Now().UTC()
}

// Anchor is the date recurrence offsets are measured from: the start date,
// else the due date, else the creation day.
func (t *Task) Anchor() civil.Date {
	switch {
	case t.StartDate != nil:
		return *t.StartDate
	case t.DueDate != nil:
		return *t.DueDate
	default:
		return DateOf(t.CreatedAt)
	}
}

func (t *Task) AgendaItem() AgendaItem {
	nominal := t.DueDate
	if nominal == nil {
		nominal = t.StartDate
	}
	return AgendaItem{
		Kind:        ItemTask,
		ID:          t.ID,
		Title:       t.Title,
		Priority:    t.Priority,
		Recurrence:  t.Recurrence.Recurrence,
		Anchor:      t.Anchor(),
		NominalDate: nominal,
		DueDate:     t.DueDate,
		Completed:   t.IsCompleted(),
		CreatedAt:   t.CreatedAt,
	}
}
