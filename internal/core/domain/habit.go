package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

var (
	ErrHabitTitleEmpty    = errors.New("habit title cannot be empty")
	ErrHabitTitleTooLong  = errors.New("habit title is too long (max 100 chars)")
	ErrHabitDescTooLong   = errors.New("habit description is too long (max 500 chars)")
	ErrHabitInvalidUserID = errors.New("invalid user id")
	ErrInvalidColor       = errors.New("invalid color format (must be #RRGGBB)")
	ErrInvalidTarget      = errors.New("target cannot be negative")
	ErrHabitArchived      = errors.New("cannot update an archived habit")
	ErrInvalidHabitType   = errors.New("invalid habit type (must be boolean, numeric, or timer)")
	ErrInvalidReminder    = errors.New("invalid reminder format (must be HH:MM 24h)")
	ErrHabitRecurrence    = errors.New("task recurrence cannot be attached to a habit")
	ErrHabitEndDate       = errors.New("habit end date is before its start date")
)

var colorRegex = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
var reminderRegex = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

const (
	HabitTypeBoolean = "boolean"
	HabitTypeNumeric = "numeric"
	HabitTypeTimer   = "timer"
	DefaultIcon      = "default_icon"
	MaxTitleLen      = 100
	MaxDescLen       = 500
)

type Habit struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Color        string   `json:"color"`
	Icon         string   `json:"icon"`
	SortOrder    int      `json:"sort_order"`
	Type         string   `json:"type"`
	ReminderTime *string  `json:"reminder_time,omitempty"`
	Recurrence   Schedule `json:"recurrence"`
	TargetValue  int      `json:"target_value"`
	Unit         string   `json:"unit"`

	// StartDate anchors every cycle-based recurrence.
	StartDate civil.Date  `json:"start_date"`
	EndDate   *civil.Date `json:"end_date,omitempty"`

	// Derived from the completion history; rebuilt on every write.
	Streak Streak `json:"streak"`
	Stats  Stats  `json:"stats"`

	Version    int        `json:"version"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// HabitAttributes are the user-editable fields of a habit.
type HabitAttributes struct {
	Title        string
	Description  string
	Color        string
	Icon         string
	Type         string
	ReminderTime string
	Unit         string
	TargetValue  int
	Recurrence   Recurrence
	StartDate    civil.Date
	EndDate      *civil.Date
}

func validateAndNormalize(a HabitAttributes) (int, error) {
	trimmedTitle := strings.TrimSpace(a.Title)
	if trimmedTitle == "" {
		return 0, ErrHabitTitleEmpty
	}
	if len(trimmedTitle) > MaxTitleLen {
		return 0, ErrHabitTitleTooLong
	}

	if len(strings.TrimSpace(a.Description)) > MaxDescLen {
		return 0, ErrHabitDescTooLong
	}

	switch a.Type {
	case HabitTypeBoolean, HabitTypeNumeric, HabitTypeTimer:
	default:
		return 0, ErrInvalidHabitType
	}

	finalTarget := a.TargetValue
	if a.Type == HabitTypeBoolean {
		finalTarget = 1
	} else if a.TargetValue < 0 {
		return 0, ErrInvalidTarget
	}

	if a.ReminderTime != "" && !reminderRegex.MatchString(a.ReminderTime) {
		return 0, ErrInvalidReminder
	}

	if a.Color != "" && !colorRegex.MatchString(a.Color) {
		return 0, ErrInvalidColor
	}

	if _, isTask := a.Recurrence.(TaskRecurrence); isTask {
		return 0, ErrHabitRecurrence
	}
	if err := ValidateRecurrence(a.Recurrence); err != nil {
		return 0, err
	}

	if a.EndDate != nil && !a.StartDate.IsZero() && a.EndDate.Before(a.StartDate) {
		return 0, ErrHabitEndDate
	}

	return finalTarget, nil
}

// NewHabit creates a daily boolean habit starting today (UTC).
func NewHabit(title, userID string) (*Habit, error) {
	if userID == "" {
		return nil, ErrHabitInvalidUserID
	}

	now := time.Now().UTC()
	attrs := HabitAttributes{
		Title:       title,
		Type:        HabitTypeBoolean,
		TargetValue: 1,
		Recurrence:  DefaultRecurrence(),
		StartDate:   DateOf(now),
	}
	if _, err := validateAndNormalize(attrs); err != nil {
		return nil, err
	}

	return &Habit{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Icon:        DefaultIcon,
		Type:        HabitTypeBoolean,
		TargetValue: 1,
		Recurrence:  NewSchedule(attrs.Recurrence),
		StartDate:   attrs.StartDate,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Update replaces every editable field. A nil Recurrence keeps the current
// one and a zero StartDate keeps the current anchor.
func (h *Habit) Update(a HabitAttributes) error {
	if h.ArchivedAt != nil {
		return ErrHabitArchived
	}

	if a.Recurrence == nil {
		a.Recurrence = h.Recurrence.Recurrence
	}
	if a.StartDate.IsZero() {
		a.StartDate = h.StartDate
	}

	safeTarget, err := validateAndNormalize(a)
	if err != nil {
		return err
	}

	icon := a.Icon
	if icon == "" {
		icon = DefaultIcon
	}

	var remPtr *string
	if a.ReminderTime != "" {
		reminder := a.ReminderTime
		remPtr = &reminder
	}

	h.Title = strings.TrimSpace(a.Title)
	h.Description = strings.TrimSpace(a.Description)
	h.Color = a.Color
	h.Icon = icon
	h.Type = a.Type
	h.ReminderTime = remPtr
	h.Unit = a.Unit
	h.TargetValue = safeTarget
	h.Recurrence = NewSchedule(a.Recurrence)
	h.StartDate = a.StartDate
	h.EndDate = a.EndDate

	h.UpdatedAt = time.Now().UTC()

	return nil
}

func (h *Habit) ChangePosition(newOrder int) error {
	if h.ArchivedAt != nil {
		return ErrHabitArchived
	}

	h.SortOrder = newOrder
	h.UpdatedAt = time.Now().UTC()
	return nil
}

func (h *Habit) Archive() {
	if h.ArchivedAt != nil {
		return
	}

	now := time.Now().UTC()
	h.ArchivedAt = &now
	h.UpdatedAt = now
}

func (h *Habit) Restore() {
	if h.ArchivedAt == nil {
		return
	}
	h.ArchivedAt = nil
	h.UpdatedAt = time.Now().UTC()
}

// UpdateProgress stores freshly derived streak and stats on the habit. It
// reports whether anything changed.
func (h *Habit) UpdateProgress(streak Streak, stats Stats) bool {
	if sameStreak(h.Streak, streak) && h.Stats == stats {
		return false
	}
	h.Streak = streak
	h.Stats = stats
	return true
}

func sameStreak(a, b Streak) bool {
	if a.Current != b.Current || a.Best != b.Best {
		return false
	}
	if a.LastCompletionDate == nil || b.LastCompletionDate == nil {
		return a.LastCompletionDate == nil && b.LastCompletionDate == nil
	}
	return *a.LastCompletionDate == *b.LastCompletionDate
}

func (h *Habit) AgendaItem() AgendaItem {
	start := h.StartDate
	return AgendaItem{
		Kind:        ItemHabit,
		ID:          h.ID,
		Title:       h.Title,
		Recurrence:  h.Recurrence.Recurrence,
		Anchor:      h.StartDate,
		NominalDate: &start,
		ActiveFrom:  &start,
		ActiveUntil: h.EndDate,
		CreatedAt:   h.CreatedAt,
	}
}
