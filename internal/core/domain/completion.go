package domain

import (
	"errors"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

var (
	ErrInvalidCompletion     = errors.New("invalid completion record")
	ErrCompletionHabitID     = errors.New("habit_id is required")
	ErrCompletionUserID      = errors.New("user_id is required")
	ErrCompletionDate        = errors.New("date is required")
	ErrCompletionNegativeVal = errors.New("value cannot be negative")
)

// CompletionRecord is the outcome recorded for one habit on one date.
// Completed=false is an "attempted but not done" marker, distinct from having
// no record at all.
type CompletionRecord struct {
	ID      string `json:"id"`
	HabitID string `json:"habit_id"`
	UserID  string `json:"user_id"`

	Date      civil.Date `json:"date"`
	Completed bool       `json:"completed"`
	Value     *float64   `json:"value,omitempty"`
	Notes     string     `json:"notes,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewCompletionRecord(habitID, userID string, date civil.Date, completed bool) *CompletionRecord {
	now := time.Now().UTC()

	return &CompletionRecord{
		HabitID:   habitID,
		UserID:    userID,
		Date:      date,
		Completed: completed,

		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *CompletionRecord) Validate() error {
	if strings.TrimSpace(r.HabitID) == "" {
		return ErrCompletionHabitID
	}
	if strings.TrimSpace(r.UserID) == "" {
		return ErrCompletionUserID
	}
	if r.Date.IsZero() {
		return ErrCompletionDate
	}
	if r.Value != nil && *r.Value < 0 {
		return ErrCompletionNegativeVal
	}
	return nil
}

// CompletionLog holds at most one record per date. Writes are upserts keyed
// by date; reads come back in ascending date order.
type CompletionLog struct {
	byDate map[civil.Date]CompletionRecord
}

// NewCompletionLog indexes records by date. When two records share a date the
// later one in the slice wins.
func NewCompletionLog(records []CompletionRecord) *CompletionLog {
	l := &CompletionLog{byDate: make(map[civil.Date]CompletionRecord, len(records))}
	for _, r := range records {
		l.byDate[r.Date] = r
	}
	return l
}

// Upsert stores rec for its date and returns the record it replaced, if any.
func (l *CompletionLog) Upsert(rec CompletionRecord) (CompletionRecord, bool) {
	prev, ok := l.byDate[rec.Date]
	l.byDate[rec.Date] = rec
	return prev, ok
}

func (l *CompletionLog) Get(date civil.Date) (CompletionRecord, bool) {
	rec, ok := l.byDate[date]
	return rec, ok
}

func (l *CompletionLog) Len() int {
	return len(l.byDate)
}

func (l *CompletionLog) Records() []CompletionRecord {
	out := make([]CompletionRecord, 0, len(l.byDate))
	for _, r := range l.byDate {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
