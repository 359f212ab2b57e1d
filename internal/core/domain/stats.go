package domain

import "cloud.google.com/go/civil"

// DefaultConsistencyWindow is the trailing window, in days, used for
// consistency when the caller does not pick one.
const DefaultConsistencyWindow = 30

// Streak is derived from a completion history and never stored as the source
// of truth.
type Streak struct {
	Current            int         `json:"current"`
	Best               int         `json:"best"`
	LastCompletionDate *civil.Date `json:"last_completion_date,omitempty"`
}

// Stats is derived from a completion history. Rates are percentages.
type Stats struct {
	TotalCompletions  int     `json:"total_completions"`
	SuccessRate       float64 `json:"success_rate"`
	TotalTimeInvested float64 `json:"total_time_invested"`
	Consistency       float64 `json:"consistency"`
}

// HabitProgress is the per-habit view returned by the stats endpoints.
type HabitProgress struct {
	HabitID string `json:"habit_id"`
	Title   string `json:"title"`
	Streak  Streak `json:"streak"`
	Stats   Stats  `json:"stats"`
}

type WeeklyStats struct {
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	TotalHabits int         `json:"total_habits"`
	OverallRate float64     `json:"overall_completion_rate"`
	HabitStats  []HabitStat `json:"habits"`
}

// HabitStat summarises one habit over a date range. DaysScheduled counts only
// the days the habit was due.
type HabitStat struct {
	HabitID        string    `json:"habit_id"`
	HabitTitle     string    `json:"habit_title"`
	Color          string    `json:"color"`
	Icon           string    `json:"icon"`
	TargetValue    int       `json:"target_value"`
	Unit           string    `json:"unit"`
	TotalValue     float64   `json:"total_value"`
	CompletionRate float64   `json:"completion_rate"`
	DaysScheduled  int       `json:"days_scheduled"`
	DaysCompleted  int       `json:"days_completed"`
	DailyProgress  []float64 `json:"daily_progress"`
	DailyDue       []bool    `json:"daily_due"`
}

type StatsInput struct {
	UserID    string
	StartDate civil.Date
	EndDate   civil.Date
}
