package services

import (
	"context"
	"errors"
	"log"
	"time"

	"cloud.google.com/go/civil"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/engine"
)

type StatsService struct {
	habitRepo      domain.HabitRepository
	completionRepo domain.CompletionRepository
	holidays       domain.HolidaySet
	windowDays     int
	now            Clock
}

func NewStatsService(habitRepo domain.HabitRepository, completionRepo domain.CompletionRepository, holidays domain.HolidaySet, windowDays int, clock Clock) *StatsService {
	if clock == nil {
		clock = time.Now
	}
	return &StatsService{
		habitRepo:      habitRepo,
		completionRepo: completionRepo,
		holidays:       holidays,
		windowDays:     windowDays,
		now:            clock,
	}
}

// GetHabitProgress recomputes streak and stats for one habit from its full
// history, ignoring the cached values.
func (s *StatsService) GetHabitProgress(ctx context.Context, habitID, userID string) (*domain.HabitProgress, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}

	records, err := s.completionRepo.ListByHabitID(ctx, habitID)
	if err != nil {
		return nil, err
	}

	today := domain.DateOf(s.now())
	return &domain.HabitProgress{
		HabitID: habit.ID,
		Title:   habit.Title,
		Streak:  engine.ComputeStreak(records, today),
		Stats:   engine.ComputeStats(records, s.windowDays, today),
	}, nil
}

// ListProgress returns the cached progress of every habit of a user.
func (s *StatsService) ListProgress(ctx context.Context, userID string) ([]domain.HabitProgress, error) {
	habits, err := s.habitRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.HabitProgress, 0, len(habits))
	for _, h := range habits {
		out = append(out, domain.HabitProgress{
			HabitID: h.ID,
			Title:   h.Title,
			Streak:  h.Streak,
			Stats:   h.Stats,
		})
	}
	return out, nil
}

// GetWeeklyStats summarises every habit over [StartDate, EndDate]. A day
// counts towards a habit's rate only when the habit was due on it.
func (s *StatsService) GetWeeklyStats(ctx context.Context, input domain.StatsInput) (*domain.WeeklyStats, error) {
	startDate := input.StartDate
	endDate := input.EndDate

	habits, err := s.habitRepo.ListByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	records, err := s.completionRepo.ListByUserIDAndDateRange(ctx, input.UserID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	recordsMap := make(map[string]map[civil.Date]domain.CompletionRecord)
	for _, r := range records {
		if _, exists := recordsMap[r.HabitID]; !exists {
			recordsMap[r.HabitID] = make(map[civil.Date]domain.CompletionRecord)
		}
		recordsMap[r.HabitID][r.Date] = r
	}

	stats := &domain.WeeklyStats{
		StartDate:   startDate.String(),
		EndDate:     endDate.String(),
		TotalHabits: len(habits),
		HabitStats:  make([]domain.HabitStat, 0, len(habits)),
	}

	totalDaysPossible := 0
	totalDaysCompleted := 0

	for _, h := range habits {
		hStat := domain.HabitStat{
			HabitID:       h.ID,
			HabitTitle:    h.Title,
			Color:         h.Color,
			Icon:          h.Icon,
			TargetValue:   h.TargetValue,
			Unit:          h.Unit,
			DailyProgress: make([]float64, 0),
			DailyDue:      make([]bool, 0),
		}

		for currentDate := startDate; !currentDate.After(endDate); currentDate = currentDate.AddDays(1) {
			due := s.isDue(h, currentDate)
			rec, ok := recordsMap[h.ID][currentDate]
			done := ok && rec.Completed

			val := 0.0
			if done {
				val = 1
				if rec.Value != nil {
					val = *rec.Value
				}
			}

			hStat.TotalValue += val
			hStat.DailyProgress = append(hStat.DailyProgress, val)
			hStat.DailyDue = append(hStat.DailyDue, due)

			if !due {
				continue
			}
			hStat.DaysScheduled++
			totalDaysPossible++
			if done {
				hStat.DaysCompleted++
				totalDaysCompleted++
			}
		}

		if hStat.DaysScheduled > 0 {
			hStat.CompletionRate = float64(hStat.DaysCompleted) / float64(hStat.DaysScheduled) * 100
		}

		stats.HabitStats = append(stats.HabitStats, hStat)
	}

	if totalDaysPossible > 0 {
		stats.OverallRate = float64(totalDaysCompleted) / float64(totalDaysPossible) * 100
	}

	return stats, nil
}

// isDue applies the habit's active window and recurrence. An invalid pattern
// falls back to the start date only.
func (s *StatsService) isDue(h *domain.Habit, date civil.Date) bool {
	if date.Before(h.StartDate) || (h.EndDate != nil && date.After(*h.EndDate)) {
		return false
	}
	due, err := engine.IsDue(h.Recurrence.Recurrence, h.StartDate, date, s.holidays)
	if errors.Is(err, domain.ErrInvalidPattern) {
		log.Printf("[STATS] Habit %s has an invalid pattern: %v", h.ID, err)
		return date == h.StartDate
	}
	return due
}
