package services

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/engine"
	"github.com/comitanigiacomo/kanso-progress/internal/core/workers"
	"github.com/comitanigiacomo/kanso-progress/internal/metrics"
)

type CompletionService struct {
	repo       domain.CompletionRepository
	habitRepo  domain.HabitRepository
	worker     *workers.ProgressWorker
	windowDays int
	now        Clock
	locks      *keyedMutex
}

func NewCompletionService(repo domain.CompletionRepository, habitRepo domain.HabitRepository, worker *workers.ProgressWorker, windowDays int, clock Clock) *CompletionService {
	if clock == nil {
		clock = time.Now
	}
	return &CompletionService{
		repo:       repo,
		habitRepo:  habitRepo,
		worker:     worker,
		windowDays: windowDays,
		now:        clock,
		locks:      newKeyedMutex(),
	}
}

type ToggleInput struct {
	HabitID string
	UserID  string
	Date    civil.Date
	// Completed sets the state explicitly; nil flips the stored state.
	Completed *bool
	Value     *float64
	Notes     *string
}

type ToggleResult struct {
	Record domain.CompletionRecord `json:"record"`
	Streak domain.Streak           `json:"streak"`
	Stats  domain.Stats            `json:"stats"`
	// NewlyCompleted is true only when the date went from not done to done.
	NewlyCompleted bool `json:"newly_completed"`
}

// Toggle records the outcome of one habit on one date and recomputes the
// habit's streak and stats from the full history. Toggles for the same habit
// are applied one at a time.
func (s *CompletionService) Toggle(ctx context.Context, input ToggleInput) (*ToggleResult, error) {
	probe := domain.CompletionRecord{HabitID: input.HabitID, UserID: input.UserID, Date: input.Date, Value: input.Value}
	if err := probe.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(input.HabitID)
	defer unlock()

	habit, err := s.habitRepo.GetByID(ctx, input.HabitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != input.UserID {
		return nil, domain.ErrUnauthorized
	}

	records, err := s.repo.ListByHabitID(ctx, input.HabitID)
	if err != nil {
		return nil, err
	}
	history := domain.NewCompletionLog(records)

	prev, existed := history.Get(input.Date)
	wasDone := existed && prev.Completed

	completed := !wasDone
	if input.Completed != nil {
		completed = *input.Completed
	}

	var rec domain.CompletionRecord
	if existed {
		rec = prev
		rec.Completed = completed
		rec.Version++
		rec.UpdatedAt = time.Now().UTC()
	} else {
		rec = *domain.NewCompletionRecord(input.HabitID, input.UserID, input.Date, completed)
		rec.ID = uuid.NewString()
	}
	if input.Value != nil {
		rec.Value = input.Value
	}
	if input.Notes != nil {
		rec.Notes = *input.Notes
	}

	if err := s.repo.Upsert(ctx, &rec); err != nil {
		return nil, err
	}
	history.Upsert(rec)

	today := domain.DateOf(s.now())
	all := history.Records()
	result := &ToggleResult{
		Record:         rec,
		Streak:         engine.ComputeStreak(all, today),
		Stats:          engine.ComputeStats(all, s.windowDays, today),
		NewlyCompleted: completed && !wasDone,
	}

	if habit.UpdateProgress(result.Streak, result.Stats) {
		if err := s.habitRepo.UpdateProgress(ctx, habit.ID, result.Streak, result.Stats); err != nil {
			log.Printf("[TOGGLE] Failed to store progress for habit %s, worker will retry: %v", habit.ID, err)
		}
	}
	if s.worker != nil {
		s.worker.Enqueue(habit.ID)
	}

	outcome := "uncompleted"
	if completed {
		outcome = "completed"
	}
	metrics.CompletionToggles.WithLabelValues(outcome).Inc()

	return result, nil
}

// ListByHabitID returns the records of a habit within [from, to], oldest first.
func (s *CompletionService) ListByHabitID(ctx context.Context, habitID, userID string, from, to civil.Date) ([]domain.CompletionRecord, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	records, err := s.repo.ListByHabitID(ctx, habitID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CompletionRecord, 0, len(records))
	for _, r := range domain.NewCompletionLog(records).Records() {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *CompletionService) GetDelta(ctx context.Context, userID string, since time.Time) ([]domain.CompletionRecord, error) {
	return s.repo.GetChanges(ctx, userID, since)
}
