package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

type HabitService struct {
	repo domain.HabitRepository
	now  Clock
}

func NewHabitService(repo domain.HabitRepository, clock Clock) *HabitService {
	if clock == nil {
		clock = time.Now
	}
	return &HabitService{
		repo: repo,
		now:  clock,
	}
}

type CreateHabitInput struct {
	// ID is set by offline clients that generate their own identifiers.
	ID           string
	UserID       string
	Title        string
	Description  string
	Color        string
	Icon         string
	Type         string
	ReminderTime string
	Unit         string
	TargetValue  int
	Recurrence   domain.Recurrence
	StartDate    *civil.Date
	EndDate      *civil.Date
}

// UpdateHabitInput is a partial update: nil fields keep their stored value.
type UpdateHabitInput struct {
	ID           string
	UserID       string
	Title        *string
	Description  *string
	Color        *string
	Icon         *string
	Type         *string
	ReminderTime *string
	Unit         *string
	TargetValue  *int
	Recurrence   domain.Recurrence
	StartDate    *civil.Date
	EndDate      *civil.Date
	Version      int
}

func mergeString(newVal *string, oldVal string) string {
	if newVal == nil {
		return oldVal
	}
	return *newVal
}

// Create persists a new habit. Creating an ID that already exists for the
// same user returns the stored habit, so client retries are harmless.
func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	if input.ID != "" {
		existing, err := s.repo.GetByID(ctx, input.ID)
		switch {
		case err == nil && existing.UserID == input.UserID:
			return existing, nil
		case err == nil:
			return nil, fmt.Errorf("%w: id %s is taken", domain.ErrHabitConflict, input.ID)
		case !errors.Is(err, domain.ErrHabitNotFound):
			return nil, err
		}
	}

	habit, err := domain.NewHabit(input.Title, input.UserID)
	if err != nil {
		return nil, err
	}
	if input.ID != "" {
		habit.ID = input.ID
	}

	attrs := domain.HabitAttributes{
		Title:        input.Title,
		Description:  input.Description,
		Color:        input.Color,
		Icon:         input.Icon,
		Type:         input.Type,
		ReminderTime: input.ReminderTime,
		Unit:         input.Unit,
		TargetValue:  input.TargetValue,
		Recurrence:   input.Recurrence,
		StartDate:    domain.DateOf(s.now()),
		EndDate:      input.EndDate,
	}
	if attrs.Type == "" {
		attrs.Type = habit.Type
	}
	if attrs.TargetValue < 1 {
		attrs.TargetValue = 1
	}
	if input.StartDate != nil {
		attrs.StartDate = *input.StartDate
	}

	if err := habit.Update(attrs); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}

	return habit, nil
}

func (s *HabitService) Get(ctx context.Context, id, userID string) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}
	return habit, nil
}

func (s *HabitService) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *HabitService) GetDelta(ctx context.Context, userID string, lastSync time.Time) ([]*domain.Habit, error) {
	return s.repo.GetChanges(ctx, userID, lastSync)
}

// Update applies a partial update. An update for an unknown ID that carries
// a title creates the habit instead (offline clients may sync an edit before
// the create reached the server).
func (s *HabitService) Update(ctx context.Context, input UpdateHabitInput) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, input.ID)
	if errors.Is(err, domain.ErrHabitNotFound) && input.Title != nil {
		return s.Create(ctx, upsertInput(input))
	}
	if err != nil {
		return nil, err
	}

	if habit.UserID != input.UserID {
		return nil, domain.ErrHabitNotFound
	}

	if input.Version > 0 && habit.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrHabitConflict, input.Version, habit.Version)
	}

	reminder := ""
	if habit.ReminderTime != nil {
		reminder = *habit.ReminderTime
	}

	target := habit.TargetValue
	if input.TargetValue != nil {
		target = *input.TargetValue
	}

	endDate := habit.EndDate
	if input.EndDate != nil {
		endDate = input.EndDate
	}

	attrs := domain.HabitAttributes{
		Title:        mergeString(input.Title, habit.Title),
		Description:  mergeString(input.Description, habit.Description),
		Color:        mergeString(input.Color, habit.Color),
		Icon:         mergeString(input.Icon, habit.Icon),
		Type:         mergeString(input.Type, habit.Type),
		ReminderTime: mergeString(input.ReminderTime, reminder),
		Unit:         mergeString(input.Unit, habit.Unit),
		TargetValue:  target,
		Recurrence:   input.Recurrence,
		EndDate:      endDate,
	}
	if input.StartDate != nil {
		attrs.StartDate = *input.StartDate
	}

	if err := habit.Update(attrs); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

func upsertInput(u UpdateHabitInput) CreateHabitInput {
	in := CreateHabitInput{
		ID:           u.ID,
		UserID:       u.UserID,
		Title:        *u.Title,
		Description:  mergeString(u.Description, ""),
		Color:        mergeString(u.Color, ""),
		Icon:         mergeString(u.Icon, ""),
		Type:         mergeString(u.Type, ""),
		ReminderTime: mergeString(u.ReminderTime, ""),
		Unit:         mergeString(u.Unit, ""),
		Recurrence:   u.Recurrence,
		StartDate:    u.StartDate,
		EndDate:      u.EndDate,
	}
	if u.TargetValue != nil {
		in.TargetValue = *u.TargetValue
	}
	return in
}

func (s *HabitService) Reorder(ctx context.Context, id, userID string, position int) (*domain.Habit, error) {
	habit, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := habit.ChangePosition(position); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

// SetArchived archives or restores a habit. Archived habits keep their
// history but leave the agenda.
func (s *HabitService) SetArchived(ctx context.Context, id, userID string, archived bool) (*domain.Habit, error) {
	habit, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if archived {
		habit.Archive()
	} else {
		habit.Restore()
	}
	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

func (s *HabitService) Delete(ctx context.Context, id string, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
