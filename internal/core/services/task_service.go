package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

type TaskService struct {
	repo domain.TaskRepository
	now  Clock
}

func NewTaskService(repo domain.TaskRepository, clock Clock) *TaskService {
	if clock == nil {
		clock = time.Now
	}
	return &TaskService{repo: repo, now: clock}
}

type CreateTaskInput struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Priority    domain.Priority
	StartDate   *civil.Date
	DueDate     *civil.Date
	Recurrence  domain.Recurrence
}

// UpdateTaskInput replaces every editable field of a task.
type UpdateTaskInput struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Priority    domain.Priority
	StartDate   *civil.Date
	DueDate     *civil.Date
	Recurrence  domain.Recurrence
	Version     int
}

func (s *TaskService) Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	if input.ID != "" {
		existing, err := s.repo.GetByID(ctx, input.ID)
		switch {
		case err == nil && existing.UserID == input.UserID:
			return existing, nil
		case err == nil:
			return nil, fmt.Errorf("%w: id %s is taken", domain.ErrTaskConflict, input.ID)
		case !errors.Is(err, domain.ErrTaskNotFound):
			return nil, err
		}
	}

	task, err := domain.NewTask(input.UserID, domain.TaskAttributes{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		StartDate:   input.StartDate,
		DueDate:     input.DueDate,
		Recurrence:  input.Recurrence,
	})
	if err != nil {
		return nil, err
	}
	if input.ID != "" {
		task.ID = input.ID
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id, userID string) (*domain.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (s *TaskService) ListByUserID(ctx context.Context, userID string) ([]*domain.Task, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *TaskService) GetDelta(ctx context.Context, userID string, lastSync time.Time) ([]*domain.Task, error) {
	return s.repo.GetChanges(ctx, userID, lastSync)
}

func (s *TaskService) Update(ctx context.Context, input UpdateTaskInput) (*domain.Task, error) {
	task, err := s.Get(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && task.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrTaskConflict, input.Version, task.Version)
	}

	err = task.Update(domain.TaskAttributes{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		StartDate:   input.StartDate,
		DueDate:     input.DueDate,
		Recurrence:  input.Recurrence,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// SetCompleted marks a task done or open again. The boolean result is true
// only when the task went from open to done.
func (s *TaskService) SetCompleted(ctx context.Context, id, userID string, completed bool) (*domain.Task, bool, error) {
	task, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, false, err
	}

	newlyCompleted := false
	if completed {
		newlyCompleted = task.Complete(s.now())
	} else {
		task.Reopen()
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, false, err
	}
	return task, newlyCompleted, nil
}

func (s *TaskService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
