package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

// The in-memory repositories back the CLI and local runs. They keep the
// same contracts as the Postgres ones: copies in and out, optimistic
// versioning, soft deletes.

var (
	_ domain.HabitRepository      = (*InMemoryHabitRepository)(nil)
	_ domain.TaskRepository       = (*InMemoryTaskRepository)(nil)
	_ domain.CompletionRepository = (*InMemoryCompletionRepository)(nil)
	_ domain.UserRepository       = (*InMemoryUserRepository)(nil)
)

type InMemoryHabitRepository struct {
	store map[string]*domain.Habit

	mu sync.RWMutex
}

func NewInMemoryHabitRepository() *InMemoryHabitRepository {
	return &InMemoryHabitRepository{
		store: make(map[string]*domain.Habit),
	}
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[habit.ID]; exists {
		return fmt.Errorf("%w: habit %s already exists", domain.ErrHabitConflict, habit.ID)
	}
	habit.Version = 1
	clone := *habit
	r.store[habit.ID] = &clone
	return nil
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.store[id]
	if !ok || habit.DeletedAt != nil {
		return nil, domain.ErrHabitNotFound
	}
	clone := *habit
	return &clone, nil
}

func (r *InMemoryHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habits := []*domain.Habit{}
	for _, h := range r.store {
		if h.UserID == userID && h.DeletedAt == nil {
			clone := *h
			habits = append(habits, &clone)
		}
	}

	sort.Slice(habits, func(i, j int) bool {
		if habits[i].SortOrder != habits[j].SortOrder {
			return habits[i].SortOrder < habits[j].SortOrder
		}
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})

	return habits, nil
}

func (r *InMemoryHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[habit.ID]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}
	if stored.Version != habit.Version {
		return domain.ErrHabitConflict
	}

	habit.Version++
	habit.UpdatedAt = time.Now().UTC()
	clone := *habit
	r.store[habit.ID] = &clone
	return nil
}

func (r *InMemoryHabitRepository) UpdateProgress(ctx context.Context, id string, streak domain.Streak, stats domain.Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[id]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}
	stored.Streak = streak
	stored.Stats = stats
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryHabitRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[id]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrHabitNotFound
	}
	now := time.Now().UTC()
	stored.DeletedAt = &now
	stored.UpdatedAt = now
	stored.Version++
	return nil
}

func (r *InMemoryHabitRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	changes := []*domain.Habit{}
	for _, h := range r.store {
		if h.UserID == userID && h.UpdatedAt.After(since) {
			clone := *h
			changes = append(changes, &clone)
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].UpdatedAt.Before(changes[j].UpdatedAt)
	})
	return changes, nil
}

type InMemoryTaskRepository struct {
	store map[string]*domain.Task

	mu sync.RWMutex
}

func NewInMemoryTaskRepository() *InMemoryTaskRepository {
	return &InMemoryTaskRepository{store: make(map[string]*domain.Task)}
}

func (r *InMemoryTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[task.ID]; exists {
		return fmt.Errorf("%w: task %s already exists", domain.ErrTaskConflict, task.ID)
	}
	task.Version = 1
	clone := *task
	r.store[task.ID] = &clone
	return nil
}

func (r *InMemoryTaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.store[id]
	if !ok || task.DeletedAt != nil {
		return nil, domain.ErrTaskNotFound
	}
	clone := *task
	return &clone, nil
}

func (r *InMemoryTaskRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := []*domain.Task{}
	for _, t := range r.store {
		if t.UserID == userID && t.DeletedAt == nil {
			clone := *t
			tasks = append(tasks, &clone)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (r *InMemoryTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[task.ID]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrTaskNotFound
	}
	if stored.Version != task.Version {
		return domain.ErrTaskConflict
	}

	task.Version++
	task.UpdatedAt = time.Now().UTC()
	clone := *task
	r.store[task.ID] = &clone
	return nil
}

func (r *InMemoryTaskRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.store[id]
	if !ok || stored.DeletedAt != nil {
		return domain.ErrTaskNotFound
	}
	now := time.Now().UTC()
	stored.DeletedAt = &now
	stored.UpdatedAt = now
	stored.Version++
	return nil
}

func (r *InMemoryTaskRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	changes := []*domain.Task{}
	for _, t := range r.store {
		if t.UserID == userID && t.UpdatedAt.After(since) {
			clone := *t
			changes = append(changes, &clone)
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].UpdatedAt.Before(changes[j].UpdatedAt)
	})
	return changes, nil
}

// InMemoryCompletionRepository keeps one CompletionLog per habit.
type InMemoryCompletionRepository struct {
	logs map[string]*domain.CompletionLog

	mu sync.RWMutex
}

func NewInMemoryCompletionRepository() *InMemoryCompletionRepository {
	return &InMemoryCompletionRepository{logs: make(map[string]*domain.CompletionLog)}
}

func (r *InMemoryCompletionRepository) Upsert(ctx context.Context, record *domain.CompletionRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	hist, ok := r.logs[record.HabitID]
	if !ok {
		hist = domain.NewCompletionLog(nil)
		r.logs[record.HabitID] = hist
	}
	if prev, existed := hist.Get(record.Date); existed {
		record.ID = prev.ID
		record.CreatedAt = prev.CreatedAt
	}
	hist.Upsert(*record)
	return nil
}

func (r *InMemoryCompletionRepository) GetByDate(ctx context.Context, habitID string, date civil.Date) (*domain.CompletionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hist, ok := r.logs[habitID]
	if !ok {
		return nil, domain.ErrCompletionNotFound
	}
	rec, ok := hist.Get(date)
	if !ok {
		return nil, domain.ErrCompletionNotFound
	}
	return &rec, nil
}

func (r *InMemoryCompletionRepository) ListByHabitID(ctx context.Context, habitID string) ([]domain.CompletionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hist, ok := r.logs[habitID]
	if !ok {
		return []domain.CompletionRecord{}, nil
	}
	return hist.Records(), nil
}

func (r *InMemoryCompletionRepository) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to civil.Date) ([]domain.CompletionRecord, error) {
	return r.filter(func(rec domain.CompletionRecord) bool {
		return rec.UserID == userID && !rec.Date.Before(from) && !rec.Date.After(to)
	}), nil
}

func (r *InMemoryCompletionRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]domain.CompletionRecord, error) {
	return r.filter(func(rec domain.CompletionRecord) bool {
		return rec.UserID == userID && rec.UpdatedAt.After(since)
	}), nil
}

func (r *InMemoryCompletionRepository) filter(keep func(domain.CompletionRecord) bool) []domain.CompletionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.CompletionRecord{}
	for _, hist := range r.logs {
		for _, rec := range hist.Records() {
			if keep(rec) {
				out = append(out, rec)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].HabitID < out[j].HabitID
	})
	return out
}

type InMemoryUserRepository struct {
	byID map[string]*domain.User

	mu sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{byID: make(map[string]*domain.User)}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	clone := *user
	r.byID[user.ID] = &clone
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}
