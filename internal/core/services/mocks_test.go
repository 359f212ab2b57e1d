package services_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/mock"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

func ptr[T any](v T) *T {
	return &v
}

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fixedClock pins "now" to noon UTC of the given day.
func fixedClock(day string) func() time.Time {
	d := date(day)
	return func() time.Time {
		return d.In(time.UTC).Add(12 * time.Hour)
	}
}

// MockRepo is a map-backed habit store that behaves like the postgres
// repository: Update checks and bumps the version, Delete is soft.
type MockRepo struct {
	mu            sync.Mutex
	store         map[string]*domain.Habit
	simulateError error
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		store: make(map[string]*domain.Habit),
	}
}

func (m *MockRepo) Create(ctx context.Context, habit *domain.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return m.simulateError
	}

	if _, exists := m.store[habit.ID]; exists {
		return errors.New("duplicate key value violates unique constraint")
	}

	if habit.Version == 0 {
		habit.Version = 1
	}
	clone := *habit
	m.store[habit.ID] = &clone
	return nil
}

func (m *MockRepo) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	h, ok := m.store[id]
	if !ok || h.DeletedAt != nil {
		return nil, domain.ErrHabitNotFound
	}
	clone := *h
	return &clone, nil
}

func (m *MockRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var list []*domain.Habit
	for _, h := range m.store {
		if h.UserID == userID && h.DeletedAt == nil {
			clone := *h
			list = append(list, &clone)
		}
	}
	return list, nil
}

func (m *MockRepo) Update(ctx context.Context, habit *domain.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return m.simulateError
	}

	stored, ok := m.store[habit.ID]
	if !ok {
		return domain.ErrHabitNotFound
	}
	if stored.Version != habit.Version {
		return domain.ErrHabitConflict
	}

	habit.Version++
	clone := *habit
	m.store[habit.ID] = &clone
	return nil
}

func (m *MockRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return m.simulateError
	}
	h, ok := m.store[id]
	if !ok {
		return domain.ErrHabitNotFound
	}
	now := time.Now().UTC()
	h.DeletedAt = &now
	h.Version++
	h.UpdatedAt = now
	return nil
}

func (m *MockRepo) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changes []*domain.Habit
	for _, h := range m.store {
		if h.UserID == userID && h.UpdatedAt.After(since) {
			clone := *h
			changes = append(changes, &clone)
		}
	}
	return changes, nil
}

func (m *MockRepo) UpdateProgress(ctx context.Context, id string, streak domain.Streak, stats domain.Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return m.simulateError
	}
	h, ok := m.store[id]
	if !ok {
		return domain.ErrHabitNotFound
	}
	h.Streak = streak
	h.Stats = stats
	return nil
}

func (m *MockRepo) stored(id string) domain.Habit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.store[id]
}

type MockTaskRepo struct {
	mu            sync.Mutex
	store         map[string]*domain.Task
	simulateError error
}

func NewMockTaskRepo() *MockTaskRepo {
	return &MockTaskRepo{store: make(map[string]*domain.Task)}
}

func (m *MockTaskRepo) Create(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return m.simulateError
	}
	if _, exists := m.store[task.ID]; exists {
		return errors.New("duplicate key value violates unique constraint")
	}
	clone := *task
	m.store[task.ID] = &clone
	return nil
}

func (m *MockTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	t, ok := m.store[id]
	if !ok || t.DeletedAt != nil {
		return nil, domain.ErrTaskNotFound
	}
	clone := *t
	return &clone, nil
}

func (m *MockTaskRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var list []*domain.Task
	for _, t := range m.store {
		if t.UserID == userID && t.DeletedAt == nil {
			clone := *t
			list = append(list, &clone)
		}
	}
	return list, nil
}

func (m *MockTaskRepo) Update(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.store[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if stored.Version != task.Version {
		return domain.ErrTaskConflict
	}
	task.Version++
	clone := *task
	m.store[task.ID] = &clone
	return nil
}

func (m *MockTaskRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	now := time.Now().UTC()
	t.DeletedAt = &now
	t.UpdatedAt = now
	t.Version++
	return nil
}

func (m *MockTaskRepo) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changes []*domain.Task
	for _, t := range m.store {
		if t.UserID == userID && t.UpdatedAt.After(since) {
			clone := *t
			changes = append(changes, &clone)
		}
	}
	return changes, nil
}

type completionKey struct {
	habitID string
	date    civil.Date
}

// MockCompletionRepo keeps one record per (habit, date), like the unique
// index on the completions table.
type MockCompletionRepo struct {
	mu            sync.Mutex
	store         map[completionKey]domain.CompletionRecord
	upserts       int
	simulateError error
}

func NewMockCompletionRepo() *MockCompletionRepo {
	return &MockCompletionRepo{store: make(map[completionKey]domain.CompletionRecord)}
}

func (m *MockCompletionRepo) Upsert(ctx context.Context, record *domain.CompletionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return m.simulateError
	}
	m.upserts++
	m.store[completionKey{record.HabitID, record.Date}] = *record
	return nil
}

func (m *MockCompletionRepo) GetByDate(ctx context.Context, habitID string, d civil.Date) (*domain.CompletionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[completionKey{habitID, d}]
	if !ok {
		return nil, domain.ErrCompletionNotFound
	}
	return &r, nil
}

func (m *MockCompletionRepo) ListByHabitID(ctx context.Context, habitID string) ([]domain.CompletionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var out []domain.CompletionRecord
	for k, r := range m.store {
		if k.habitID == habitID {
			out = append(out, r)
		}
	}
	return domain.NewCompletionLog(out).Records(), nil
}

func (m *MockCompletionRepo) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to civil.Date) ([]domain.CompletionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var out []domain.CompletionRecord
	for _, r := range m.store {
		if r.UserID == userID && !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockCompletionRepo) GetChanges(ctx context.Context, userID string, since time.Time) ([]domain.CompletionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CompletionRecord
	for _, r := range m.store {
		if r.UserID == userID && r.UpdatedAt.After(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockCompletionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

// MockHabitRepo and MockCompletionRepoT are testify mocks for the error paths.
type MockHabitRepo struct {
	mock.Mock
}

func (m *MockHabitRepo) Create(ctx context.Context, habit *domain.Habit) error {
	return m.Called(ctx, habit).Error(0)
}

func (m *MockHabitRepo) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Habit), args.Error(1)
}

func (m *MockHabitRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Habit), args.Error(1)
}

func (m *MockHabitRepo) Update(ctx context.Context, habit *domain.Habit) error {
	return m.Called(ctx, habit).Error(0)
}

func (m *MockHabitRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockHabitRepo) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Habit), args.Error(1)
}

func (m *MockHabitRepo) UpdateProgress(ctx context.Context, id string, streak domain.Streak, stats domain.Stats) error {
	return m.Called(ctx, id, streak, stats).Error(0)
}

type MockCompletionRepoT struct {
	mock.Mock
}

func (m *MockCompletionRepoT) Upsert(ctx context.Context, record *domain.CompletionRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockCompletionRepoT) GetByDate(ctx context.Context, habitID string, d civil.Date) (*domain.CompletionRecord, error) {
	args := m.Called(ctx, habitID, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CompletionRecord), args.Error(1)
}

func (m *MockCompletionRepoT) ListByHabitID(ctx context.Context, habitID string) ([]domain.CompletionRecord, error) {
	args := m.Called(ctx, habitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CompletionRecord), args.Error(1)
}

func (m *MockCompletionRepoT) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to civil.Date) ([]domain.CompletionRecord, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CompletionRecord), args.Error(1)
}

func (m *MockCompletionRepoT) GetChanges(ctx context.Context, userID string, since time.Time) ([]domain.CompletionRecord, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CompletionRecord), args.Error(1)
}
