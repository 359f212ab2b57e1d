package services

import (
	"context"
	"errors"
	"log"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/engine"
	"github.com/comitanigiacomo/kanso-progress/internal/metrics"
)

// MaxAgendaRange bounds how many days one agenda request may span.
const MaxAgendaRange = 62

var ErrAgendaRange = errors.New("agenda range must be between 1 and 62 days")

type AgendaService struct {
	habitRepo      domain.HabitRepository
	taskRepo       domain.TaskRepository
	completionRepo domain.CompletionRepository
	policy         engine.AgendaPolicy
}

func NewAgendaService(habitRepo domain.HabitRepository, taskRepo domain.TaskRepository, completionRepo domain.CompletionRepository, policy engine.AgendaPolicy) *AgendaService {
	return &AgendaService{
		habitRepo:      habitRepo,
		taskRepo:       taskRepo,
		completionRepo: completionRepo,
		policy:         policy,
	}
}

type AgendaDay struct {
	Date    civil.Date           `json:"date"`
	Entries []engine.AgendaEntry `json:"entries"`
}

func (s *AgendaService) ForDate(ctx context.Context, userID string, date civil.Date) (*AgendaDay, error) {
	days, err := s.ForRange(ctx, userID, date, date)
	if err != nil {
		return nil, err
	}
	return &days[0], nil
}

// ForRange builds one agenda per day in [from, to]. Habits, tasks and the
// completions of the range are loaded once, concurrently.
func (s *AgendaService) ForRange(ctx context.Context, userID string, from, to civil.Date) ([]AgendaDay, error) {
	span := to.DaysSince(from) + 1
	if span < 1 || span > MaxAgendaRange {
		return nil, ErrAgendaRange
	}

	var (
		habits      []*domain.Habit
		tasks       []*domain.Task
		completions []domain.CompletionRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		habits, err = s.habitRepo.ListByUserID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.taskRepo.ListByUserID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		completions, err = s.completionRepo.ListByUserIDAndDateRange(gctx, userID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	done := make(map[string]map[civil.Date]bool)
	for _, c := range completions {
		if !c.Completed {
			continue
		}
		if done[c.HabitID] == nil {
			done[c.HabitID] = make(map[civil.Date]bool)
		}
		done[c.HabitID][c.Date] = true
	}

	days := make([]AgendaDay, 0, span)
	for d := from; !d.After(to); d = d.AddDays(1) {
		items := make([]domain.AgendaItem, 0, len(habits)+len(tasks))
		for _, h := range habits {
			if h.ArchivedAt != nil {
				continue
			}
			item := h.AgendaItem()
			item.Completed = done[h.ID][d]
			items = append(items, item)
		}
		for _, t := range tasks {
			items = append(items, t.AgendaItem())
		}

		metrics.AgendaItems.Observe(float64(len(items)))
		entries := engine.SelectForDate(items, d, s.policy)
		for _, e := range entries {
			if e.Fallback {
				metrics.AgendaFallbacks.Inc()
				log.Printf("[AGENDA] %s %s has an invalid pattern, using its nominal date", e.Item.Kind, e.Item.ID)
			}
		}
		days = append(days, AgendaDay{Date: d, Entries: entries})
	}
	return days, nil
}
