package cli

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/comitanigiacomo/kanso-progress/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/engine"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
)

// workspace is a plan loaded into in-memory repositories, with every service
// clock pinned to the reference date.
type workspace struct {
	today    civil.Date
	holidays domain.HolidaySet

	habits      *services.HabitService
	tasks       *services.TaskService
	completions *services.CompletionService
	agenda      *services.AgendaService
	stats       *services.StatsService
}

func (o *RootOptions) referenceDate() (civil.Date, error) {
	if o.Today == "" {
		return domain.DateOf(time.Now()), nil
	}
	return domain.ParseDateField("today", o.Today)
}

// dateFlag parses an optional command date, defaulting to the reference date.
func dateFlag(name, raw string, fallback civil.Date) (civil.Date, error) {
	if raw == "" {
		return fallback, nil
	}
	return domain.ParseDateField(name, raw)
}

func openWorkspace(ctx context.Context, opts *RootOptions) (*workspace, error) {
	today, err := opts.referenceDate()
	if err != nil {
		return nil, err
	}
	if opts.WindowDays < 1 {
		return nil, fmt.Errorf("--window must be positive (got %d)", opts.WindowDays)
	}
	threshold, err := domain.ParsePriority(opts.PriorityThreshold)
	if err != nil {
		return nil, fmt.Errorf("--priority-threshold: %w", err)
	}

	plan, err := LoadPlan(opts.PlanPath)
	if err != nil {
		return nil, err
	}
	holidays, err := plan.HolidaySet()
	if err != nil {
		return nil, err
	}

	noon := today.In(time.UTC).Add(12 * time.Hour)
	clock := func() time.Time { return noon }

	habitRepo := repository.NewInMemoryHabitRepository()
	taskRepo := repository.NewInMemoryTaskRepository()
	completionRepo := repository.NewInMemoryCompletionRepository()

	ws := &workspace{
		today:       today,
		holidays:    holidays,
		habits:      services.NewHabitService(habitRepo, clock),
		tasks:       services.NewTaskService(taskRepo, clock),
		completions: services.NewCompletionService(completionRepo, habitRepo, nil, opts.WindowDays, clock),
		agenda: services.NewAgendaService(habitRepo, taskRepo, completionRepo, engine.AgendaPolicy{
			PriorityThreshold: threshold,
			Holidays:          holidays,
		}),
		stats: services.NewStatsService(habitRepo, completionRepo, holidays, opts.WindowDays, clock),
	}

	if err := plan.seed(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}
