package workers

import (
	"context"
	"log"
	"time"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/engine"
	"github.com/comitanigiacomo/kanso-progress/internal/metrics"
)

type HabitRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Habit, error)
	UpdateProgress(ctx context.Context, id string, streak domain.Streak, stats domain.Stats) error
}

type CompletionRepository interface {
	ListByHabitID(ctx context.Context, habitID string) ([]domain.CompletionRecord, error)
}

type ProgressJob struct {
	HabitID string
}

// ProgressWorker rebuilds the cached streak and stats of a habit from its
// full completion history.
type ProgressWorker struct {
	habitRepo      HabitRepository
	completionRepo CompletionRepository
	windowDays     int
	now            func() time.Time
	jobs           chan ProgressJob
}

func NewProgressWorker(hRepo HabitRepository, cRepo CompletionRepository, windowDays int) *ProgressWorker {
	return &ProgressWorker{
		habitRepo:      hRepo,
		completionRepo: cRepo,
		windowDays:     windowDays,
		now:            time.Now,
		jobs:           make(chan ProgressJob, 100),
	}
}

func (w *ProgressWorker) Start(ctx context.Context) {
	go func() {
		log.Println("[WORKER] Progress worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				if err := w.Recompute(ctx, job.HabitID); err != nil {
					metrics.WorkerJobs.WithLabelValues("failed").Inc()
					log.Printf("[WORKER] Job for habit %s failed: %v", job.HabitID, err)
				}
			case <-ctx.Done():
				log.Println("[WORKER] Progress worker shutting down...")
				return
			}
		}
	}()
}

// Enqueue schedules a rebuild. It never blocks: when the queue is full the
// job is dropped and the next write for the habit will retry.
func (w *ProgressWorker) Enqueue(habitID string) {
	select {
	case w.jobs <- ProgressJob{HabitID: habitID}:
	default:
		metrics.WorkerJobs.WithLabelValues("dropped").Inc()
		log.Printf("[WORKER] Queue full! Dropping job for habit %s", habitID)
	}
}

// Recompute derives streak and stats from a fresh snapshot and stores them
// when they differ from the cached values.
func (w *ProgressWorker) Recompute(ctx context.Context, habitID string) error {
	habit, err := w.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return err
	}

	records, err := w.completionRepo.ListByHabitID(ctx, habitID)
	if err != nil {
		return err
	}

	today := domain.DateOf(w.now())
	streak := engine.ComputeStreak(records, today)
	stats := engine.ComputeStats(records, w.windowDays, today)

	if !habit.UpdateProgress(streak, stats) {
		metrics.WorkerJobs.WithLabelValues("unchanged").Inc()
		return nil
	}

	if err := w.habitRepo.UpdateProgress(ctx, habitID, streak, stats); err != nil {
		return err
	}

	metrics.WorkerJobs.WithLabelValues("processed").Inc()
	log.Printf("[WORKER] Progress updated for %s: Current=%d, Best=%d, Consistency=%.1f%%",
		habit.Title, streak.Current, streak.Best, stats.Consistency)
	return nil
}
