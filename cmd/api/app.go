package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-progress/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-progress/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-progress/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-progress/internal/config"
	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/engine"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
	"github.com/comitanigiacomo/kanso-progress/internal/core/workers"
)

const connectTimeout = 10 * time.Second

// app owns the router and the connections it was built on.
type app struct {
	router *gin.Engine
	db     *sqlx.DB
	redis  *redis.Client
}

type repositories struct {
	users       domain.UserRepository
	habits      domain.HabitRepository
	tasks       domain.TaskRepository
	completions domain.CompletionRepository
}

// newApp wires storage, cache, worker, services and handlers. The progress
// worker lives until ctx is cancelled.
func newApp(ctx context.Context, cfg *config.Config, startTime time.Time) (*app, error) {
	holidays, err := config.LoadHolidays(cfg.HolidaysFile)
	if err != nil {
		return nil, err
	}
	if len(holidays) > 0 {
		log.Printf("[CONFIG] Loaded %d holidays from %s", len(holidays), cfg.HolidaysFile)
	}

	a := &app{}
	var repos repositories

	switch cfg.Storage {
	case config.StorageMemory:
		log.Println("[STORAGE] Using in-memory repositories, data is lost on restart")
		repos = repositories{
			users:       repository.NewInMemoryUserRepository(),
			habits:      repository.NewInMemoryHabitRepository(),
			tasks:       repository.NewInMemoryTaskRepository(),
			completions: repository.NewInMemoryCompletionRepository(),
		}
	default:
		log.Printf("[STORAGE] Connecting to database with driver %s...", cfg.DB.Driver)
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		db, err := repository.Connect(connectCtx, cfg.DB.Driver, cfg.DB.DSN())
		if err != nil {
			return nil, err
		}
		if err := repository.Migrate(connectCtx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Println("[STORAGE] Database connected and migrated.")

		a.db = db
		repos = repositories{
			users:       repository.NewPostgresUserRepository(db),
			habits:      repository.NewPostgresHabitRepository(db),
			tasks:       repository.NewPostgresTaskRepository(db),
			completions: repository.NewPostgresCompletionRepository(db),
		}
	}

	if cfg.RedisEnabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Printf("[CACHE] Redis unavailable at %s, continuing without cache and rate limiting: %v", cfg.Redis.Addr(), err)
		} else {
			log.Printf("[CACHE] Connected to Redis at %s", cfg.Redis.Addr())
			a.redis = client
			repos.habits = repository.NewCachedHabitRepository(repos.habits, client)
		}
	}

	worker := workers.NewProgressWorker(repos.habits, repos.completions, cfg.WindowDays)
	worker.Start(ctx)

	policy := engine.AgendaPolicy{
		PriorityThreshold: cfg.PriorityThreshold,
		Holidays:          holidays,
	}

	var clock services.Clock = time.Now

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL, repos.users)
	authService := services.NewAuthService(repos.users)
	habitService := services.NewHabitService(repos.habits, clock)
	taskService := services.NewTaskService(repos.tasks, clock)
	completionService := services.NewCompletionService(repos.completions, repos.habits, worker, cfg.WindowDays, clock)
	agendaService := services.NewAgendaService(repos.habits, repos.tasks, repos.completions, policy)
	statsService := services.NewStatsService(repos.habits, repos.completions, holidays, cfg.WindowDays, clock)

	a.router = adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:       adapterHTTP.NewAuthHandler(authService, tokens),
		HabitHandler:      adapterHTTP.NewHabitHandler(habitService),
		TaskHandler:       adapterHTTP.NewTaskHandler(taskService),
		CompletionHandler: adapterHTTP.NewCompletionHandler(completionService, clock),
		AgendaHandler:     adapterHTTP.NewAgendaHandler(agendaService, clock),
		StatsHandler:      adapterHTTP.NewStatsHandler(statsService, clock),
		TokenService:      tokens,
		DB:                a.db,
		Redis:             a.redis,
		AllowedOrigins:    cfg.AllowedOrigins,
		RateLimit:         cfg.RateLimit,
		RateWindow:        cfg.RateWindow,
		StartTime:         startTime,
	})

	return a, nil
}

func (a *app) Close() error {
	var firstErr error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			firstErr = fmt.Errorf("close redis: %w", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close database: %w", err)
		}
	}
	return firstErr
}
