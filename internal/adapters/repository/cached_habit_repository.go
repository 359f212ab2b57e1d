package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

var _ domain.HabitRepository = (*CachedHabitRepository)(nil)

const (
	habitListTTL = 30 * time.Minute
	habitTTL     = 10 * time.Minute
)

// CachedHabitRepository is a read-through Redis cache in front of a habit
// store. It caches each user's habit list and single habits by id; the agenda
// and stats read the former, the toggle path and the progress worker the
// latter. Every write drops both the habit and its owner's list.
type CachedHabitRepository struct {
	next  domain.HabitRepository
	cache *redis.Client
}

func NewCachedHabitRepository(next domain.HabitRepository, cache *redis.Client) *CachedHabitRepository {
	return &CachedHabitRepository{next: next, cache: cache}
}

func listKey(userID string) string { return fmt.Sprintf("habits:user:%s", userID) }
func habitKey(id string) string    { return fmt.Sprintf("habits:id:%s", id) }

// load returns the cached value under key. Misses and undecodable entries
// report false; the latter are removed.
func load[T any](ctx context.Context, rdb *redis.Client, key string) (T, bool) {
	var out T

	val, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[CACHE] Redis read error on %s: %v", key, err)
		}
		return out, false
	}
	if err := json.Unmarshal(val, &out); err != nil {
		log.Printf("[CACHE] Corrupted entry %s, cleaning up key", key)
		rdb.Del(ctx, key)
		return out, false
	}
	return out, true
}

func (r *CachedHabitRepository) store(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[CACHE] Encode error on %s: %v", key, err)
		return
	}
	if err := r.cache.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("[CACHE] Redis set error on %s: %v", key, err)
	}
}

func (r *CachedHabitRepository) invalidate(ctx context.Context, userID, habitID string) {
	if err := r.cache.Del(ctx, listKey(userID), habitKey(habitID)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate habit %s of user %s: %v", habitID, userID, err)
	}
}

func (r *CachedHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	if habits, ok := load[[]*domain.Habit](ctx, r.cache, listKey(userID)); ok {
		return habits, nil
	}

	habits, err := r.next.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, listKey(userID), habits, habitListTTL)
	return habits, nil
}

func (r *CachedHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	if habit, ok := load[*domain.Habit](ctx, r.cache, habitKey(id)); ok && habit != nil {
		return habit, nil
	}

	habit, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, habitKey(id), habit, habitTTL)
	return habit, nil
}

// GetChanges always reads the store; sync cursors must not see stale rows.
func (r *CachedHabitRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	return r.next.GetChanges(ctx, userID, since)
}

func (r *CachedHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Create(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx, habit.UserID, habit.ID)
	return nil
}

func (r *CachedHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	err := r.next.Update(ctx, habit)
	// A version conflict means the cached copy may be the stale one.
	if err == nil || errors.Is(err, domain.ErrHabitConflict) {
		r.invalidate(ctx, habit.UserID, habit.ID)
	}
	return err
}

func (r *CachedHabitRepository) Delete(ctx context.Context, id string) error {
	return r.writeByID(ctx, id, func() error { return r.next.Delete(ctx, id) })
}

func (r *CachedHabitRepository) UpdateProgress(ctx context.Context, id string, streak domain.Streak, stats domain.Stats) error {
	return r.writeByID(ctx, id, func() error { return r.next.UpdateProgress(ctx, id, streak, stats) })
}

// writeByID runs a write addressed by id only, then invalidates using the
// owner found before the write.
func (r *CachedHabitRepository) writeByID(ctx context.Context, id string, write func() error) error {
	habit, lookupErr := r.GetByID(ctx, id)
	if err := write(); err != nil {
		return err
	}
	if lookupErr == nil {
		r.invalidate(ctx, habit.UserID, id)
	} else if err := r.cache.Del(ctx, habitKey(id)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate habit %s: %v", id, err)
	}
	return nil
}
