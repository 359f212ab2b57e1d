package repository

import (
	"context"
	"strconv"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-progress/internal/adapters/cache"
	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	db, _ := strconv.Atoi(getEnv("REDIS_TEST_DB", "1"))
	rdb, err := cache.NewRedisClient(context.Background(), cache.Config{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", "secret_redis_pass_local"),
		DB:       db,
	})
	if err != nil {
		t.Skipf("Skipping cache tests: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	return rdb
}

func TestCachedHabitRepository(t *testing.T) {
	rdb := setupTestRedis(t)
	ctx := context.Background()

	backing := NewInMemoryHabitRepository()
	repo := NewCachedHabitRepository(backing, rdb)

	start := civil.Date{Year: 2024, Month: time.June, Day: 1}
	h := testHabit("cache-user", "Stretch", start)
	require.NoError(t, repo.Create(ctx, h))

	key := listKey("cache-user")

	t.Run("list fills the cache", func(t *testing.T) {
		list, err := repo.ListByUserID(ctx, "cache-user")
		require.NoError(t, err)
		require.Len(t, list, 1)

		exists, err := rdb.Exists(ctx, key).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)
	})

	t.Run("cached list round-trips the schedule", func(t *testing.T) {
		list, err := repo.ListByUserID(ctx, "cache-user")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, h.Recurrence.Recurrence, list[0].Recurrence.Recurrence)
		assert.Equal(t, start, list[0].StartDate)
	})

	t.Run("get by id is cached until a write", func(t *testing.T) {
		fetched, err := repo.GetByID(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, h.Title, fetched.Title)

		exists, err := rdb.Exists(ctx, habitKey(h.ID)).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)

		fetched.Title = "Stretch more"
		require.NoError(t, repo.Update(ctx, fetched))

		exists, _ = rdb.Exists(ctx, habitKey(h.ID), key).Result()
		assert.Equal(t, int64(0), exists)

		again, err := repo.GetByID(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, "Stretch more", again.Title)
		assert.Equal(t, 2, again.Version)
	})

	t.Run("a conflicting update drops the cached habit", func(t *testing.T) {
		_, err := repo.GetByID(ctx, h.ID)
		require.NoError(t, err)

		stale := *h
		stale.Version = 1
		assert.ErrorIs(t, repo.Update(ctx, &stale), domain.ErrHabitConflict)

		exists, _ := rdb.Exists(ctx, habitKey(h.ID)).Result()
		assert.Equal(t, int64(0), exists)
	})

	t.Run("missing habits are not cached", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)

		exists, _ := rdb.Exists(ctx, habitKey("ghost")).Result()
		assert.Equal(t, int64(0), exists)
	})

	t.Run("writes invalidate", func(t *testing.T) {
		_, err := repo.ListByUserID(ctx, "cache-user")
		require.NoError(t, err)

		require.NoError(t, repo.UpdateProgress(ctx, h.ID, domain.Streak{Current: 1, Best: 1}, domain.Stats{TotalCompletions: 1}))

		exists, _ := rdb.Exists(ctx, key).Result()
		assert.Equal(t, int64(0), exists)

		list, err := repo.ListByUserID(ctx, "cache-user")
		require.NoError(t, err)
		assert.Equal(t, 1, list[0].Streak.Current)

		require.NoError(t, repo.Delete(ctx, h.ID))
		exists, _ = rdb.Exists(ctx, key, habitKey(h.ID)).Result()
		assert.Equal(t, int64(0), exists)

		_, err = repo.GetByID(ctx, h.ID)
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
	})

	t.Run("corrupted entries fall back to the store", func(t *testing.T) {
		require.NoError(t, rdb.Set(ctx, key, "{not json", time.Minute).Err())

		list, err := repo.ListByUserID(ctx, "cache-user")
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
