package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-progress/internal/metrics"
)

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// Exempt lists route templates that are never counted, such as /health.
	Exempt []string
}

// RateLimiterMiddleware is a fixed-window limiter per client IP, stored in
// Redis. It fails open when Redis is unreachable.
func RateLimiterMiddleware(rdb *redis.Client, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	return func(c *gin.Context) {
		if slices.Contains(cfg.Exempt, c.FullPath()) {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s", c.ClientIP())
		count, ttl, err := hit(c.Request.Context(), rdb, key, cfg.Window)
		if err != nil {
			log.Printf("[RATE] Redis error, limiter skipped: %v", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(cfg.Limit)-count), 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if count > int64(cfg.Limit) {
			retry := int(ttl.Round(time.Second).Seconds())
			metrics.RateLimited.Inc()
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":     "error",
				"message":    "Too many requests. Slow down!",
				"retry_in_s": retry,
			})
			return
		}

		c.Next()
	}
}

// hit counts one request in the current window. INCR and TTL share a round
// trip; a key left without expiry gets one here, so a crash between the two
// commands cannot lock a client out for good.
func hit(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int64, time.Duration, error) {
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	if _, err := rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	}); err != nil {
		return 0, 0, err
	}

	remaining := ttl.Val()
	if remaining < 0 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			log.Printf("[RATE] Redis expire error: %v, deleting key", err)
			rdb.Del(ctx, key)
			return 0, 0, err
		}
		remaining = window
	}
	return incr.Val(), remaining, nil
}
