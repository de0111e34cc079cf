package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// windowCounter increments the hit count of key within a fixed window.
type windowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type redisCounter struct {
	rdb *redis.Client
}

func (r redisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter is a fixed-window limiter keyed by client IP. Counters live in
// Redis so the limit is shared by all replicas. When Redis is unavailable
// requests are let through.
type RateLimiter struct {
	name    string
	limit   int
	window  time.Duration
	counter windowCounter
	logger  *zap.Logger
}

func NewRateLimiter(rdb *redis.Client, name string, limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{name: name, limit: limit, window: window, logger: logger}
	if rdb != nil {
		rl.counter = redisCounter{rdb: rdb}
	}
	return rl
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.counter == nil || rl.limit <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 250*time.Millisecond)
		defer cancel()

		key := fmt.Sprintf("ratelimit:%s:%s", rl.name, c.ClientIP())
		count, err := rl.counter.Incr(ctx, key, rl.window)
		if err != nil {
			rl.logger.Warn("Rate limiter unavailable, allowing request",
				zap.String("limiter", rl.name),
				zap.Error(err),
			)
			c.Next()
			return
		}

		remaining := int64(rl.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rl.limit) {
			recordRateLimited(rl.name)
			abort(c, http.StatusTooManyRequests, "Too many requests, please try again later.")
			return
		}
		c.Next()
	}
}
