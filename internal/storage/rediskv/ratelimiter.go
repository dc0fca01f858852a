package rediskv

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a windowed counter; the API uses it to throttle login attempts.
type RateLimiter struct {
	c *redis.Client
}

func NewRateLimiter(addr string) *RateLimiter {
	return &RateLimiter{
		c: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// Allow делает INCR по ключу и продлевает TTL окна.
// Возвращает (allowed, currentCount).
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}
	n := incr.Val()
	return n <= limit, n, nil
}

// Reset drops the window, e.g. after a successful login.
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	if err := rl.c.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "redis ratelimit reset")
	}
	return nil
}

func (rl *RateLimiter) Close() error {
	return rl.c.Close()
}
