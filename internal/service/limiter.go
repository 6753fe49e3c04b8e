package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Defaults for the registration limiter.
const (
	DefaultRegistrationLimit  = 10
	DefaultRegistrationWindow = time.Hour
)

// RedisRegistrationLimiter is a fixed-window counter over Redis. Each origin
// gets its own key; the first attempt in a window sets the expiry, and
// attempts past the limit are refused until the window rolls over.
type RedisRegistrationLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisRegistrationLimiter creates a registration limiter allowing limit
// attempts per window for each origin.
func NewRedisRegistrationLimiter(client *redis.Client, limit int, window time.Duration) *RedisRegistrationLimiter {
	if limit <= 0 {
		limit = DefaultRegistrationLimit
	}
	if window <= 0 {
		window = DefaultRegistrationWindow
	}
	return &RedisRegistrationLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow counts one registration attempt for key and reports whether it is
// within the window's limit.
func (l *RedisRegistrationLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("uauth:reglimit:%s", key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("increment registration counter: %w", err)
	}

	// Only the attempt that opens the window sets the expiry.
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("expire registration counter: %w", err)
		}
	}

	return count <= int64(l.limit), nil
}
