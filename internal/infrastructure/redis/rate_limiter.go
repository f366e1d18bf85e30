package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const rateLimitKeyPrefix = "ratelimit:bids:"

// The window starts with the first increment; later increments keep its TTL.
var acquireScript = redis.NewScript(`
        local current = tonumber(redis.call('GET', KEYS[1]) or '0')
        if current >= tonumber(ARGV[1]) then
            return 0
        end
        redis.call('INCR', KEYS[1])
        if redis.call('PTTL', KEYS[1]) < 0 then
            redis.call('PEXPIRE', KEYS[1], ARGV[2])
        end
        return 1
    `)

var releaseScript = redis.NewScript(`
        local current = tonumber(redis.call('GET', KEYS[1]) or '0')
        if current > 0 then
            return redis.call('DECR', KEYS[1])
        end
        return 0
    `)

type RedisRateLimiter struct {
	client *redis.Client
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

func rateLimitKey(userID string) string {
	return rateLimitKeyPrefix + userID
}

func (r *RedisRateLimiter) Count(ctx context.Context, userID string) (int, error) {
	result, err := r.client.Get(ctx, rateLimitKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("rate limit count: %w", err)
	}

	count, err := strconv.Atoi(result)
	if err != nil {
		return 0, fmt.Errorf("rate limit count: %w", err)
	}
	return count, nil
}

func (r *RedisRateLimiter) Acquire(ctx context.Context, userID string, limit int, window time.Duration) (bool, error) {
	result, err := acquireScript.Run(ctx, r.client, []string{rateLimitKey(userID)},
		limit, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit acquire: %w", err)
	}
	return result == 1, nil
}

func (r *RedisRateLimiter) Release(ctx context.Context, userID string) error {
	if err := releaseScript.Run(ctx, r.client, []string{rateLimitKey(userID)}).Err(); err != nil {
		return fmt.Errorf("rate limit release: %w", err)
	}
	return nil
}
