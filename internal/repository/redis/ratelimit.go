package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "ratelimit:"

// RateLimiter enforces a sliding-window request cap per client key.
// Each request lands as a timestamped member in a per-key sorted set;
// members older than the window are purged before counting.
type RateLimiter struct {
	client   *Client
	requests int
	burst    int
	window   time.Duration
}

// NewRateLimiter creates a new rate limiter. requests is the sustained
// cap per window, burst the extra headroom on top of it.
func NewRateLimiter(client *Client, requests, burst int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		client:   client,
		requests: requests,
		burst:    burst,
		window:   window,
	}
}

// Allow records a request for key and reports whether it fits the window.
// Returns (allowed, remaining, resetTime, error).
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	fullKey := rateLimitPrefix + key
	now := time.Now()
	cutoff := now.Add(-r.window).UnixNano()
	member := strconv.FormatInt(now.UnixNano(), 10)

	pipe := r.client.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, fullKey, "0", strconv.FormatInt(cutoff, 10))
	pipe.ZAdd(ctx, fullKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	countCmd := pipe.ZCard(ctx, fullKey)
	pipe.Expire(ctx, fullKey, r.window)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return false, 0, time.Time{}, fmt.Errorf("failed to execute rate limit check: %w", err)
	}

	limit := int64(r.requests + r.burst)
	count := countCmd.Val()
	allowed := count <= limit

	if !allowed {
		// A rejected request must not extend the caller's penalty.
		r.client.rdb.ZRem(ctx, fullKey, member)
	}

	remaining := int(limit - count)
	if remaining < 0 {
		remaining = 0
	}
	return allowed, remaining, now.Add(r.window), nil
}

// Reset clears the recorded requests for a key
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.rdb.Del(ctx, rateLimitPrefix+key).Err()
}
