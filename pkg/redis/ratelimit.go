package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window request counter shared by every batch process
// hitting the same external API.
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig allows Limit calls per Window under Key
type RateLimitConfig struct {
	Key    string
	Limit  int
	Window time.Duration
}

// NewRateLimiter creates a limiter scoped to prefix
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{client: client, prefix: prefix}
}

// fixedWindow returns {count, pttl}; the first hit of a window starts its expiry
var fixedWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// minRetry bounds the Wait loop when PTTL is already (almost) zero
const minRetry = 10 * time.Millisecond

// Allow counts one call. When refused, retryAfter is the rest of the window.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (allowed bool, retryAfter time.Duration, err error) {
	if !r.client.Enabled() {
		return true, 0, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	res, err := fixedWindow.Run(ctx, r.client.Redis(), []string{key}, cfg.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", cfg.Key, err)
	}

	if res[0] <= int64(cfg.Limit) {
		return true, 0, nil
	}
	retryAfter = time.Duration(res[1]) * time.Millisecond
	if retryAfter < minRetry {
		retryAfter = minRetry
	}
	return false, retryAfter, nil
}

// Wait blocks until Allow admits the call or ctx ends
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, retryAfter, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// HolidayAPIRateLimit 공공데이터포털: 초당 5회 (보수적)
var HolidayAPIRateLimit = RateLimitConfig{
	Key:    "holiday",
	Limit:  5,
	Window: time.Second,
}
