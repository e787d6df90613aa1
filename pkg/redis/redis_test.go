package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fossbatch/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	allowed, retryAfter, err := limiter.Allow(context.Background(), HolidayAPIRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed, "requests pass through when Redis is disabled")
	assert.Zero(t, retryAfter)
	assert.NoError(t, limiter.Wait(context.Background(), HolidayAPIRateLimit))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	var result []string
	found, err := cache.Get(ctx, HolidayKey(2024, 1), &result)
	require.NoError(t, err)
	assert.False(t, found)

	calls := 0
	err = cache.GetOrSet(ctx, HolidayKey(2024, 1), &result, TTLHoliday, func() (interface{}, error) {
		calls++
		return []string{"20240101"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"20240101"}, result)
}

func TestCache_InvalidateDisabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	assert.NoError(t, cache.Invalidate(context.Background(), HolidayYearKeys(2024)...))
	assert.NoError(t, cache.Invalidate(context.Background()))

	var nilCache *Cache
	assert.NoError(t, nilCache.Invalidate(context.Background(), HolidayKey(2024, 1)))
}

func TestHolidayKey(t *testing.T) {
	assert.Equal(t, "holiday:202401", HolidayKey(2024, 1))
	assert.Equal(t, "holiday:202412", HolidayKey(2024, 12))

	keys := HolidayYearKeys(2024)
	require.Len(t, keys, 12)
	assert.Equal(t, "holiday:202401", keys[0])
	assert.Equal(t, "holiday:202412", keys[11])
}

func TestCache_Integration(t *testing.T) {
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	client, err := New(config.RedisConfig{Enabled: true, Host: os.Getenv("REDIS_HOST"), Port: "6379"})
	require.NoError(t, err)
	defer client.Close()

	cache := NewCache(client, "fossbatch-test")
	ctx := context.Background()
	key := HolidayKey(2024, 12)
	require.NoError(t, cache.Set(ctx, key, []string{"20241225"}, time.Minute))

	var got []string
	found, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"20241225"}, got)

	require.NoError(t, cache.Invalidate(ctx, HolidayYearKeys(2024)...))
	found, err = cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLocker_Disabled(t *testing.T) {
	locker := NewLocker(disabledClient(t), "fossbatch")
	ctx := context.Background()

	first, err := locker.Acquire(ctx, "SEND_MPRATE:20241210", time.Minute)
	require.NoError(t, err)

	// no-op locks never conflict
	second, err := locker.Acquire(ctx, "SEND_MPRATE:20241210", time.Minute)
	require.NoError(t, err)

	assert.NoError(t, first.Release(ctx))
	assert.NoError(t, second.Release(ctx))
}

func TestLocker_Integration(t *testing.T) {
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	client, err := New(config.RedisConfig{Enabled: true, Host: os.Getenv("REDIS_HOST"), Port: "6379"})
	require.NoError(t, err)
	defer client.Close()

	locker := NewLocker(client, "fossbatch-test")
	ctx := context.Background()

	lock, err := locker.Acquire(ctx, "SEND_REBALCUS:20241210", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "SEND_REBALCUS:20241210", time.Minute)
	assert.True(t, errors.Is(err, ErrLockHeld))

	require.NoError(t, lock.Release(ctx))

	again, err := locker.Acquire(ctx, "SEND_REBALCUS:20241210", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}
