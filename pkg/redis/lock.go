package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another invocation already holds the lock
var ErrLockHeld = errors.New("lock already held")

// releaseScript deletes the key only when it still holds our token
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Locker hands out run locks keyed by name
// ⭐ SSOT: 배치 중복 실행 방지는 여기서만
type Locker struct {
	client *Client
	prefix string
}

// Lock is a held run lock
type Lock struct {
	locker *Locker
	key    string
	token  string
}

// NewLocker creates a new locker
func NewLocker(client *Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

// Acquire takes the lock for name, failing with ErrLockHeld if it is taken.
// When Redis is disabled the returned lock is a no-op.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (*Lock, error) {
	lock := &Lock{locker: l, key: fmt.Sprintf("%s:lock:%s", l.prefix, name), token: uuid.NewString()}
	if !l.client.Enabled() {
		return lock, nil
	}

	ok, err := l.client.Redis().SetNX(ctx, lock.key, lock.token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrLockHeld)
	}
	return lock, nil
}

// Release frees the lock if it is still ours
func (k *Lock) Release(ctx context.Context) error {
	if k == nil || !k.locker.client.Enabled() {
		return nil
	}
	if err := releaseScript.Run(ctx, k.locker.client.Redis(), []string{k.key}, k.token).Err(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
