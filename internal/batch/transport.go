package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/pkg/config"
	"github.com/wonny/fossbatch/pkg/redis"
	"github.com/wonny/fossbatch/pkg/sftp"
)

// Transport is one open partner session
type Transport interface {
	ReadMatching(dir, substr string) (map[string]string, error)
	Put(localPath, remotePath string) error
	Close() error
}

// Dialer opens a partner session with the given account
type Dialer func(account sftp.Account) (Transport, error)

// SFTPDialer dials the partner SFTP server described by cfg
func SFTPDialer(cfg config.SFTPConfig) Dialer {
	return func(account sftp.Account) (Transport, error) {
		c, err := sftp.Dial(cfg, account)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, contracts.ErrTransport)
		}
		return c, nil
	}
}

// RunLocker guards against overlapping invocations of the same operation
type RunLocker interface {
	Acquire(ctx context.Context, name string) (release func(context.Context) error, err error)
}

// RedisLocker adapts redis.Locker to RunLocker
type RedisLocker struct {
	locker *redis.Locker
	ttl    time.Duration
}

// NewRedisLocker creates a RunLocker holding each lock for at most ttl
func NewRedisLocker(locker *redis.Locker, ttl time.Duration) *RedisLocker {
	return &RedisLocker{locker: locker, ttl: ttl}
}

// Acquire implements RunLocker
func (l *RedisLocker) Acquire(ctx context.Context, name string) (func(context.Context) error, error) {
	lock, err := l.locker.Acquire(ctx, name, l.ttl)
	if errors.Is(err, redis.ErrLockHeld) {
		return nil, fmt.Errorf("%s: %w", name, contracts.ErrRunInProgress)
	}
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}
