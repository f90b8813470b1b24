// Package lock provides a Redis-backed distributed lock used to keep
// scheduled jobs single-flight across worker replicas.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned by TryWithLock when another holder owns the key.
var ErrNotAcquired = errors.New("lock: not acquired")

// Locker acquires locks via SET NX with a unique token per acquisition so a
// holder never releases a lock that expired and was re-acquired elsewhere.
type Locker struct {
	R            *redis.Client
	RetryBackoff time.Duration
}

// TryWithLock runs fn while holding the lock, or returns ErrNotAcquired
// without blocking when the key is already held. The lock is released when fn
// returns; if fn outlives ttl the key simply expires.
func (l Locker) TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	token, err := l.acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer l.release(key, token)
	return fn(ctx)
}

// WithLock runs fn while holding the lock, polling until the key frees up or
// the context is cancelled.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	for {
		token, err := l.acquire(ctx, key, ttl)
		if err == nil {
			defer l.release(key, token)
			return fn(ctx)
		}
		if !errors.Is(err, ErrNotAcquired) {
			return err
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l Locker) acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if l.R == nil {
		return "", errors.New("lock: redis client not configured")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token := uuid.NewString()
	ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotAcquired
	}
	return token, nil
}

// releaseScript deletes the key only when the stored token still matches.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

func (l Locker) release(key, token string) {
	// Release with a fresh context so cancellation of the caller does not
	// leave the key held until its TTL expires.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = l.R.Eval(ctx, releaseScript, []string{key}, token).Err()
}
