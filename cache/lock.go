package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ReconcileLockKey guards reconciliation runs across processes
const ReconcileLockKey = "survivor:reconcile:lock"

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// UnlockFunc releases a held lock
type UnlockFunc func(ctx context.Context) error

// RedisLock is a single-key mutex with a TTL (SET NX PX)
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisLock creates a lock on key that expires after ttl if never released
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, key: key, ttl: ttl}
}

// TryLock attempts to take the lock without waiting. ok is false when
// another holder has it.
func (l *RedisLock) TryLock(ctx context.Context) (UnlockFunc, bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", l.key, err)
		}
		return nil
	}
	return unlock, true, nil
}

// NoopLock always succeeds; used when Redis is not configured
type NoopLock struct{}

// TryLock always acquires
func (NoopLock) TryLock(context.Context) (UnlockFunc, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}
