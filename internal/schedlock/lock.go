// Package schedlock serializes the conflict-check-then-write section of
// booking operations per provider, so two near-simultaneous requests
// cannot both pass the conflict scan and double-book a slot.
package schedlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ProviderLocker acquires an exclusive lock for a provider's schedule.
// The returned function releases the lock.
type ProviderLocker interface {
	Lock(ctx context.Context, providerID uuid.UUID) (func(), error)
}

// MutexLocker is the in-process implementation, sufficient for the
// single-instance deployment this core targets.
type MutexLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewMutexLocker creates an in-process provider locker.
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock blocks until the provider's mutex is held.
func (l *MutexLocker) Lock(ctx context.Context, providerID uuid.UUID) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[providerID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[providerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

// RedisLocker implements the lock with SET NX and a TTL, for
// deployments where more than one process mutates the schedule.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker creates a redis-backed provider locker.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, retry: 25 * time.Millisecond}
}

// unlockScript deletes the key only if it still holds our token, so an
// expired lock taken over by another caller is never released by us.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// Lock polls SET NX until the lock is acquired or the context ends.
func (l *RedisLocker) Lock(ctx context.Context, providerID uuid.UUID) (func(), error) {
	key := "schedlock:provider:" + providerID.String()
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("schedlock: acquire %s: %w", key, err)
		}
		if ok {
			return func() {
				unlockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = unlockScript.Run(unlockCtx, l.client, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("schedlock: acquire %s: %w", key, ctx.Err())
		case <-time.After(l.retry):
		}
	}
}

var _ ProviderLocker = (*MutexLocker)(nil)
var _ ProviderLocker = (*RedisLocker)(nil)
