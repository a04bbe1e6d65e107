package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes read-check-write sequences under a named scope. Purchase
// and token issuance use a per-user scope so two concurrent requests for the
// same user cannot both pass a quota or plan check on stale reads.
type Locker interface {
	// Acquire blocks until the lock is held or ctx expires. The returned
	// release function is safe to call exactly once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// UserKey builds the advisory lock scope for a user.
func UserKey(userID uint) string {
	return fmt.Sprintf("lock:user:%d", userID)
}

const acquireRetryDelay = 25 * time.Millisecond

// releaseScript deletes the lock only when still owned by this holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// redisLocker implements Locker on a shared redis instance via SET NX PX.
type redisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates an advisory locker backed by redis.
func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{client: client}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	holder := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, holder, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			release := func() {
				// Best-effort: the TTL reclaims the lock if this fails.
				_ = releaseScript.Run(context.Background(), l.client, []string{key}, holder).Err()
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(acquireRetryDelay):
		}
	}
}

// memoryLocker is a single-process Locker for tests and dev setups without
// redis. TTLs are ignored; locks live until released.
type memoryLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMemoryLocker creates an in-process advisory locker.
func NewMemoryLocker() Locker {
	return &memoryLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *memoryLocker) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		m.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return m.Unlock, nil
	case <-ctx.Done():
		go func() {
			<-acquired
			m.Unlock()
		}()
		return nil, ctx.Err()
	}
}
