package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"taskquest/pkg/logger"
	"taskquest/pkg/models"
	"taskquest/pkg/utils"
)

// Locker serializes mutating operations per user across every process sharing the backend
type Locker interface {
	// Lock blocks until the user's lock is held or ctx / the wait budget runs out.
	// The returned release func is safe to call more than once.
	Lock(ctx context.Context, userID string) (release func(), err error)
}

const (
	defaultLockTTL  = 10 * time.Second
	defaultLockWait = 3 * time.Second
	lockRetryEvery  = 25 * time.Millisecond
)

// releaseScript deletes the key only when it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX PX lease per user
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker creates a locker over client. Zero ttl or wait fall back to defaults.
func NewRedisLocker(client redis.UniversalClient, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &RedisLocker{client: client, prefix: "taskquest:lock:user:", ttl: ttl, wait: wait}
}

func (l *RedisLocker) Lock(ctx context.Context, userID string) (func(), error) {
	key := l.prefix + userID
	token := utils.NewID()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire user lock: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, models.ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryEvery):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// release on a fresh context so a cancelled request still frees the lease
			rctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				logger.Warnf("failed to release lock for user %s: %v", userID, err)
			}
		})
	}, nil
}

// LocalLocker is an in-process per-user mutex for single-instance deployments and tests
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
	wait  time.Duration
}

// NewLocalLocker creates an in-process locker. Zero wait falls back to the default.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &LocalLocker{locks: make(map[string]chan struct{}), wait: wait}
}

func (l *LocalLocker) slot(userID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[userID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[userID] = ch
	}
	return ch
}

func (l *LocalLocker) Lock(ctx context.Context, userID string) (func(), error) {
	ch := l.slot(userID)
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, models.ErrLockNotAcquired
	}

	var once sync.Once
	return func() { once.Do(func() { <-ch }) }, nil
}

// NewLocker returns a RedisLocker when client is reachable and a LocalLocker otherwise
func NewLocker(ctx context.Context, client redis.UniversalClient, ttl, wait time.Duration) Locker {
	if client != nil {
		err := client.Ping(ctx).Err()
		if err == nil {
			return NewRedisLocker(client, ttl, wait)
		}
		logger.Warnf("redis unavailable, using in-process user locks: %v", err)
	}
	return NewLocalLocker(wait)
}
