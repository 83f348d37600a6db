package ingestion

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/veritrack/platform/pkg/common/logger"
)

// SubjectLocker serializes evaluation per subject so concurrent readings for
// the same subject cannot interleave transition-edge detection.
type SubjectLocker interface {
	WithLock(ctx context.Context, subjectID string, fn func(ctx context.Context) error) error
}

// RedisLocker implements SubjectLocker with a SET NX lease. Safe across
// service replicas sharing one Redis.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, wait: wait}
}

// Release only if we still hold the lease.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *RedisLocker) WithLock(ctx context.Context, subjectID string, fn func(ctx context.Context) error) error {
	key := "eval:lock:" + subjectID
	token := uuid.New().String()

	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return context.DeadlineExceeded
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	defer func() {
		if err := releaseScript.Run(context.Background(), l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			logger.Log.WithError(err).Warn("failed to release subject evaluation lock")
		}
	}()

	return fn(ctx)
}

// MutexLocker is the in-process fallback used when Redis is not configured.
// Correct only for single-instance deployments.
type MutexLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *MutexLocker) WithLock(ctx context.Context, subjectID string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[subjectID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[subjectID] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}
