package infra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrInFlight is returned when another operation already holds the key.
var ErrInFlight = errors.New("another operation on this record is in progress")

// Guard serialises operations per key. Acquire returns a release func that
// must be called once the operation is done.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// ── Redis ────────────────────────────────────────────────────────────────────

type redisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisGuard uses SET NX PX so the lock is shared across instances.
// ttl bounds how long a crashed holder can block the key.
func NewRedisGuard(rdb *redis.Client, ttl time.Duration) Guard {
	return &redisGuard{rdb: rdb, ttl: ttl}
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)

func (g *redisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	lockKey := "inflight:" + key
	ok, err := g.rdb.SetNX(ctx, lockKey, token, g.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInFlight
	}
	return func() {
		_ = releaseScript.Run(context.Background(), g.rdb, []string{lockKey}, token).Err()
	}, nil
}

// ── In-process ───────────────────────────────────────────────────────────────

type memoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryGuard is a single-process Guard.
func NewMemoryGuard() Guard {
	return &memoryGuard{held: make(map[string]struct{})}
}

func (g *memoryGuard) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, ErrInFlight
	}
	g.held[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}
