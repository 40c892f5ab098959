package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/cliplink/cliplink-api/internal/pkg/response"
)

// Clock abstracts time for the limiter so tests can drive the window.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// LimitStore counts hits per key within a fixed window. Implementations must
// be safe for concurrent use.
type LimitStore interface {
	Incr(ctx context.Context, key string, windowStart time.Time, ttl time.Duration) (int64, error)
}

// MemoryLimitStore is the single-process store.
type MemoryLimitStore struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
}

type memoryBucket struct {
	windowStart time.Time
	count       int64
}

// NewMemoryLimitStore creates an in-memory limit store.
func NewMemoryLimitStore() *MemoryLimitStore {
	return &MemoryLimitStore{buckets: make(map[string]*memoryBucket)}
}

func (s *MemoryLimitStore) Incr(_ context.Context, key string, windowStart time.Time, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || !b.windowStart.Equal(windowStart) {
		b = &memoryBucket{windowStart: windowStart}
		s.buckets[key] = b
	}
	b.count++
	return b.count, nil
}

// RedisLimitStore shares windows across instances.
type RedisLimitStore struct {
	client *redis.Client
	prefix string
}

// NewRedisLimitStore creates a Redis-backed limit store.
func NewRedisLimitStore(client *redis.Client, prefix string) *RedisLimitStore {
	return &RedisLimitStore{client: client, prefix: prefix}
}

func (s *RedisLimitStore) Incr(ctx context.Context, key string, windowStart time.Time, ttl time.Duration) (int64, error) {
	redisKey := fmt.Sprintf("%s:%s:%d", s.prefix, key, windowStart.Unix())

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter enforces a fixed-window request limit per key.
type RateLimiter struct {
	store  LimitStore
	clock  Clock
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter. A nil clock means the wall clock.
func NewRateLimiter(store LimitStore, clock Clock, limit int, window time.Duration) *RateLimiter {
	if clock == nil {
		clock = systemClock{}
	}
	return &RateLimiter{store: store, clock: clock, limit: limit, window: window}
}

// Allow reports whether one more hit for key fits in the current window.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowStart := l.clock.Now().Truncate(l.window)
	count, err := l.store.Incr(ctx, key, windowStart, l.window)
	if err != nil {
		return false, err
	}
	return count <= int64(l.limit), nil
}

// Middleware limits requests keyed by keyFn. Store errors fail open: a
// degraded Redis must not take payout admin actions down with it.
func (l *RateLimiter) Middleware(keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := l.Allow(r.Context(), key)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Rate limit store error, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				response.TooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// KeyByUser keys the limit on the authenticated user, falling back to IP.
func KeyByUser(r *http.Request) string {
	if id := GetUserID(r.Context()); id != uuid.Nil {
		return "user:" + id.String()
	}
	return KeyByIP(r)
}

// KeyByIP keys the limit on the client address.
func KeyByIP(r *http.Request) string {
	return "ip:" + getClientIP(r)
}
