package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// LimitBackend counts requests per key inside a fixed window.
type LimitBackend interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisLimitBackend counts in Redis so limits hold across replicas.
type RedisLimitBackend struct {
	client *redis.Client
}

func NewRedisLimitBackend(client *redis.Client) *RedisLimitBackend {
	return &RedisLimitBackend{client: client}
}

func (b *RedisLimitBackend) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := b.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// MemoryLimitBackend is a single-process fallback.
type MemoryLimitBackend struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Time
}

func NewMemoryLimitBackend() *MemoryLimitBackend {
	return &MemoryLimitBackend{counts: map[string]int64{}, expires: map[string]time.Time{}}
}

func (b *MemoryLimitBackend) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	if exp, ok := b.expires[key]; !ok || now.After(exp) {
		b.counts[key] = 0
		b.expires[key] = now.Add(window)
	}
	b.counts[key]++
	return b.counts[key], nil
}

// RateLimit caps requests per client per minute, keyed by remote address
// and path. Backend failures fall open; throttling is protection, not
// correctness.
func RateLimit(backend LimitBackend, perMinute int) func(http.Handler) http.Handler {
	window := time.Minute
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			key := fmt.Sprintf("ratelimit:%s:%s", host, r.URL.Path)
			count, err := backend.Incr(r.Context(), key, window)
			if err == nil && count > int64(perMinute) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
