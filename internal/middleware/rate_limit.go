package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"cashflow/internal/logging"
)

// Limiter decides whether one more request under key fits the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type bucket struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a fixed window limiter for a single instance.
type MemoryLimiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	store     map[string]*bucket
	nextSweep time.Time
}

func NewMemoryLimiter(maxRequests int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:    maxRequests,
		window: window,
		now:    time.Now,
		store:  make(map[string]*bucket),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.store[key]
	if !ok || !now.Before(w.resetAt) {
		l.store[key] = &bucket{count: 1, resetAt: now.Add(l.window)}
		return true, nil
	}
	if w.count >= l.max {
		return false, nil
	}
	w.count++
	return true, nil
}

// sweep drops finished windows at most once per window length.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for k, w := range l.store {
		if !now.Before(w.resetAt) {
			delete(l.store, k)
		}
	}
	l.nextSweep = now.Add(l.window)
}

// RedisLimiter shares fixed window counters across instances.
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, maxRequests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: maxRequests, window: window, prefix: "ratelimit:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key

	// INCR and the first-hit TTL go out in one MULTI so a counter can never
	// be left without an expiry.
	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	return incr.Val() <= int64(l.max), nil
}

// RateLimit throttles requests per client IP within scope. Limiter failures
// let the request through.
func RateLimit(limiter Limiter, scope string, retryAfter time.Duration, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + clientIP(r)

			ok, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Warn(r.Context(), "rate limiter unavailable", "scope", scope, "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
				writeJSONError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
