package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow/internal/logging"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "a")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "b")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute)
	ok, _ = l.Allow(ctx, "a")
	assert.True(t, ok, "new window")
}

func TestMemoryLimiterSweepsFinishedWindows(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(1, time.Second)
	l.now = func() time.Time { return now }

	_, _ = l.Allow(context.Background(), "a")
	_, _ = l.Allow(context.Background(), "b")
	now = now.Add(2 * time.Second)
	_, _ = l.Allow(context.Background(), "c")

	assert.Len(t, l.store, 1)
}

type stubLimiter struct {
	ok  bool
	err error
}

func (s stubLimiter) Allow(context.Context, string) (bool, error) { return s.ok, s.err }

func serveLimited(l Limiter) *httptest.ResponseRecorder {
	h := RateLimit(l, "auth", time.Minute, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimitMiddleware(t *testing.T) {
	rr := serveLimited(stubLimiter{ok: true})
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = serveLimited(stubLimiter{ok: false})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate_limited","message":"too many requests, please try again later"}`, rr.Body.String())

	rr = serveLimited(stubLimiter{err: errors.New("down")})
	assert.Equal(t, http.StatusNoContent, rr.Code, "limiter failure lets the request through")
}

func TestRateLimitKeysByClientIP(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	h := RateLimit(l, "auth", time.Minute, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:2000"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1000"))
}

func TestRedisLimiterReportsUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	_, err := NewRedisLimiter(client, 5, time.Minute).Allow(context.Background(), "k")
	assert.Error(t, err)
}

// counterHook answers pipelines in memory and records the commands sent.
type counterHook struct {
	counts map[string]int64
	sent   [][]string
	expiry [][]any
}

func (h *counterHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *counterHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook { return next }

func (h *counterHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		var names []string
		for _, cmd := range cmds {
			names = append(names, strings.ToLower(cmd.Name()))
			switch c := cmd.(type) {
			case *redis.IntCmd:
				if c.Name() == "incr" {
					key := c.Args()[1].(string)
					h.counts[key]++
					c.SetVal(h.counts[key])
				}
			case *redis.BoolCmd:
				h.expiry = append(h.expiry, c.Args())
				c.SetVal(true)
			}
		}
		h.sent = append(h.sent, names)
		return nil
	}
}

func TestRedisLimiterSendsCounterAndExpiryTogether(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	hook := &counterHook{counts: map[string]int64{}}
	client.AddHook(hook)

	l := NewRedisLimiter(client, 2, time.Minute)
	for i, want := range []bool{true, true, false} {
		ok, err := l.Allow(context.Background(), "auth:10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "request %d", i+1)
	}

	// every hit carries both commands in a single round trip
	require.Len(t, hook.sent, 3)
	for _, names := range hook.sent {
		assert.Contains(t, names, "incr")
		assert.Contains(t, names, "expire")
	}
	require.Len(t, hook.expiry, 3)
	assert.Equal(t, "nx", strings.ToLower(hook.expiry[0][len(hook.expiry[0])-1].(string)))
}
