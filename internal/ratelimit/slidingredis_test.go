package ratelimit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/impulse-eee/impulse-api/internal/ratelimit"
)

func newLimiter(t *testing.T) ratelimit.Limiter {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return ratelimit.Limiter{Client: client, Prefix: "rl:"}
}

func TestLimiterAllowsWithinLimit(t *testing.T) {
	l := newLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, _, _, err := l.Allow(ctx, "1.2.3.4", time.Minute, 5)
		require.NoError(t, err)
		require.True(t, allowed)
	}
	allowed, remaining, _, err := l.Allow(ctx, "1.2.3.4", time.Minute, 5)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)
}

func TestLimiterIsolatesKeys(t *testing.T) {
	l := newLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, _, err := l.Allow(ctx, "1.2.3.4", time.Minute, 3)
		require.NoError(t, err)
	}
	allowed, _, _, err := l.Allow(ctx, "5.6.7.8", time.Minute, 3)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestLimiterNilClientAllows(t *testing.T) {
	l := ratelimit.Limiter{}
	allowed, _, _, err := l.Allow(context.Background(), "x", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestMiddlewareSetsHeadersAndBlocks(t *testing.T) {
	l := newLimiter(t)
	handler := ratelimit.Handler{
		Limiter: l,
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return "fixed" },
			Window: time.Minute,
			Max:    1,
		},
	}
	wrapped := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))

	rr = httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.NotEmpty(t, rr.Header().Get("Retry-After"))
}
