package resilience_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/impulse-eee/impulse-api/internal/resilience"
)

func TestBreakerOpensOnFailureRatio(t *testing.T) {
	ctx := context.Background()
	b := resilience.NewBreaker(4, 0.5, time.Minute).WithTarget("test-open")

	for i := 0; i < 4; i++ {
		require.True(t, b.Allow(ctx))
		b.Report(ctx, false)
	}
	require.False(t, b.Allow(ctx))
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	ctx := context.Background()
	b := resilience.NewBreaker(4, 0.5, time.Minute).WithTarget("test-closed")

	for i := 0; i < 20; i++ {
		require.True(t, b.Allow(ctx))
		b.Report(ctx, true)
	}
	require.True(t, b.Allow(ctx))
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	ctx := context.Background()
	b := resilience.NewBreaker(2, 0.5, 10*time.Millisecond).WithTarget("test-halfopen")

	b.Report(ctx, false)
	b.Report(ctx, false)
	require.False(t, b.Allow(ctx))

	time.Sleep(20 * time.Millisecond)
	// cool-off elapsed: one probe allowed
	require.True(t, b.Allow(ctx))
	b.Report(ctx, true)
	require.True(t, b.Allow(ctx))
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	ctx := context.Background()
	b := resilience.NewBreaker(2, 0.5, 10*time.Millisecond).WithTarget("test-reopen")

	b.Report(ctx, false)
	b.Report(ctx, false)
	time.Sleep(20 * time.Millisecond)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.False(t, b.Allow(ctx))
}

func TestBackoffGrowsExponentially(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, 100*time.Millisecond, resilience.Backoff(base, 1, 0))
	require.Equal(t, 200*time.Millisecond, resilience.Backoff(base, 2, 0))
	require.Equal(t, 400*time.Millisecond, resilience.Backoff(base, 3, 0))
}

func TestBackoffJitterBounded(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 100; i++ {
		d := resilience.Backoff(base, 2, 0.2)
		require.GreaterOrEqual(t, d, 160*time.Millisecond)
		require.LessOrEqual(t, d, 240*time.Millisecond)
	}
}
