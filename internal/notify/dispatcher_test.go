package notify_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/impulse-eee/impulse-api/internal/notify"
	"github.com/impulse-eee/impulse-api/internal/queue"
)

func newDispatcher(t *testing.T) (*notify.Dispatcher, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &notify.Dispatcher{
		Q:           queue.Enqueuer{R: client, Prefix: "test", DedupTTL: time.Minute},
		MaxAttempts: 3,
		Enabled:     true,
	}, client
}

func TestEnqueueConfirmationDedups(t *testing.T) {
	d, client := newDispatcher(t)
	ctx := context.Background()

	require.NoError(t, d.EnqueueConfirmation(ctx, "reg-1"))
	require.NoError(t, d.EnqueueConfirmation(ctx, "reg-1"))

	size, err := client.ZCard(ctx, "test:queue:"+notify.KindConfirmationEmail).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), size)
}

func TestEnqueueODLetterAllowsRepeats(t *testing.T) {
	d, client := newDispatcher(t)
	ctx := context.Background()

	require.NoError(t, d.EnqueueODLetter(ctx, "reg-1"))
	time.Sleep(time.Millisecond)
	require.NoError(t, d.EnqueueODLetter(ctx, "reg-1"))

	size, err := client.ZCard(ctx, "test:queue:"+notify.KindODLetter).Result()
	require.NoError(t, err)
	require.Equal(t, int64(2), size)
}

func TestDispatcherDisabledDropsTask(t *testing.T) {
	d, client := newDispatcher(t)
	d.Enabled = false
	ctx := context.Background()

	require.NoError(t, d.EnqueueConfirmation(ctx, "reg-1"))
	size, err := client.ZCard(ctx, "test:queue:"+notify.KindConfirmationEmail).Result()
	require.NoError(t, err)
	require.Zero(t, size)
}
