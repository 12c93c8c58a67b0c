package broker

import (
	"context"
	"testing"

	"yantra/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	mr := miniredis.RunT(t)

	b, err := New(config.RedisConfig{
		Addr:       mr.Addr(),
		JobsQueue:  "job_queue",
		BuildQueue: "build_queue",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestPopOnEmptyQueueReturnsErrEmpty(t *testing.T) {
	b := newTestBroker(t)

	_, err := b.Pop(context.Background(), b.JobsQueue())
	require.ErrorIs(t, err, ErrEmpty)
}

func TestPushThenPopIsFIFO(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, b.Push(ctx, b.JobsQueue(), []byte("first")))
	require.NoError(t, b.Push(ctx, b.JobsQueue(), []byte("second")))

	first, err := b.Pop(ctx, b.JobsQueue())
	require.NoError(t, err)
	require.Equal(t, "first", string(first))

	second, err := b.Pop(ctx, b.JobsQueue())
	require.NoError(t, err)
	require.Equal(t, "second", string(second))

	_, err = b.Pop(ctx, b.JobsQueue())
	require.ErrorIs(t, err, ErrEmpty)
}

func TestLenReportsQueueDepth(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	n, err := b.Len(ctx, b.BuildQueue())
	require.NoError(t, err)
	require.Equal(t, 0, n)

	require.NoError(t, b.Push(ctx, b.BuildQueue(), []byte("payload")))

	n, err = b.Len(ctx, b.BuildQueue())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestJobsAndBuildQueuesAreIndependent(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, b.Push(ctx, b.JobsQueue(), []byte("job")))

	_, err := b.Pop(ctx, b.BuildQueue())
	require.ErrorIs(t, err, ErrEmpty)

	payload, err := b.Pop(ctx, b.JobsQueue())
	require.NoError(t, err)
	require.Equal(t, "job", string(payload))
}

func TestHealthPingsConnection(t *testing.T) {
	b := newTestBroker(t)
	require.NoError(t, b.Health(context.Background()))
}
