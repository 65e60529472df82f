package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) *RedisQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisQueueWithClient(client, "testq")
}

func TestEnqueueDequeueLifecycle(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	type sweepPayload struct {
		Origin      string `json:"origin"`
		Destination string `json:"destination"`
	}

	id, err := q.Enqueue(ctx, "collect_sweep", sweepPayload{Origin: "MOW", Destination: "BKK"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	job, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, "collect_sweep", job.Type)

	job, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, StatusProcessing, job.Status)

	var payload sweepPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, "MOW", payload.Origin)
	assert.Equal(t, "BKK", payload.Destination)

	require.NoError(t, q.Ack(ctx, id, "/data/results/out.json"))

	job, err = q.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, "/data/results/out.json", job.Result)
}

func TestNackRecordsFailure(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, "collect_sweep", map[string]string{"origin": "LED"})
	require.NoError(t, err)

	_, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	require.NoError(t, q.Nack(ctx, id, errors.New("upstream returned 429")))

	job, err := q.GetJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, "upstream returned 429", job.Error)
}

func TestGetJobNotFound(t *testing.T) {
	q := newTestQueue(t)

	_, err := q.GetJob(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestStatsCountsPerStatus(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, "collect_sweep", nil)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "collect_sweep", nil)
	require.NoError(t, err)

	_, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NoError(t, q.Ack(ctx, first, ""))

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[StatusPending])
	assert.Equal(t, int64(0), stats[StatusProcessing])
	assert.Equal(t, int64(1), stats[StatusCompleted])
	assert.Equal(t, int64(0), stats[StatusFailed])
}
