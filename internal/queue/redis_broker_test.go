package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/clock"
	"github.com/popeskul/smshub/internal/queue"
)

func setupBroker(t *testing.T) (*miniredis.Miniredis, *queue.RedisBroker, *clock.Fake) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	clk := clock.NewFake(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	broker := queue.NewRedisBroker(client, "sms", time.Second, clk, zap.NewNop())

	return mr, broker, clk
}

func mustJob(t *testing.T, jobType string, payload any, priority int) *queue.Job {
	t.Helper()
	job, err := queue.NewJob(jobType, payload, priority)
	require.NoError(t, err)
	return job
}

func TestRedisBroker_EnqueueOrder(t *testing.T) {
	mr, broker, _ := setupBroker(t)
	ctx := context.Background()

	normal1 := mustJob(t, queue.JobTypeSendSMS, queue.SendSMSPayload{MessageID: 1}, 5)
	normal2 := mustJob(t, queue.JobTypeSendSMS, queue.SendSMSPayload{MessageID: 2}, 5)
	urgent := mustJob(t, queue.JobTypeSendSMS, queue.SendSMSPayload{MessageID: 3}, 1)

	require.NoError(t, broker.Enqueue(ctx, normal1))
	require.NoError(t, broker.Enqueue(ctx, normal2))
	require.NoError(t, broker.Enqueue(ctx, urgent))

	items, err := mr.List("queue:sms")
	require.NoError(t, err)
	assert.Len(t, items, 3)

	var order []string
	for i := 0; i < 3; i++ {
		job, err := broker.Next(ctx)
		require.NoError(t, err)
		require.NotNil(t, job)
		order = append(order, job.ID)
	}
	assert.Equal(t, []string{urgent.ID, normal1.ID, normal2.ID}, order)

	var payload queue.SendSMSPayload
	require.NoError(t, urgent.Decode(&payload))
	assert.Equal(t, int64(3), payload.MessageID)
}

func TestRedisBroker_NextEmpty(t *testing.T) {
	_, broker, _ := setupBroker(t)

	job, err := broker.Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestRedisBroker_RetryPromotion(t *testing.T) {
	mr, broker, clk := setupBroker(t)
	ctx := context.Background()

	job := mustJob(t, queue.JobTypeSendSMS, queue.SendSMSPayload{MessageID: 9}, 5)
	job.Attempt = 1
	require.NoError(t, broker.Retry(ctx, job, time.Minute))

	members, err := mr.ZMembers("queue:sms:delayed")
	require.NoError(t, err)
	assert.Len(t, members, 1)

	n, err := broker.PromoteDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "job is not due yet")

	clk.Advance(time.Minute)

	n, err = broker.PromoteDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := broker.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, 1, got.Attempt)
}

func TestRedisBroker_Bury(t *testing.T) {
	mr, broker, _ := setupBroker(t)

	job := mustJob(t, queue.JobTypeRefreshTokens, queue.RefreshTokensPayload{Force: true}, 5)
	job.LastError = "boom"
	require.NoError(t, broker.Bury(context.Background(), job))

	items, err := mr.List("queue:sms:failed")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Contains(t, items[0], `"last_error":"boom"`)
}

func TestRedisBroker_Consume(t *testing.T) {
	_, broker, _ := setupBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, broker.Enqueue(ctx, mustJob(t, queue.JobTypeSendSMS, queue.SendSMSPayload{MessageID: i}, 5)))
	}

	var (
		mu   sync.Mutex
		seen = map[int64]bool{}
		done = make(chan struct{})
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- broker.Consume(ctx, 3, func(_ context.Context, job *queue.Job) {
			var p queue.SendSMSPayload
			_ = job.Decode(&p)

			mu.Lock()
			seen[p.MessageID] = true
			if len(seen) == 5 {
				close(done)
			}
			mu.Unlock()
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("jobs were not consumed")
	}

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consume did not stop")
	}
}

func TestPool_ShutdownReturnsJobToQueue(t *testing.T) {
	mr, broker, _ := setupBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := mustJob(t, queue.JobTypeSendSMS, queue.SendSMSPayload{MessageID: 4}, 5)
	require.NoError(t, broker.Enqueue(ctx, job))

	started := make(chan struct{})
	pool := queue.NewPool(broker, 1, zap.NewNop())
	pool.Register(queue.JobTypeSendSMS, queue.SendSMSPolicy, func(ctx context.Context, _ *queue.Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- pool.Run(ctx)
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not picked up")
	}

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop")
	}

	failed, _ := mr.List("queue:sms:failed")
	assert.Empty(t, failed)

	delayed, err := mr.ZMembers("queue:sms:delayed")
	require.NoError(t, err)
	require.Len(t, delayed, 1)

	n, err := broker.PromoteDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := broker.Next(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)
	assert.Zero(t, got.Attempt)
}
