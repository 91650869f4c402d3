package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/popeskul/smshub/internal/clock"
)

// promoteScript moves due jobs from the delayed set to the ready list.
var promoteScript = redis.NewScript(`
local jobs = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, 100)
for _, job in ipairs(jobs) do
	redis.call("ZREM", KEYS[1], job)
	redis.call("RPUSH", KEYS[2], job)
end
return #jobs
`)

// RedisBroker keeps ready jobs in a list, delayed retries in a sorted set
// scored by due time, and buried jobs in a failed list.
type RedisBroker struct {
	client       *redis.Client
	ready        string
	delayed      string
	failed       string
	pollInterval time.Duration
	clock        clock.Clock
	logger       *zap.Logger
}

func NewRedisBroker(client *redis.Client, name string, pollInterval time.Duration, clk clock.Clock, logger *zap.Logger) *RedisBroker {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	base := "queue:" + name
	return &RedisBroker{
		client:       client,
		ready:        base,
		delayed:      base + ":delayed",
		failed:       base + ":failed",
		pollInterval: pollInterval,
		clock:        clk,
		logger:       logger,
	}
}

// Enqueue appends job to the ready list; priority 1 or lower jumps the line.
func (b *RedisBroker) Enqueue(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if job.Priority <= 1 {
		err = b.client.LPush(ctx, b.ready, data).Err()
	} else {
		err = b.client.RPush(ctx, b.ready, data).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	return nil
}

func (b *RedisBroker) Retry(ctx context.Context, job *Job, delay time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	due := b.clock.Now().Add(delay).UnixMilli()
	if err := b.client.ZAdd(ctx, b.delayed, &redis.Z{Score: float64(due), Member: data}).Err(); err != nil {
		return fmt.Errorf("failed to schedule retry: %w", err)
	}

	return nil
}

func (b *RedisBroker) Bury(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := b.client.RPush(ctx, b.failed, data).Err(); err != nil {
		return fmt.Errorf("failed to bury job: %w", err)
	}

	return nil
}

// PromoteDue moves delayed jobs whose due time has passed to the ready list.
func (b *RedisBroker) PromoteDue(ctx context.Context) (int, error) {
	now := strconv.FormatInt(b.clock.Now().UnixMilli(), 10)
	n, err := promoteScript.Run(ctx, b.client, []string{b.delayed, b.ready}, now).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to promote delayed jobs: %w", err)
	}
	return n, nil
}

// Next blocks up to the poll interval for a ready job. It returns nil when none arrived.
func (b *RedisBroker) Next(ctx context.Context) (*Job, error) {
	res, err := b.client.BLPop(ctx, b.pollInterval, b.ready).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop job: %w", err)
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}

	return &job, nil
}

func (b *RedisBroker) Consume(ctx context.Context, concurrency int, handle func(ctx context.Context, job *Job)) error {
	if concurrency < 1 {
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		g.Go(func() error {
			for ctx.Err() == nil {
				if _, err := b.PromoteDue(ctx); err != nil && ctx.Err() == nil {
					b.logger.Warn("Failed to promote delayed jobs", zap.Error(err))
				}

				job, err := b.Next(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					b.logger.Error("Failed to fetch job", zap.Error(err))
					b.sleep(ctx)
					continue
				}
				if job == nil {
					continue
				}

				handle(ctx, job)
			}
			return nil
		})
	}

	return g.Wait()
}

func (b *RedisBroker) sleep(ctx context.Context) {
	t := time.NewTimer(b.pollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close is a no-op; the Redis client is owned by the caller.
func (b *RedisBroker) Close() error {
	return nil
}
