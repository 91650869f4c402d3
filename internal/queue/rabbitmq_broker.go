package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxPriority = 10

// RabbitBroker publishes ready jobs to a durable priority queue. Retries sit in
// a companion queue whose per-message TTL dead-letters them back to the main queue.
type RabbitBroker struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	retry   string
	failed  string
	logger  *zap.Logger

	mu sync.Mutex
}

func NewRabbitBroker(amqpURL, name string, logger *zap.Logger) (*RabbitBroker, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	b := &RabbitBroker{
		conn:    conn,
		channel: ch,
		queue:   name,
		retry:   name + ".retry",
		failed:  name + ".failed",
		logger:  logger,
	}

	if err := b.declare(); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return b, nil
}

func (b *RabbitBroker) declare() error {
	if _, err := b.channel.QueueDeclare(b.queue, true, false, false, false, amqp.Table{
		"x-max-priority": int32(maxPriority),
	}); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", b.queue, err)
	}

	if _, err := b.channel.QueueDeclare(b.retry, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": b.queue,
	}); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", b.retry, err)
	}

	if _, err := b.channel.QueueDeclare(b.failed, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", b.failed, err)
	}

	return nil
}

// amqpPriority inverts job priority (1 is most urgent) to AMQP priority (higher first).
func amqpPriority(priority int) uint8 {
	p := maxPriority - priority
	if p < 0 {
		p = 0
	}
	if p > maxPriority {
		p = maxPriority
	}
	return uint8(p)
}

func (b *RabbitBroker) publish(ctx context.Context, queue string, job *Job, expiration string) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.channel.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Type:         job.Type,
		Priority:     amqpPriority(job.Priority),
		Expiration:   expiration,
		Timestamp:    job.EnqueuedAt,
		Body:         body,
	})
}

func (b *RabbitBroker) Enqueue(ctx context.Context, job *Job) error {
	if err := b.publish(ctx, b.queue, job, ""); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

func (b *RabbitBroker) Retry(ctx context.Context, job *Job, delay time.Duration) error {
	ms := delay.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	if err := b.publish(ctx, b.retry, job, strconv.FormatInt(ms, 10)); err != nil {
		return fmt.Errorf("failed to schedule retry: %w", err)
	}
	return nil
}

func (b *RabbitBroker) Bury(ctx context.Context, job *Job) error {
	if err := b.publish(ctx, b.failed, job, ""); err != nil {
		return fmt.Errorf("failed to bury job: %w", err)
	}
	return nil
}

// Consume acknowledges each delivery after handle returns; retries are
// re-published by the pool rather than requeued.
func (b *RabbitBroker) Consume(ctx context.Context, concurrency int, handle func(ctx context.Context, job *Job)) error {
	if concurrency < 1 {
		concurrency = 1
	}

	if err := b.channel.Qos(concurrency, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := b.channel.Consume(b.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case d, ok := <-deliveries:
					if !ok {
						return errors.New("deliveries channel closed")
					}

					var job Job
					if err := json.Unmarshal(d.Body, &job); err != nil {
						b.logger.Error("Failed to decode job", zap.Error(err))
						_ = d.Nack(false, false)
						continue
					}

					handle(ctx, &job)

					if err := d.Ack(false); err != nil {
						b.logger.Warn("Failed to ack job", zap.String("jobID", job.ID), zap.Error(err))
					}
				}
			}
		})
	}

	return g.Wait()
}

func (b *RabbitBroker) Ping(_ context.Context) error {
	if b.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	return nil
}

func (b *RabbitBroker) Close() error {
	if err := b.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("failed to close channel: %w", err)
	}
	if err := b.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}
