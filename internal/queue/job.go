// Package queue runs background jobs over a Redis or RabbitMQ broker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	JobTypeSendSMS       = "sms.send"
	JobTypeRefreshTokens = "tokens.refresh"
)

// Job is the envelope stored on the broker.
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempt    int             `json:"attempt"`
	Priority   int             `json:"priority"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	LastError  string          `json:"last_error,omitempty"`
}

type SendSMSPayload struct {
	MessageID int64 `json:"message_id"`
}

type RefreshTokensPayload struct {
	Force bool `json:"force"`
}

func NewJob(jobType string, payload any, priority int) (*Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", jobType, err)
	}

	return &Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Payload:    data,
		Priority:   priority,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the payload into v.
func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", j.Type, err)
	}
	return nil
}

//go:generate mockgen -source=job.go -destination=mocks/mock_queue.go -package=mocks

// Broker moves jobs between producers and the worker pool.
type Broker interface {
	Enqueue(ctx context.Context, job *Job) error
	// Retry re-delivers job after delay.
	Retry(ctx context.Context, job *Job, delay time.Duration) error
	// Bury parks a job that will not be retried.
	Bury(ctx context.Context, job *Job) error
	// Consume delivers jobs to handle from concurrency goroutines until ctx is done.
	Consume(ctx context.Context, concurrency int, handle func(ctx context.Context, job *Job)) error
	Ping(ctx context.Context) error
	Close() error
}

// Publisher enqueues the hub's job types.
type Publisher struct {
	broker Broker
}

func NewPublisher(broker Broker) *Publisher {
	return &Publisher{broker: broker}
}

func (p *Publisher) SendSMS(ctx context.Context, messageID int64, priority int) error {
	job, err := NewJob(JobTypeSendSMS, SendSMSPayload{MessageID: messageID}, priority)
	if err != nil {
		return err
	}
	return p.broker.Enqueue(ctx, job)
}

func (p *Publisher) RefreshTokens(ctx context.Context, force bool) error {
	job, err := NewJob(JobTypeRefreshTokens, RefreshTokensPayload{Force: force}, 5)
	if err != nil {
		return err
	}
	return p.broker.Enqueue(ctx, job)
}
