package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// bookkeepingTimeout bounds broker writes made after the consumer context may be gone.
const bookkeepingTimeout = 5 * time.Second

// Handler processes one job. Returning an error wrapped with Permanent skips retries.
type Handler func(ctx context.Context, job *Job) error

type registration struct {
	policy  Policy
	handler Handler
}

// Pool runs registered handlers over a broker.
type Pool struct {
	broker  Broker
	workers int
	logger  *zap.Logger

	mu       sync.RWMutex
	handlers map[string]registration
}

func NewPool(broker Broker, workers int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		broker:   broker,
		workers:  workers,
		logger:   logger,
		handlers: make(map[string]registration),
	}
}

func (p *Pool) Register(jobType string, policy Policy, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[jobType] = registration{policy: policy, handler: h}
}

// Run consumes jobs until ctx is cancelled.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Info("Starting job workers", zap.Int("workers", p.workers))
	err := p.broker.Consume(ctx, p.workers, p.Process)
	p.logger.Info("Job workers stopped")
	return err
}

// Process runs a single job and decides whether it is retried or buried.
func (p *Pool) Process(ctx context.Context, job *Job) {
	p.mu.RLock()
	reg, ok := p.handlers[job.Type]
	p.mu.RUnlock()

	logger := p.logger.With(
		zap.String("jobID", job.ID),
		zap.String("jobType", job.Type),
		zap.Int("attempt", job.Attempt+1),
	)

	if !ok {
		logger.Error("No handler registered for job type")
		job.LastError = fmt.Sprintf("no handler for job type %q", job.Type)
		p.bury(ctx, job, logger)
		return
	}

	runCtx := ctx
	if reg.policy.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, reg.policy.Timeout)
		defer cancel()
	}

	err := p.safeRun(runCtx, reg.handler, job)
	if err == nil {
		logger.Debug("Job completed")
		return
	}

	// Shutdown is not the job's fault, so no attempt is spent.
	if ctx.Err() != nil && !IsPermanent(err) {
		logger.Warn("Job interrupted by shutdown, returning it to the queue", zap.Error(err))
		p.retry(ctx, job, 0, logger)
		return
	}

	job.Attempt++
	job.LastError = err.Error()

	if IsPermanent(err) {
		logger.Warn("Job failed permanently", zap.Error(err))
		p.bury(ctx, job, logger)
		return
	}

	maxAttempts := reg.policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if job.Attempt >= maxAttempts {
		logger.Error("Job exhausted its attempts", zap.Int("maxAttempts", maxAttempts), zap.Error(err))
		p.bury(ctx, job, logger)
		return
	}

	var delay time.Duration
	if reg.policy.Backoff != nil {
		delay = reg.policy.Backoff(job.Attempt)
	}
	logger.Warn("Job failed, scheduling retry", zap.Duration("delay", delay), zap.Error(err))
	p.retry(ctx, job, delay, logger)
}

func (p *Pool) safeRun(ctx context.Context, h Handler, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, job)
}

func bookkeepingContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
}

func (p *Pool) retry(ctx context.Context, job *Job, delay time.Duration, logger *zap.Logger) {
	ctx, cancel := bookkeepingContext(ctx)
	defer cancel()

	if err := p.broker.Retry(ctx, job, delay); err != nil {
		logger.Error("Failed to schedule retry", zap.Error(err))
	}
}

func (p *Pool) bury(ctx context.Context, job *Job, logger *zap.Logger) {
	ctx, cancel := bookkeepingContext(ctx)
	defer cancel()

	if err := p.broker.Bury(ctx, job); err != nil {
		logger.Error("Failed to bury job", zap.Error(err))
	}
}
