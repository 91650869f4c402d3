package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one periodic job. It runs once on start and then every Interval.
type Task struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run; zero means Interval.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs a fixed set of tasks until stopped or its context ends.
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(logger *zap.Logger, tasks ...Task) *Scheduler {
	return &Scheduler{
		logger: logger,
		tasks:  tasks,
	}
}

// Start launches every task. Cancelling ctx stops the scheduler as Stop would.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrSchedulerAlreadyRunning
	}
	for _, t := range s.tasks {
		if t.Interval <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidInterval, t.Name)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	var wg sync.WaitGroup
	for _, t := range s.tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			s.loop(ctx, t)
		}(t)
	}

	go func() {
		wg.Wait()
		cancel()

		s.mu.Lock()
		if s.done == done {
			s.cancel = nil
			s.done = nil
		}
		s.mu.Unlock()

		close(done)
	}()

	s.logger.Info("Scheduler started", zap.Int("tasks", len(s.tasks)))
	return nil
}

// Stop cancels all tasks and waits for in-flight runs to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return ErrSchedulerNotRunning
	}

	cancel()
	<-done

	s.logger.Info("Scheduler stopped")
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) loop(ctx context.Context, t Task) {
	logger := s.logger.With(zap.String("task", t.Name))

	s.execute(ctx, t, logger)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduled task stopped")
			return
		case <-ticker.C:
			s.execute(ctx, t, logger)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, t Task, logger *zap.Logger) {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = t.Interval
	}

	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := t.Run(taskCtx); err != nil {
		logger.Error("Scheduled task failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return
	}
	logger.Info("Scheduled task completed", zap.Duration("duration", time.Since(start)))
}
