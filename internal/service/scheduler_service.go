package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/config"
	"github.com/popeskul/smshub/internal/scheduler"
)

// schedulerService drives the periodic token refresh and delivery status poll.
type schedulerService struct {
	scheduler *scheduler.Scheduler
	jobs      JobQueue
	tokens    TokenManager
	status    StatusService
	batchSize int
	logger    *zap.Logger
}

// NewSchedulerService builds the periodic tasks. When jobs is nil token
// refresh runs inline instead of through the job queue.
func NewSchedulerService(
	cfg *config.Config,
	jobs JobQueue,
	tokens TokenManager,
	status StatusService,
	logger *zap.Logger,
) SchedulerService {
	batchSize := cfg.Scheduler.StatusPollBatchSize
	if batchSize < 1 {
		batchSize = 50
	}

	svc := &schedulerService{
		jobs:      jobs,
		tokens:    tokens,
		status:    status,
		batchSize: batchSize,
		logger:    logger,
	}

	refreshInterval := time.Duration(cfg.Scheduler.TokenRefreshIntervalHours) * time.Hour
	pollInterval := time.Duration(cfg.Scheduler.StatusPollIntervalMinutes) * time.Minute

	svc.scheduler = scheduler.New(logger,
		scheduler.Task{Name: "token-refresh", Interval: refreshInterval, Timeout: time.Duration(cfg.Queue.RefreshTimeout) * time.Second, Run: svc.executeRefreshTask},
		scheduler.Task{Name: "status-poll", Interval: pollInterval, Run: svc.executePollTask},
	)
	return svc
}

func (s *schedulerService) Start() error {
	return s.scheduler.Start(context.Background())
}

func (s *schedulerService) Stop() error {
	return s.scheduler.Stop()
}

func (s *schedulerService) IsRunning() bool {
	return s.scheduler.IsRunning()
}

func (s *schedulerService) executeRefreshTask(ctx context.Context) error {
	if s.jobs != nil {
		return s.jobs.RefreshTokens(ctx, false)
	}
	_, err := s.tokens.RefreshAll(ctx, false)
	return err
}

func (s *schedulerService) executePollTask(ctx context.Context) error {
	_, err := s.status.PollStatuses(ctx, s.batchSize)
	return err
}
