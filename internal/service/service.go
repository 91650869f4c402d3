// Package service implements message intake, dispatch with provider fallback,
// token lifecycle and delivery reconciliation.
package service

import (
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/cache"
	"github.com/popeskul/smshub/internal/clock"
	"github.com/popeskul/smshub/internal/config"
	"github.com/popeskul/smshub/internal/provider"
	"github.com/popeskul/smshub/internal/repository"
)

type Service struct {
	Message   MessageService
	Dispatch  Dispatcher
	Status    StatusService
	Tokens    TokenManager
	Templates TemplateService
	Scheduler SchedulerService
	Health    HealthService
}

func NewService(
	cfg *config.Config,
	repo repository.Repository,
	registry *provider.Registry,
	redisClient *redis.Client,
	jobs JobQueue,
	clk clock.Clock,
	logger *zap.Logger,
) *Service {
	messageCache := cache.NewMessageCache(redisClient, cache.DefaultMessageTTL)
	locker := cache.NewLocker(redisClient, "lock:")
	breakers := NewBreakerSet(cfg.CircuitBreaker, logger)

	tokenService := NewTokenService(cfg, repo, registry, clk, logger)
	dispatchService := NewDispatchService(cfg, repo, registry, tokenService, breakers, messageCache, locker, clk, logger)
	statusService := NewStatusService(cfg, repo, registry, tokenService, messageCache, clk, logger)
	messageService := NewMessageService(repo, registry, jobs, clk, logger)
	templateService := NewTemplateService(cfg, repo, registry, tokenService, clk, logger)
	schedulerService := NewSchedulerService(cfg, jobs, tokenService, statusService, logger)
	healthService := NewHealthService(repo, redisClient, schedulerService, breakers, clk)

	return &Service{
		Message:   messageService,
		Dispatch:  dispatchService,
		Status:    statusService,
		Tokens:    tokenService,
		Templates: templateService,
		Scheduler: schedulerService,
		Health:    healthService,
	}
}
