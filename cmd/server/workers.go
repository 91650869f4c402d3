package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/config"
	"github.com/popeskul/smshub/internal/queue"
	"github.com/popeskul/smshub/internal/repository"
	"github.com/popeskul/smshub/internal/service"
)

// registerJobs binds the job types to the service layer, applying the
// configured retry and time budgets.
func registerJobs(pool *queue.Pool, svc *service.Service, cfg *config.Config, logger *zap.Logger) {
	sendPolicy := sendSMSPolicy(cfg)
	logger.Info("Registered send job", zap.Duration("timeout", sendPolicy.Timeout))
	pool.Register(queue.JobTypeSendSMS, sendPolicy, sendSMSHandler(svc.Dispatch, logger))

	refreshPolicy := queue.RefreshTokensPolicy
	if cfg.Queue.RefreshTimeout > 0 {
		refreshPolicy.Timeout = time.Duration(cfg.Queue.RefreshTimeout) * time.Second
	}
	pool.Register(queue.JobTypeRefreshTokens, refreshPolicy, refreshTokensHandler(svc.Tokens, logger))
}

// sendSMSPolicy sizes the job so that a hung vendor leaves time for the rest
// of the fallback chain.
func sendSMSPolicy(cfg *config.Config) queue.Policy {
	policy := queue.SendSMSPolicy
	if cfg.Queue.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Queue.MaxAttempts
	}
	policy.Timeout = cfg.SendJobTimeout()
	return policy
}

func sendSMSHandler(dispatcher service.Dispatcher, logger *zap.Logger) queue.Handler {
	return func(ctx context.Context, job *queue.Job) error {
		var payload queue.SendSMSPayload
		if err := job.Decode(&payload); err != nil {
			return queue.Permanent(err)
		}

		outcome, err := dispatcher.Dispatch(ctx, payload.MessageID)
		switch {
		case errors.Is(err, service.ErrMessageNotQueued), errors.Is(err, repository.ErrMessageNotFound):
			return queue.Permanent(err)
		case err != nil:
			return err
		}

		logger.Info("Message dispatched",
			zap.String("jobID", job.ID),
			zap.Int64("messageID", outcome.MessageID),
			zap.String("status", string(outcome.Status)),
			zap.String("provider", outcome.Provider),
			zap.Int("attempts", len(outcome.Attempts)))
		return nil
	}
}

func refreshTokensHandler(tokens service.TokenManager, logger *zap.Logger) queue.Handler {
	return func(ctx context.Context, job *queue.Job) error {
		var payload queue.RefreshTokensPayload
		if err := job.Decode(&payload); err != nil {
			return queue.Permanent(err)
		}

		results, err := tokens.RefreshAll(ctx, payload.Force)
		if err != nil {
			return err
		}

		refreshed := 0
		for _, r := range results {
			if r.Refreshed {
				refreshed++
			}
		}
		logger.Info("Token refresh finished",
			zap.String("jobID", job.ID),
			zap.Bool("force", payload.Force),
			zap.Int("providers", len(results)),
			zap.Int("refreshed", refreshed))
		return nil
	}
}
