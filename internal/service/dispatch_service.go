package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/clock"
	"github.com/popeskul/smshub/internal/config"
	"github.com/popeskul/smshub/internal/models"
	"github.com/popeskul/smshub/internal/provider"
	"github.com/popeskul/smshub/internal/repository"
)

const (
	errProvidersExhausted = "all providers failed"

	// persistTimeout bounds the final status write, which outlives the job context.
	persistTimeout = 5 * time.Second
)

type dispatchService struct {
	repo        repository.Repository
	registry    *provider.Registry
	tokens      TokenManager
	breakers    *BreakerSet
	cache       MessageCache
	locker      Locker
	vendors     vendorConfigs
	dispatch    config.DispatchConfig
	sendTimeout time.Duration
	lockTTL     time.Duration
	clock       clock.Clock
	logger      *zap.Logger
}

// NewDispatchService builds the dispatch engine. cache and locker are optional.
func NewDispatchService(
	cfg *config.Config,
	repo repository.Repository,
	registry *provider.Registry,
	tokens TokenManager,
	breakers *BreakerSet,
	cache MessageCache,
	locker Locker,
	clk clock.Clock,
	logger *zap.Logger,
) Dispatcher {
	sendTimeout := cfg.Dispatch.SendTimeoutDuration()
	if sendTimeout <= 0 {
		sendTimeout = provider.DefaultTimeout
	}

	lockTTL := time.Duration(cfg.Dispatch.LockTTL) * time.Second
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}

	return &dispatchService{
		repo:        repo,
		registry:    registry,
		tokens:      tokens,
		breakers:    breakers,
		cache:       cache,
		locker:      locker,
		vendors:     newVendorConfigs(cfg),
		dispatch:    cfg.Dispatch,
		sendTimeout: sendTimeout,
		lockTTL:     lockTTL,
		clock:       clk,
		logger:      logger,
	}
}

// Dispatch tries enabled providers in priority order and stops at the first
// accepted send. Only persistence failures and cancellation are returned as
// errors, apart from ErrMessageNotQueued and ErrMessageLocked.
func (s *dispatchService) Dispatch(ctx context.Context, messageID int64) (*DispatchOutcome, error) {
	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, fmt.Sprintf("dispatch:%d", messageID), s.lockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrMessageLocked
		}
		defer release()
	}

	msg, err := s.repo.Message().GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}

	if msg.Status != models.MessageStatusQueued {
		return nil, fmt.Errorf("%w: message %d is %s", ErrMessageNotQueued, msg.ID, msg.Status)
	}

	outcome := &DispatchOutcome{MessageID: msg.ID, Attempts: []Attempt{}}

	providers, err := s.repo.Provider().ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	if len(providers) == 0 {
		s.logger.Error("No providers configured", zap.Int64("messageID", msg.ID))
		return s.fail(ctx, msg, errNoProviders, outcome)
	}

	adapters := newAdapterSet(s.registry, s.vendors)
	lastError := ""

	candidates := orderCandidates(providers, msg.RequestedProvider.String)
	for i, p := range candidates {
		if errors.Is(ctx.Err(), context.Canceled) {
			break
		}

		logger := s.logger.With(zap.Int64("messageID", msg.ID), zap.String("provider", p.Name))

		factory, ok := s.registry.Factory(p.Name)
		if !ok {
			logger.Warn("Skipping provider without registered adapter")
			lastError = s.skip(outcome, p, ErrUnknownProvider.Error())
			continue
		}

		token := ""
		if factory.RequiresToken() {
			tok, err := s.tokens.GetValidToken(ctx, p)
			if err != nil {
				return nil, err
			}
			if tok == nil {
				logger.Warn("Skipping provider: no valid credential")
				lastError = s.skip(outcome, p, ErrNoCredential.Error())
				continue
			}
			token = tok.TokenValue
		}

		adapter, err := adapters.get(p, token)
		if err != nil {
			logger.Warn("Skipping provider", zap.Error(err))
			lastError = s.skip(outcome, p, err.Error())
			continue
		}

		result := s.send(ctx, p, factory, adapter, msg, s.sendBudget(ctx, len(candidates)-i))
		if result.OK() {
			outcome.Attempts = append(outcome.Attempts, Attempt{Provider: p.Name})
			return s.markSent(ctx, msg, p, result, outcome)
		}

		lastError = result.Error
		outcome.Attempts = append(outcome.Attempts, Attempt{Provider: p.Name, Error: result.Error})
		logger.Warn("Provider send failed, trying next provider",
			zap.String("error", result.Error),
			zap.Bool("transient", result.Transient))
	}

	// A cancelled dispatch is left queued for the next worker.
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, fmt.Errorf("dispatch of message %d interrupted: %w", msg.ID, ctx.Err())
	}

	if lastError == "" {
		lastError = errProvidersExhausted
	}

	s.logger.Error("All providers failed", zap.Int64("messageID", msg.ID), zap.String("lastError", lastError))
	return s.fail(ctx, msg, lastError, outcome)
}

func (s *dispatchService) send(
	ctx context.Context,
	p *models.Provider,
	factory provider.Factory,
	adapter provider.Adapter,
	msg *models.Message,
	timeout time.Duration,
) provider.SendResult {
	opts := provider.SendOptions{MessageID: strconv.FormatInt(msg.ID, 10)}
	if factory.Capabilities().DeliveryReports {
		opts.CallbackURL = s.dispatch.CallbackURL(p.Name)
	}
	from := s.vendors.sender(p, msg.From.String)

	var result provider.SendResult
	err := s.breakers.For(p.Name).Execute(ctx, func() error {
		sendCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		result = adapter.Send(sendCtx, msg.To, from, msg.Text, opts)
		if result.Transient {
			return errors.New(result.Error)
		}
		return nil
	})

	// The breaker refused the call or ctx ended before it ran.
	if err != nil && !result.Transient {
		return provider.SendResult{Status: provider.StatusFailed, Error: err.Error()}
	}

	return result
}

// sendBudget shares what is left of ctx's deadline between the providers
// still to be tried, capped at the per-send timeout.
func (s *dispatchService) sendBudget(ctx context.Context, remaining int) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok || remaining < 1 {
		return s.sendTimeout
	}
	if share := time.Until(deadline) / time.Duration(remaining); share < s.sendTimeout {
		return share
	}
	return s.sendTimeout
}

func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

func (s *dispatchService) markSent(
	ctx context.Context,
	msg *models.Message,
	p *models.Provider,
	result provider.SendResult,
	outcome *DispatchOutcome,
) (*DispatchOutcome, error) {
	sent := models.SendOutcome{
		ProviderID: p.ID,
		ExternalID: result.ExternalID,
		Price:      result.Cost,
		SentAt:     s.clock.Now(),
	}
	if result.Cost.Valid {
		sent.Currency = result.Currency
		if sent.Currency == "" {
			sent.Currency = models.DefaultCurrency
		}
	}

	ctx, cancel := persistContext(ctx)
	defer cancel()

	if err := s.repo.Message().MarkSent(ctx, msg.ID, sent); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: message %d changed during dispatch", ErrMessageNotQueued, msg.ID)
		}
		return nil, err
	}

	if result.ExternalID == "" {
		s.logger.Warn("Provider accepted message without an external id, delivery cannot be tracked",
			zap.Int64("messageID", msg.ID),
			zap.String("provider", p.Name))
	}

	if s.cache != nil && result.ExternalID != "" {
		if err := s.cache.Remember(ctx, p.Name, result.ExternalID, msg.ID); err != nil {
			s.logger.Warn("Failed to cache external message id",
				zap.Int64("messageID", msg.ID),
				zap.String("externalID", result.ExternalID),
				zap.Error(err))
		}
	}

	s.logger.Info("Message sent",
		zap.Int64("messageID", msg.ID),
		zap.String("provider", p.Name),
		zap.String("externalID", result.ExternalID))

	outcome.Status = models.MessageStatusSent
	outcome.Provider = p.Name
	outcome.ExternalID = result.ExternalID
	return outcome, nil
}

func (s *dispatchService) fail(ctx context.Context, msg *models.Message, reason string, outcome *DispatchOutcome) (*DispatchOutcome, error) {
	ctx, cancel := persistContext(ctx)
	defer cancel()

	err := s.repo.Message().ApplyStatus(ctx, msg.ID, models.StatusUpdate{
		From:         models.MessageStatusQueued,
		To:           models.MessageStatusFailed,
		ErrorMessage: reason,
		At:           s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: message %d changed during dispatch", ErrMessageNotQueued, msg.ID)
		}
		return nil, err
	}

	outcome.Status = models.MessageStatusFailed
	outcome.Error = reason
	return outcome, nil
}

func (s *dispatchService) skip(outcome *DispatchOutcome, p *models.Provider, reason string) string {
	outcome.Attempts = append(outcome.Attempts, Attempt{Provider: p.Name, Skipped: true, Error: reason})
	return reason
}

// orderCandidates moves the requested provider, matched by name or id, to the front.
func orderCandidates(providers []*models.Provider, requested string) []*models.Provider {
	if requested == "" {
		return providers
	}

	ordered := make([]*models.Provider, 0, len(providers))
	rest := make([]*models.Provider, 0, len(providers))
	for _, p := range providers {
		if strings.EqualFold(p.Name, requested) || strconv.FormatInt(p.ID, 10) == requested {
			ordered = append(ordered, p)
		} else {
			rest = append(rest, p)
		}
	}

	return append(ordered, rest...)
}
