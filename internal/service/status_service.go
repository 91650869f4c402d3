package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/api"
	"github.com/popeskul/smshub/internal/clock"
	"github.com/popeskul/smshub/internal/config"
	"github.com/popeskul/smshub/internal/models"
	"github.com/popeskul/smshub/internal/provider"
	"github.com/popeskul/smshub/internal/repository"
)

const defaultPollWindow = 7 * 24 * time.Hour

type statusService struct {
	repo       repository.Repository
	registry   *provider.Registry
	tokens     TokenManager
	cache      MessageCache
	vendors    vendorConfigs
	pollWindow time.Duration
	clock      clock.Clock
	logger     *zap.Logger
}

// NewStatusService builds the status reconciler. cache is optional.
func NewStatusService(
	cfg *config.Config,
	repo repository.Repository,
	registry *provider.Registry,
	tokens TokenManager,
	cache MessageCache,
	clk clock.Clock,
	logger *zap.Logger,
) StatusService {
	window := time.Duration(cfg.Scheduler.StatusPollWindowDays) * 24 * time.Hour
	if window <= 0 {
		window = defaultPollWindow
	}

	return &statusService{
		repo:       repo,
		registry:   registry,
		tokens:     tokens,
		cache:      cache,
		vendors:    newVendorConfigs(cfg),
		pollWindow: window,
		clock:      clk,
		logger:     logger,
	}
}

// HandleCallback applies a pushed delivery report. Unknown messages and
// unmapped vendor statuses are acknowledged without changing anything.
func (s *statusService) HandleCallback(ctx context.Context, providerName string, report DeliveryReport) (api.WebhookResponseStatus, error) {
	logger := s.logger.With(
		zap.String("provider", providerName),
		zap.String("externalID", report.ExternalID),
		zap.String("vendorStatus", report.Status),
	)

	factory, ok := s.registry.Factory(providerName)
	if !ok {
		logger.Warn("Delivery report for unknown provider")
		return api.Ignored, nil
	}

	msg, err := s.findByExternalID(ctx, providerName, report.ExternalID)
	if err != nil {
		return "", err
	}
	if msg == nil {
		logger.Warn("Message not found for delivery report")
		return api.MessageNotFound, nil
	}

	logger = logger.With(zap.Int64("messageID", msg.ID))

	target, ok := factory.MapStatus(report.Status).MessageStatus()
	if !ok {
		logger.Info("Ignoring unmapped delivery status")
		if err := s.storeError(ctx, msg, report.Error); err != nil {
			return "", err
		}
		return api.Ignored, nil
	}

	changed, err := s.transition(ctx, msg, target, report.Error, decimal.NullDecimal{}, "")
	if err != nil {
		return "", err
	}
	if !changed && msg.Status != target {
		logger.Info("Ignoring disallowed status transition",
			zap.String("from", string(msg.Status)),
			zap.String("to", string(target)))
		return api.Ignored, nil
	}

	logger.Info("Delivery report applied", zap.String("status", string(target)))
	return api.Success, nil
}

func (s *statusService) findByExternalID(ctx context.Context, providerName, externalID string) (*models.Message, error) {
	if externalID == "" {
		return nil, nil
	}

	if s.cache != nil {
		id, ok, err := s.cache.Lookup(ctx, providerName, externalID)
		if err != nil {
			s.logger.Warn("Failed to read message cache", zap.Error(err))
		}
		if ok {
			msg, err := s.repo.Message().GetByID(ctx, id)
			if err == nil {
				return msg, nil
			}
			if !errors.Is(err, repository.ErrMessageNotFound) {
				return nil, fmt.Errorf("failed to load message: %w", err)
			}
		}
	}

	var providerID int64
	p, err := s.repo.Provider().GetByName(ctx, providerName)
	switch {
	case err == nil:
		providerID = p.ID
	case !errors.Is(err, repository.ErrProviderNotFound):
		return nil, fmt.Errorf("failed to load provider: %w", err)
	}

	msg, err := s.repo.Message().GetByExternalID(ctx, providerID, externalID)
	if errors.Is(err, repository.ErrMessageNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find message: %w", err)
	}

	return msg, nil
}

// transition moves msg to target when the state machine allows it and reports
// whether the stored status changed. Error text is kept in every case.
func (s *statusService) transition(
	ctx context.Context,
	msg *models.Message,
	target models.MessageStatus,
	errorText string,
	price decimal.NullDecimal,
	currency string,
) (bool, error) {
	if !models.CanTransition(msg.Status, target) {
		if price.Valid && !msg.Price.Valid {
			if err := s.repo.Message().SetPrice(ctx, msg.ID, price.Decimal, currency, s.clock.Now()); err != nil {
				return false, err
			}
		}
		return false, s.storeError(ctx, msg, errorText)
	}

	err := s.repo.Message().ApplyStatus(ctx, msg.ID, models.StatusUpdate{
		From:         msg.Status,
		To:           target,
		ErrorMessage: errorText,
		Price:        price,
		Currency:     currency,
		At:           s.clock.Now(),
	})
	if errors.Is(err, repository.ErrStaleStatus) {
		s.logger.Info("Message status changed concurrently, skipping update", zap.Int64("messageID", msg.ID))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (s *statusService) storeError(ctx context.Context, msg *models.Message, errorText string) error {
	if errorText == "" {
		return nil
	}
	return s.repo.Message().SetError(ctx, msg.ID, errorText, s.clock.Now())
}

// PollStatuses asks vendors about recently sent messages, oldest first.
func (s *statusService) PollStatuses(ctx context.Context, limit int) (*PollSummary, error) {
	since := s.clock.Now().Add(-s.pollWindow)

	messages, err := s.repo.Message().ListPollable(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pollable messages: %w", err)
	}

	summary := &PollSummary{}
	if len(messages) == 0 {
		s.logger.Info("No sent messages to check")
		return summary, nil
	}

	sweep := &pollSweep{
		service:   s,
		adapters:  newAdapterSet(s.registry, s.vendors),
		providers: make(map[int64]*models.Provider),
	}

	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		changed, err := sweep.check(ctx, msg, summary)
		if err != nil {
			summary.Errors++
			s.logger.Error("Failed to check delivery status",
				zap.Int64("messageID", msg.ID),
				zap.String("externalID", msg.ExternalID.String),
				zap.Error(err))
			continue
		}

		if changed {
			summary.Updated++
		} else {
			summary.Unchanged++
		}
	}

	s.logger.Info("Delivery status check completed",
		zap.Int("checked", summary.Checked),
		zap.Int("updated", summary.Updated),
		zap.Int("errors", summary.Errors))

	return summary, nil
}

// pollSweep holds the provider and adapter caches of one PollStatuses run.
type pollSweep struct {
	service   *statusService
	adapters  *adapterSet
	providers map[int64]*models.Provider
}

func (w *pollSweep) provider(ctx context.Context, id int64) (*models.Provider, error) {
	if p, ok := w.providers[id]; ok {
		return p, nil
	}
	p, err := w.service.repo.Provider().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider: %w", err)
	}
	w.providers[id] = p
	return p, nil
}

func (w *pollSweep) check(ctx context.Context, msg *models.Message, summary *PollSummary) (bool, error) {
	s := w.service

	p, err := w.provider(ctx, msg.ProviderID.Int64)
	if err != nil {
		return false, err
	}

	factory, ok := s.registry.Factory(p.Name)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownProvider, p.Name)
	}

	token := ""
	if factory.RequiresToken() {
		tok, err := s.tokens.GetValidToken(ctx, p)
		if err != nil {
			return false, err
		}
		if tok == nil {
			return false, ErrNoCredential
		}
		token = tok.TokenValue
	}

	adapter, err := w.adapters.get(p, token)
	if err != nil {
		return false, err
	}

	result := adapter.CheckStatus(ctx, msg.ExternalID.String)
	summary.Checked++

	target, ok := result.Status.MessageStatus()
	if !ok {
		s.logger.Debug("Delivery status unknown",
			zap.Int64("messageID", msg.ID),
			zap.String("error", result.Error))
		return false, nil
	}

	currency := ""
	if result.Cost.Valid {
		currency = result.Currency
		if currency == "" {
			currency = models.DefaultCurrency
		}
	}

	errorText := ""
	if target == models.MessageStatusFailed {
		errorText = result.Error
	}

	return s.transition(ctx, msg, target, errorText, result.Cost, currency)
}
