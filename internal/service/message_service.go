package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/api"
	"github.com/popeskul/smshub/internal/clock"
	"github.com/popeskul/smshub/internal/models"
	"github.com/popeskul/smshub/internal/provider"
	"github.com/popeskul/smshub/internal/repository"
)

type messageService struct {
	repo     repository.Repository
	registry *provider.Registry
	jobs     JobQueue
	clock    clock.Clock
	logger   *zap.Logger
}

func NewMessageService(
	repo repository.Repository,
	registry *provider.Registry,
	jobs JobQueue,
	clk clock.Clock,
	logger *zap.Logger,
) MessageService {
	return &messageService{
		repo:     repo,
		registry: registry,
		jobs:     jobs,
		clock:    clk,
		logger:   logger,
	}
}

// Submit stores a queued message and enqueues its dispatch. The requested
// provider may be given by name or id and is stored by name. A reused
// idempotency key returns repository.ErrDuplicateIdempotencyKey.
func (s *messageService) Submit(ctx context.Context, req SubmitRequest) (*models.Message, error) {
	requested := ""
	if req.Provider != "" {
		p, err := s.repo.Provider().Find(ctx, req.Provider)
		switch {
		case errors.Is(err, repository.ErrProviderNotFound):
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, req.Provider)
		case err != nil:
			return nil, fmt.Errorf("failed to resolve provider: %w", err)
		}
		if _, ok := s.registry.Factory(p.Name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, req.Provider)
		}
		requested = p.Name
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	priority := req.Priority
	switch {
	case priority == 0:
		priority = DefaultPriority
	case priority < MinPriority:
		priority = MinPriority
	case priority > MaxPriority:
		priority = MaxPriority
	}

	msg, err := s.repo.Message().Create(ctx, models.NewMessage{
		To:                req.To,
		From:              req.From,
		Text:              req.Text,
		Priority:          priority,
		RequestedProvider: requested,
		IdempotencyKey:    key,
		CallbackURL:       req.CallbackURL,
		CreatedAt:         s.clock.Now(),
	}, models.CountParts(req.Text))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateIdempotencyKey) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.logger.Info("Message queued",
		zap.Int64("messageID", msg.ID),
		zap.Int("parts", msg.Parts),
		zap.Int("priority", msg.Priority))

	if s.jobs != nil {
		if err := s.jobs.SendSMS(ctx, msg.ID, msg.Priority); err != nil {
			s.logger.Error("Failed to enqueue message dispatch, message stays queued",
				zap.Int64("messageID", msg.ID),
				zap.Error(err))
		}
	}

	return msg, nil
}

func (s *messageService) Get(ctx context.Context, id int64) (*models.Message, error) {
	msg, err := s.repo.Message().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// List retrieves messages with pagination.
func (s *messageService) List(ctx context.Context, status *models.MessageStatus, page, limit int) (*api.MessageListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	messages, err := s.repo.Message().List(ctx, status, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	totalCount, err := s.repo.Message().Count(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	totalPages := int(totalCount) / limit
	if int(totalCount)%limit > 0 {
		totalPages++
	}

	messageResponses := make([]api.Message, 0, len(messages))
	for _, msg := range messages {
		messageResponses = append(messageResponses, ToAPIMessage(msg))
	}

	return &api.MessageListResponse{
		Messages: messageResponses,
		Pagination: api.Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   int(totalCount),
			ItemsPerPage: limit,
		},
	}, nil
}

func (s *messageService) ListProviders(ctx context.Context) ([]*models.Provider, error) {
	providers, err := s.repo.Provider().ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return providers, nil
}

// ProcessQueued re-enqueues dispatch jobs for messages still waiting in the queued state.
func (s *messageService) ProcessQueued(ctx context.Context, limit int, dryRun bool) (*ProcessSummary, error) {
	messages, err := s.repo.Message().ListQueued(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list queued messages: %w", err)
	}

	summary := &ProcessSummary{
		Found:    len(messages),
		DryRun:   dryRun,
		Messages: messages,
	}
	if dryRun || s.jobs == nil {
		return summary, nil
	}

	for _, msg := range messages {
		if err := s.jobs.SendSMS(ctx, msg.ID, msg.Priority); err != nil {
			summary.Errors++
			s.logger.Error("Failed to enqueue message", zap.Int64("messageID", msg.ID), zap.Error(err))
			continue
		}
		summary.Enqueued++
	}

	s.logger.Info("Queued messages processed",
		zap.Int("found", summary.Found),
		zap.Int("enqueued", summary.Enqueued),
		zap.Int("errors", summary.Errors))

	return summary, nil
}

// ToAPIMessage converts a stored message to its API representation.
func ToAPIMessage(msg *models.Message) api.Message {
	out := api.Message{
		Id:             msg.ID,
		To:             msg.To,
		Text:           msg.Text,
		Parts:          msg.Parts,
		Priority:       msg.Priority,
		Status:         msg.Status,
		IdempotencyKey: msg.IdempotencyKey,
		CreatedAt:      msg.CreatedAt,
	}

	if msg.From.Valid {
		out.From = &msg.From.String
	}
	if msg.ProviderName.Valid {
		out.Provider = &msg.ProviderName.String
	}
	if msg.ExternalID.Valid {
		out.ExternalId = &msg.ExternalID.String
	}
	if msg.ErrorCode.Valid {
		out.ErrorCode = &msg.ErrorCode.String
	}
	if msg.ErrorMessage.Valid {
		out.ErrorMessage = &msg.ErrorMessage.String
	}
	if msg.Price.Valid {
		price := msg.Price.Decimal.String()
		out.Price = &price
	}
	if msg.Currency.Valid {
		out.Currency = &msg.Currency.String
	}
	if msg.SentAt.Valid {
		out.SentAt = &msg.SentAt.Time
	}
	if msg.DeliveredAt.Valid {
		out.DeliveredAt = &msg.DeliveredAt.Time
	}

	return out
}
