package service

import (
	"context"
	"time"

	"github.com/popeskul/smshub/internal/api"
	"github.com/popeskul/smshub/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_service.go -package=mocks

// TokenManager keeps vendor bearer tokens fresh.
type TokenManager interface {
	// GetValidToken returns a usable token, refreshing it when missing or close to expiry.
	// A nil token with a nil error means the vendor refused or could not be reached.
	GetValidToken(ctx context.Context, p *models.Provider) (*models.ProviderToken, error)
	Refresh(ctx context.Context, p *models.Provider) (*models.ProviderToken, error)
	NeedsRefresh(ctx context.Context, p *models.Provider) (bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
	RefreshAll(ctx context.Context, force bool) ([]RefreshResult, error)
}

// Dispatcher sends one queued message through the provider fallback chain.
type Dispatcher interface {
	Dispatch(ctx context.Context, messageID int64) (*DispatchOutcome, error)
}

// StatusService reconciles delivery reports with stored messages.
type StatusService interface {
	HandleCallback(ctx context.Context, providerName string, report DeliveryReport) (api.WebhookResponseStatus, error)
	PollStatuses(ctx context.Context, limit int) (*PollSummary, error)
}

type MessageService interface {
	Submit(ctx context.Context, req SubmitRequest) (*models.Message, error)
	Get(ctx context.Context, id int64) (*models.Message, error)
	List(ctx context.Context, status *models.MessageStatus, page, limit int) (*api.MessageListResponse, error)
	ListProviders(ctx context.Context) ([]*models.Provider, error)
	ProcessQueued(ctx context.Context, limit int, dryRun bool) (*ProcessSummary, error)
}

type TemplateService interface {
	Sync(ctx context.Context, nameOrID string) (*TemplateSyncSummary, error)
	Submit(ctx context.Context, templateID int64) (*models.SmsTemplate, error)
}

type SchedulerService interface {
	Start() error
	Stop() error
	IsRunning() bool
}

type HealthService interface {
	GetHealth(ctx context.Context) *HealthStatus
}

// MessageCache maps vendor message ids to local ids.
type MessageCache interface {
	Remember(ctx context.Context, providerName, externalID string, messageID int64) error
	Lookup(ctx context.Context, providerName, externalID string) (int64, bool, error)
}

type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// JobQueue enqueues background work.
type JobQueue interface {
	SendSMS(ctx context.Context, messageID int64, priority int) error
	RefreshTokens(ctx context.Context, force bool) error
}
