package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/popeskul/smshub/internal/models"
)

var (
	ErrMessageNotFound         = errors.New("message not found")
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
	ErrStaleStatus             = errors.New("message status changed concurrently")
	ErrProviderNotFound        = errors.New("provider not found")
	ErrTemplateNotFound        = errors.New("template not found")
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_repository.go -package=mocks

// Repository interface defines all repository operations.
type Repository interface {
	// Ping checks database connectivity
	Ping() error

	Message() MessageRepository
	Provider() ProviderRepository
	Token() TokenRepository
	Template() TemplateRepository
}

// MessageRepository interface defines message operations.
type MessageRepository interface {
	Create(ctx context.Context, msg models.NewMessage, parts int) (*models.Message, error)
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	GetByExternalID(ctx context.Context, providerID int64, externalID string) (*models.Message, error)
	List(ctx context.Context, status *models.MessageStatus, offset, limit int) ([]*models.Message, error)
	Count(ctx context.Context, status *models.MessageStatus) (int64, error)
	ListQueued(ctx context.Context, limit int) ([]*models.Message, error)
	ListPollable(ctx context.Context, since time.Time, limit int) ([]*models.Message, error)
	// MarkSent records a successful send; only queued messages are updated.
	MarkSent(ctx context.Context, id int64, outcome models.SendOutcome) error
	// ApplyStatus moves a message from update.From to update.To and returns
	// ErrStaleStatus when the stored status is no longer update.From.
	ApplyStatus(ctx context.Context, id int64, update models.StatusUpdate) error
	SetError(ctx context.Context, id int64, errorMessage string, at time.Time) error
	SetPrice(ctx context.Context, id int64, price decimal.Decimal, currency string, at time.Time) error
}

// ProviderRepository gives read access to the provider registry.
type ProviderRepository interface {
	ListEnabled(ctx context.Context) ([]*models.Provider, error)
	GetByID(ctx context.Context, id int64) (*models.Provider, error)
	GetByName(ctx context.Context, name string) (*models.Provider, error)
	// Find resolves a numeric id or a case-insensitive name.
	Find(ctx context.Context, nameOrID string) (*models.Provider, error)
}

// TokenRepository stores vendor bearer tokens.
type TokenRepository interface {
	// GetValid returns the newest active token that has not expired at now,
	// or nil when there is none.
	GetValid(ctx context.Context, providerID int64, tokenType string, now time.Time) (*models.ProviderToken, error)
	// Rotate stores token as the only active token of its provider and type.
	Rotate(ctx context.Context, token *models.ProviderToken) (*models.ProviderToken, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// TemplateRepository stores vendor message templates.
type TemplateRepository interface {
	Create(ctx context.Context, tpl *models.SmsTemplate) (*models.SmsTemplate, error)
	GetByID(ctx context.Context, id int64) (*models.SmsTemplate, error)
	ExistsByProviderTemplateID(ctx context.Context, providerID int64, providerTemplateID string) (bool, error)
	MarkSubmitted(ctx context.Context, id int64, providerTemplateID string, at time.Time) error
	ListByProvider(ctx context.Context, providerID int64) ([]*models.SmsTemplate, error)
}
