// Package provider defines the contract between the dispatch engine and SMS vendors.
package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/popeskul/smshub/internal/models"
)

// Status is a vendor status normalized to the hub vocabulary.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusUnknown   Status = "unknown"
)

// MessageStatus converts a normalized status to a message status.
// StatusUnknown has no message equivalent and reports false.
func (s Status) MessageStatus() (models.MessageStatus, bool) {
	switch s {
	case StatusSent:
		return models.MessageStatusSent, true
	case StatusDelivered:
		return models.MessageStatusDelivered, true
	case StatusFailed:
		return models.MessageStatusFailed, true
	default:
		return "", false
	}
}

const DefaultTimeout = 30 * time.Second

// Config carries everything an adapter needs to reach its vendor.
type Config struct {
	BaseURL  string
	Token    string
	APIKey   string
	Username string
	Password string
	Timeout  time.Duration
	// TokenLifetime overrides the vendor's default token lifetime.
	TokenLifetime time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client returns the HTTP client adapters should use.
func (c Config) Client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

type SendOptions struct {
	CallbackURL string
	// MessageID is the local message id, used by vendors that accept a client reference.
	MessageID string
}

// SendResult is the outcome of a single send attempt. Send never fails with an error;
// every failure is reported here.
type SendResult struct {
	Status     Status
	ExternalID string
	Cost       decimal.NullDecimal
	Currency   string
	Error      string
	// Transient marks network failures and vendor 5xx responses.
	Transient bool
	Raw       []byte
}

func (r SendResult) OK() bool {
	return r.Status == StatusSent
}

// StatusResult is the outcome of a status poll.
type StatusResult struct {
	Status   Status
	Cost     decimal.NullDecimal
	Currency string
	Error    string
	Raw      []byte
}

//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks

// Adapter talks to one vendor with one resolved configuration.
type Adapter interface {
	Name() string
	Capabilities() models.Capabilities
	Send(ctx context.Context, to, from, text string, opts SendOptions) SendResult
	CheckStatus(ctx context.Context, externalID string) StatusResult
}

// Factory builds adapters for one vendor and owns its status vocabulary.
type Factory interface {
	Name() string
	Capabilities() models.Capabilities
	ValidateConfig(cfg Config) bool
	New(cfg Config) Adapter
	MapStatus(vendorStatus string) Status
	// RequiresToken reports whether adapters need a bearer token from the token manager.
	RequiresToken() bool
}

// Credential is a freshly issued vendor token.
type Credential struct {
	Token    string
	Lifetime time.Duration
	Metadata []byte
}

// Authenticator exchanges configured secrets for a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context) (*Credential, error)
}

// AuthenticatorFactory is implemented by factories of token-based vendors.
type AuthenticatorFactory interface {
	Authenticator(cfg Config) Authenticator
}

// RemoteTemplate is a message template as the vendor reports it.
type RemoteTemplate struct {
	ID     string
	Name   string
	Text   string
	Status string
}

// TemplateClient manages vendor-side message templates.
type TemplateClient interface {
	List(ctx context.Context) ([]RemoteTemplate, error)
	Submit(ctx context.Context, name, text string) (string, error)
}

// TemplateFactory is implemented by factories of vendors that moderate templates.
type TemplateFactory interface {
	Templates(cfg Config) TemplateClient
	MapTemplateStatus(vendorStatus string) models.TemplateStatus
}
