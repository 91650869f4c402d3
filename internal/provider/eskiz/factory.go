// Package eskiz implements the Eskiz (notify.eskiz.uz) SMS vendor.
package eskiz

import (
	"strings"
	"time"

	"github.com/popeskul/smshub/internal/models"
	"github.com/popeskul/smshub/internal/provider"
)

const (
	Name           = "eskiz"
	DefaultBaseURL = "https://notify.eskiz.uz/api"
	Currency       = "UZS"
	// TokenLifetime is how long Eskiz honours a bearer token.
	TokenLifetime = 30 * 24 * time.Hour
)

var capabilities = models.Capabilities{
	DeliveryReports: true,
	Unicode:         true,
	Concatenation:   true,
}

var statusMap = map[string]provider.Status{
	"ACCEPTED":  provider.StatusSent,
	"PENDING":   provider.StatusSent,
	"SENT":      provider.StatusSent,
	"DELIVERED": provider.StatusDelivered,
	"FAILED":    provider.StatusFailed,
	"REJECTED":  provider.StatusFailed,
	"EXPIRED":   provider.StatusFailed,
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Name() string {
	return Name
}

func (f *Factory) Capabilities() models.Capabilities {
	return capabilities
}

// ValidateConfig requires a bearer token.
func (f *Factory) ValidateConfig(cfg provider.Config) bool {
	return token(cfg) != ""
}

func (f *Factory) New(cfg provider.Config) provider.Adapter {
	return &Adapter{
		baseURL: baseURL(cfg),
		token:   token(cfg),
		client:  cfg.Client(),
	}
}

func (f *Factory) MapStatus(vendorStatus string) provider.Status {
	return mapStatus(vendorStatus)
}

func mapStatus(vendorStatus string) provider.Status {
	if s, ok := statusMap[strings.ToUpper(strings.TrimSpace(vendorStatus))]; ok {
		return s
	}
	return provider.StatusUnknown
}

func (f *Factory) RequiresToken() bool {
	return true
}

// Authenticator logs in with the account email (cfg.Username) and password.
func (f *Factory) Authenticator(cfg provider.Config) provider.Authenticator {
	lifetime := cfg.TokenLifetime
	if lifetime <= 0 {
		lifetime = TokenLifetime
	}
	return &Authenticator{
		baseURL:  baseURL(cfg),
		email:    cfg.Username,
		password: cfg.Password,
		lifetime: lifetime,
		client:   cfg.Client(),
	}
}

func (f *Factory) Templates(cfg provider.Config) provider.TemplateClient {
	return &TemplateClient{
		baseURL: baseURL(cfg),
		token:   token(cfg),
		client:  cfg.Client(),
	}
}

func (f *Factory) MapTemplateStatus(vendorStatus string) models.TemplateStatus {
	switch strings.ToLower(strings.TrimSpace(vendorStatus)) {
	case "approved":
		return models.TemplateStatusApproved
	case "rejected":
		return models.TemplateStatusRejected
	default:
		return models.TemplateStatusPending
	}
}

func baseURL(cfg provider.Config) string {
	if cfg.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(cfg.BaseURL, "/")
}

func token(cfg provider.Config) string {
	if cfg.Token != "" {
		return cfg.Token
	}
	return cfg.APIKey
}
