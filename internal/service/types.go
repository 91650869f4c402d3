package service

import (
	"errors"
	"time"

	"github.com/popeskul/smshub/internal/api"
	"github.com/popeskul/smshub/internal/models"
)

var (
	// ErrMessageNotQueued is returned when a message that already left the queue is dispatched again.
	ErrMessageNotQueued      = errors.New("message is not queued")
	ErrMessageLocked         = errors.New("message is being dispatched by another worker")
	ErrUnknownProvider       = errors.New("unknown provider")
	ErrTemplatesNotSupported = errors.New("provider does not support templates")
	ErrNoCredential          = errors.New("no valid credential")
)

const (
	DefaultPriority = 5
	MinPriority     = 1
	MaxPriority     = 10

	errNoProviders = "no providers configured"
)

type HealthStatus struct {
	Status          api.HealthResponseStatus          `json:"status"`
	SchedulerStatus api.HealthResponseSchedulerStatus `json:"scheduler_status"`
	DatabaseStatus  api.HealthResponseDatabaseStatus  `json:"database_status"`
	RedisStatus     api.HealthResponseRedisStatus     `json:"redis_status"`
	Providers       []api.ProviderHealth              `json:"providers,omitempty"`
	Timestamp       time.Time                         `json:"timestamp"`
}

// SubmitRequest is a validated send request from an API client.
type SubmitRequest struct {
	To             string
	From           string
	Text           string
	Provider       string
	Priority       int
	IdempotencyKey string
	CallbackURL    string
}

// Attempt records what happened with one candidate provider.
type Attempt struct {
	Provider string `json:"provider"`
	Skipped  bool   `json:"skipped"`
	Error    string `json:"error,omitempty"`
}

type DispatchOutcome struct {
	MessageID  int64                `json:"message_id"`
	Status     models.MessageStatus `json:"status"`
	Provider   string               `json:"provider,omitempty"`
	ExternalID string               `json:"external_id,omitempty"`
	Error      string               `json:"error,omitempty"`
	Attempts   []Attempt            `json:"attempts"`
}

type RefreshResult struct {
	Provider  string     `json:"provider"`
	Attempted bool       `json:"attempted"`
	Refreshed bool       `json:"refreshed"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// DeliveryReport is a vendor push notification about one message.
type DeliveryReport struct {
	ExternalID string
	Status     string
	Error      string
}

type PollSummary struct {
	Checked   int `json:"checked"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Errors    int `json:"errors"`
}

// ProcessSummary reports a manual re-enqueue of queued messages.
type ProcessSummary struct {
	Found    int               `json:"found"`
	Enqueued int               `json:"enqueued"`
	Errors   int               `json:"errors"`
	DryRun   bool              `json:"dry_run"`
	Messages []*models.Message `json:"-"`
}

type TemplateSyncSummary struct {
	Fetched  int `json:"fetched"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
