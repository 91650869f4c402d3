// Package models defines data structures used throughout the application.
package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/popeskul/smshub/internal/api"
)

type MessageStatus = api.MessageStatus

const (
	MessageStatusQueued    = api.Queued
	MessageStatusSent      = api.Sent
	MessageStatusDelivered = api.Delivered
	MessageStatusFailed    = api.Failed
)

// DefaultCurrency is used when a vendor reports a price without a currency.
const DefaultCurrency = "UZS"

// Message represents an outbound SMS in the database.
type Message struct {
	ID                int64               `db:"id" json:"id"`
	To                string              `db:"recipient" json:"to"`
	From              sql.NullString      `db:"sender" json:"from,omitempty"`
	Text              string              `db:"body" json:"text"`
	Parts             int                 `db:"parts" json:"parts"`
	Priority          int                 `db:"priority" json:"priority"`
	Status            MessageStatus       `db:"status" json:"status"`
	ProviderID        sql.NullInt64       `db:"provider_id" json:"provider_id,omitempty"`
	ProviderName      sql.NullString      `db:"provider_name" json:"provider,omitempty"`
	RequestedProvider sql.NullString      `db:"requested_provider" json:"requested_provider,omitempty"`
	ExternalID        sql.NullString      `db:"external_id" json:"external_id,omitempty"`
	ErrorCode         sql.NullString      `db:"error_code" json:"error_code,omitempty"`
	ErrorMessage      sql.NullString      `db:"error_message" json:"error_message,omitempty"`
	Price             decimal.NullDecimal `db:"price" json:"price,omitempty"`
	Currency          sql.NullString      `db:"currency" json:"currency,omitempty"`
	IdempotencyKey    string              `db:"idempotency_key" json:"idempotency_key"`
	CallbackURL       sql.NullString      `db:"callback_url" json:"callback_url,omitempty"`
	CreatedAt         time.Time           `db:"created_at" json:"created_at"`
	SentAt            sql.NullTime        `db:"sent_at" json:"sent_at,omitempty"`
	DeliveredAt       sql.NullTime        `db:"delivered_at" json:"delivered_at,omitempty"`
	UpdatedAt         time.Time           `db:"updated_at" json:"updated_at"`
}

// NewMessage holds the fields accepted when a message is submitted.
type NewMessage struct {
	To                string
	From              string
	Text              string
	Priority          int
	RequestedProvider string
	IdempotencyKey    string
	CallbackURL       string
	CreatedAt         time.Time
}

// SendOutcome is what the dispatch engine records after a successful send.
type SendOutcome struct {
	ProviderID int64
	ExternalID string
	Price      decimal.NullDecimal
	Currency   string
	SentAt     time.Time
}

// StatusUpdate is a normalized delivery status change.
type StatusUpdate struct {
	From         MessageStatus
	To           MessageStatus
	ErrorCode    string
	ErrorMessage string
	Price        decimal.NullDecimal
	Currency     string
	At           time.Time
}

// IsTerminal reports whether no further status changes are accepted.
func IsTerminal(s MessageStatus) bool {
	return s == MessageStatusDelivered || s == MessageStatusFailed
}

// CanTransition reports whether a message may move from one status to another.
func CanTransition(from, to MessageStatus) bool {
	switch from {
	case MessageStatusQueued:
		return to == MessageStatusSent || to == MessageStatusFailed
	case MessageStatusSent:
		return to == MessageStatusDelivered || to == MessageStatusFailed
	default:
		return false
	}
}
