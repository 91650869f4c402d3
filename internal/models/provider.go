package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Capabilities are the static feature flags of a provider.
type Capabilities struct {
	DeliveryReports bool `json:"delivery_reports"`
	Unicode         bool `json:"unicode"`
	Concatenation   bool `json:"concatenation"`
	Flash           bool `json:"flash"`
	Binary          bool `json:"binary"`
	WapPush         bool `json:"wap_push"`
}

// Value implements driver.Valuer.
func (c Capabilities) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *Capabilities) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*c = Capabilities{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported capabilities type %T", src)
	}
	return json.Unmarshal(data, c)
}

// Provider is an external SMS vendor registered for dispatch.
type Provider struct {
	ID            int64          `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	DisplayName   string         `db:"display_name" json:"display_name"`
	Capabilities  Capabilities   `db:"capabilities" json:"capabilities"`
	Enabled       bool           `db:"enabled" json:"enabled"`
	Priority      int            `db:"priority" json:"priority"`
	DefaultConfig types.JSONText `db:"default_config" json:"default_config,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// TokenTypeAccess is the only token type issued by vendors today.
const TokenTypeAccess = "access"

// ProviderToken is a bearer credential obtained from a vendor.
type ProviderToken struct {
	ID         int64          `db:"id" json:"id"`
	ProviderID int64          `db:"provider_id" json:"provider_id"`
	TokenType  string         `db:"token_type" json:"token_type"`
	TokenValue string         `db:"token_value" json:"-"`
	ExpiresAt  sql.NullTime   `db:"expires_at" json:"expires_at,omitempty"`
	IsActive   bool           `db:"is_active" json:"is_active"`
	Metadata   types.JSONText `db:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// IsValidAt reports whether the token can be used at the given instant.
func (t *ProviderToken) IsValidAt(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	return !t.ExpiresAt.Valid || t.ExpiresAt.Time.After(now)
}

// ExpiresWithin reports whether the token expires before now+window.
// Tokens without an expiry never do.
func (t *ProviderToken) ExpiresWithin(now time.Time, window time.Duration) bool {
	if !t.ExpiresAt.Valid {
		return false
	}
	return !t.ExpiresAt.Time.After(now.Add(window))
}

type TemplateStatus string

const (
	TemplateStatusPending  TemplateStatus = "pending"
	TemplateStatusApproved TemplateStatus = "approved"
	TemplateStatusRejected TemplateStatus = "rejected"
)

// SmsTemplate is message content registered with a vendor for approval.
type SmsTemplate struct {
	ID                 int64          `db:"id" json:"id"`
	ProviderID         int64          `db:"provider_id" json:"provider_id"`
	Name               string         `db:"name" json:"name"`
	Content            string         `db:"content" json:"content"`
	Status             TemplateStatus `db:"status" json:"status"`
	ProviderTemplateID sql.NullString `db:"provider_template_id" json:"provider_template_id,omitempty"`
	ApprovedAt         sql.NullTime   `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}
