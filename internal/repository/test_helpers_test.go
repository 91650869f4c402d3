package repository_test

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/popeskul/smshub/internal/models"
)

func insertTestProvider(db *sqlx.DB, name string, priority int, enabled bool) (int64, error) {
	var id int64
	query := `
		INSERT INTO providers (name, display_name, capabilities, enabled, priority)
		VALUES ($1, $2, '{"delivery_reports": true, "unicode": true}', $3, $4)
		RETURNING id
	`

	if err := db.QueryRow(query, name, name, enabled, priority).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert test provider: %w", err)
	}

	return id, nil
}

func insertTestMessage(db *sqlx.DB, key string, status models.MessageStatus, providerID int64, externalID string, createdAt time.Time) (int64, error) {
	var id int64
	query := `
		INSERT INTO messages (recipient, body, parts, priority, status, provider_id, external_id, idempotency_key, created_at, updated_at)
		VALUES ('+998901234567', 'Hello', 1, 5, $1, NULLIF($2, 0), NULLIF($3, ''), $4, $5, $5)
		RETURNING id
	`

	if err := db.QueryRow(query, status, providerID, externalID, key, createdAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert test message: %w", err)
	}

	return id, nil
}

func countActiveTokens(db *sqlx.DB, providerID int64) (int, error) {
	var n int
	err := db.Get(&n, `SELECT COUNT(*) FROM provider_tokens WHERE provider_id = $1 AND is_active`, providerID)
	return n, err
}

func newMessage(key string) models.NewMessage {
	return models.NewMessage{
		To:             "+998901234567",
		From:           "4546",
		Text:           "Hello",
		Priority:       5,
		IdempotencyKey: key,
	}
}
