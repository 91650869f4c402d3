package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/popeskul/smshub/internal/models"
)

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) GetValid(ctx context.Context, providerID int64, tokenType string, now time.Time) (*models.ProviderToken, error) {
	query := `
		SELECT id, provider_id, token_type, token_value, expires_at, is_active, metadata, created_at, updated_at
		FROM provider_tokens
		WHERE provider_id = $1
		  AND token_type = $2
		  AND is_active = TRUE
		  AND (expires_at IS NULL OR expires_at > $3)
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var token models.ProviderToken
	if err := r.db.GetContext(ctx, &token, query, providerID, tokenType, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get valid token: %w", err)
	}

	return &token, nil
}

// Rotate deactivates every active token of the same provider and type and
// inserts the new one in a single transaction. The provider row is locked
// first so concurrent rotations for one provider are serialized.
func (r *tokenRepository) Rotate(ctx context.Context, token *models.ProviderToken) (*models.ProviderToken, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var locked int64
	if err := tx.GetContext(ctx, &locked, `SELECT id FROM providers WHERE id = $1 FOR UPDATE`, token.ProviderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to lock provider: %w", err)
	}

	now := token.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE provider_tokens
		SET is_active = FALSE, updated_at = $3
		WHERE provider_id = $1 AND token_type = $2 AND is_active = TRUE
	`, token.ProviderID, token.TokenType, now); err != nil {
		return nil, fmt.Errorf("failed to deactivate previous tokens: %w", err)
	}

	metadata := token.Metadata
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}

	var stored models.ProviderToken
	if err := tx.GetContext(ctx, &stored, `
		INSERT INTO provider_tokens (provider_id, token_type, token_value, expires_at, is_active, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6, $6)
		RETURNING id, provider_id, token_type, token_value, expires_at, is_active, metadata, created_at, updated_at
	`, token.ProviderID, token.TokenType, token.TokenValue, token.ExpiresAt, metadata, now); err != nil {
		return nil, fmt.Errorf("failed to insert token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit token rotation: %w", err)
	}

	return &stored, nil
}

// DeactivateExpired soft-revokes every active token that expired before now.
func (r *tokenRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE provider_tokens
		SET is_active = FALSE, updated_at = $1
		WHERE is_active = TRUE AND expires_at IS NOT NULL AND expires_at < $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired tokens: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return n, nil
}
