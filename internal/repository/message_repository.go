package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/popeskul/smshub/internal/models"
)

const messageColumns = `
	m.id, m.recipient, m.sender, m.body, m.parts, m.priority, m.status,
	m.provider_id, p.name AS provider_name, m.requested_provider, m.external_id,
	m.error_code, m.error_message, m.price, m.currency, m.idempotency_key,
	m.callback_url, m.created_at, m.sent_at, m.delivered_at, m.updated_at`

const messageFrom = `
	FROM messages m
	LEFT JOIN providers p ON p.id = m.provider_id`

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{
		db: db,
	}
}

// Create inserts a queued message. A reused idempotency key yields ErrDuplicateIdempotencyKey.
func (r *messageRepository) Create(ctx context.Context, msg models.NewMessage, parts int) (*models.Message, error) {
	query := `
		INSERT INTO messages (recipient, sender, body, parts, priority, status, requested_provider,
		                      idempotency_key, callback_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id
	`

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		msg.To,
		nullString(msg.From),
		msg.Text,
		parts,
		msg.Priority,
		models.MessageStatusQueued,
		nullString(msg.RequestedProvider),
		msg.IdempotencyKey,
		nullString(msg.CallbackURL),
		createdAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDuplicateIdempotencyKey
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves a message by its id.
func (r *messageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	query := `SELECT` + messageColumns + messageFrom + ` WHERE m.id = $1`

	var msg models.Message
	if err := r.db.GetContext(ctx, &msg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &msg, nil
}

// GetByExternalID finds a message by the vendor-assigned id. A zero providerID matches any provider.
func (r *messageRepository) GetByExternalID(ctx context.Context, providerID int64, externalID string) (*models.Message, error) {
	query := `SELECT` + messageColumns + messageFrom + `
		WHERE m.external_id = $1 AND ($2::bigint = 0 OR m.provider_id = $2::bigint)
		ORDER BY m.id DESC
		LIMIT 1`

	var msg models.Message
	if err := r.db.GetContext(ctx, &msg, query, externalID, providerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message by external id: %w", err)
	}

	return &msg, nil
}

// List retrieves messages with pagination, newest first.
func (r *messageRepository) List(ctx context.Context, status *models.MessageStatus, offset, limit int) ([]*models.Message, error) {
	query := `SELECT` + messageColumns + messageFrom + `
		WHERE ($1::text IS NULL OR m.status = $1::text)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2 OFFSET $3`

	var messages []*models.Message
	if err := r.db.SelectContext(ctx, &messages, query, statusArg(status), limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// Count returns the number of messages, optionally filtered by status.
func (r *messageRepository) Count(ctx context.Context, status *models.MessageStatus) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM messages WHERE ($1::text IS NULL OR status = $1::text)`

	if err := r.db.GetContext(ctx, &count, query, statusArg(status)); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}

	return count, nil
}

// ListQueued returns queued messages, highest priority and oldest first.
func (r *messageRepository) ListQueued(ctx context.Context, limit int) ([]*models.Message, error) {
	query := `SELECT` + messageColumns + messageFrom + `
		WHERE m.status = $1
		ORDER BY m.priority ASC, m.created_at ASC
		LIMIT $2`

	var messages []*models.Message
	if err := r.db.SelectContext(ctx, &messages, query, models.MessageStatusQueued, limit); err != nil {
		return nil, fmt.Errorf("failed to list queued messages: %w", err)
	}

	return messages, nil
}

// ListPollable returns sent messages with an external id created after since.
func (r *messageRepository) ListPollable(ctx context.Context, since time.Time, limit int) ([]*models.Message, error) {
	query := `SELECT` + messageColumns + messageFrom + `
		WHERE m.status = $1
		  AND m.external_id IS NOT NULL
		  AND m.provider_id IS NOT NULL
		  AND m.created_at >= $2
		ORDER BY m.created_at ASC
		LIMIT $3`

	var messages []*models.Message
	if err := r.db.SelectContext(ctx, &messages, query, models.MessageStatusSent, since, limit); err != nil {
		return nil, fmt.Errorf("failed to list pollable messages: %w", err)
	}

	return messages, nil
}

// MarkSent records the provider outcome of a queued message.
func (r *messageRepository) MarkSent(ctx context.Context, id int64, outcome models.SendOutcome) error {
	query := `
		UPDATE messages
		SET status = $2,
		    provider_id = $3,
		    external_id = $4,
		    price = $5,
		    currency = $6,
		    error_code = NULL,
		    error_message = NULL,
		    sent_at = $7,
		    updated_at = $7
		WHERE id = $1 AND status = $8
	`

	res, err := r.db.ExecContext(ctx, query,
		id,
		models.MessageStatusSent,
		outcome.ProviderID,
		nullString(outcome.ExternalID),
		outcome.Price,
		nullString(outcome.Currency),
		outcome.SentAt,
		models.MessageStatusQueued,
	)
	if err != nil {
		return fmt.Errorf("failed to mark message sent: %w", err)
	}

	return expectOneRow(res)
}

// ApplyStatus performs a compare-and-set status transition.
func (r *messageRepository) ApplyStatus(ctx context.Context, id int64, update models.StatusUpdate) error {
	query := `
		UPDATE messages
		SET status = $2::text,
		    error_code = COALESCE($3, error_code),
		    error_message = COALESCE($4, error_message),
		    price = COALESCE($5, price),
		    currency = COALESCE($6, currency),
		    delivered_at = CASE WHEN $2::text = 'delivered' THEN $7 ELSE delivered_at END,
		    updated_at = $7
		WHERE id = $1 AND status = $8
	`

	res, err := r.db.ExecContext(ctx, query,
		id,
		update.To,
		nullString(update.ErrorCode),
		nullString(update.ErrorMessage),
		update.Price,
		nullString(update.Currency),
		update.At,
		update.From,
	)
	if err != nil {
		return fmt.Errorf("failed to update message status: %w", err)
	}

	return expectOneRow(res)
}

// SetError stores vendor-supplied error text without changing the status.
func (r *messageRepository) SetError(ctx context.Context, id int64, errorMessage string, at time.Time) error {
	query := `UPDATE messages SET error_message = $2, updated_at = $3 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, errorMessage, at); err != nil {
		return fmt.Errorf("failed to set message error: %w", err)
	}

	return nil
}

// SetPrice back-fills the billed price of a message.
func (r *messageRepository) SetPrice(ctx context.Context, id int64, price decimal.Decimal, currency string, at time.Time) error {
	query := `UPDATE messages SET price = $2, currency = $3, updated_at = $4 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, price, currency, at); err != nil {
		return fmt.Errorf("failed to set message price: %w", err)
	}

	return nil
}

func statusArg(status *models.MessageStatus) sql.NullString {
	if status == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*status), Valid: true}
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrStaleStatus
	}
	return nil
}
