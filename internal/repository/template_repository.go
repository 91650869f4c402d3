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

const templateColumns = `
	id, provider_id, name, content, status, provider_template_id, approved_at, created_at, updated_at`

type templateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, tpl *models.SmsTemplate) (*models.SmsTemplate, error) {
	query := `
		INSERT INTO sms_templates (provider_id, name, content, status, provider_template_id, approved_at, created_at, updated_at)
		VALUES (:provider_id, :name, :content, :status, :provider_template_id, :approved_at, NOW(), NOW())
		RETURNING` + templateColumns

	rows, err := r.db.NamedQueryContext(ctx, query, tpl)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to create template: %w", err)
		}
		return nil, errors.New("failed to create template: no row returned")
	}

	var created models.SmsTemplate
	if err := rows.StructScan(&created); err != nil {
		return nil, fmt.Errorf("failed to scan template: %w", err)
	}

	return &created, nil
}

func (r *templateRepository) GetByID(ctx context.Context, id int64) (*models.SmsTemplate, error) {
	var tpl models.SmsTemplate
	if err := r.db.GetContext(ctx, &tpl, `SELECT`+templateColumns+` FROM sms_templates WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return &tpl, nil
}

func (r *templateRepository) ExistsByProviderTemplateID(ctx context.Context, providerID int64, providerTemplateID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM sms_templates WHERE provider_id = $1 AND provider_template_id = $2)`

	if err := r.db.GetContext(ctx, &exists, query, providerID, providerTemplateID); err != nil {
		return false, fmt.Errorf("failed to check template: %w", err)
	}

	return exists, nil
}

// MarkSubmitted links a local template to its vendor id and resets it to pending.
func (r *templateRepository) MarkSubmitted(ctx context.Context, id int64, providerTemplateID string, at time.Time) error {
	query := `
		UPDATE sms_templates
		SET provider_template_id = $2, status = $3, approved_at = NULL, updated_at = $4
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, nullString(providerTemplateID), models.TemplateStatusPending, at)
	if err != nil {
		return fmt.Errorf("failed to mark template submitted: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrTemplateNotFound
	}

	return nil
}

func (r *templateRepository) ListByProvider(ctx context.Context, providerID int64) ([]*models.SmsTemplate, error) {
	var templates []*models.SmsTemplate
	query := `SELECT` + templateColumns + ` FROM sms_templates WHERE provider_id = $1 ORDER BY id ASC`

	if err := r.db.SelectContext(ctx, &templates, query, providerID); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	return templates, nil
}
