package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/popeskul/smshub/internal/models"
)

const providerColumns = `
	id, name, display_name, capabilities, enabled, priority, default_config, created_at, updated_at`

type providerRepository struct {
	db *sqlx.DB
}

func NewProviderRepository(db *sqlx.DB) ProviderRepository {
	return &providerRepository{db: db}
}

// ListEnabled returns enabled providers in dispatch order.
func (r *providerRepository) ListEnabled(ctx context.Context) ([]*models.Provider, error) {
	query := `SELECT` + providerColumns + `
		FROM providers
		WHERE enabled = TRUE
		ORDER BY priority ASC, id ASC`

	var providers []*models.Provider
	if err := r.db.SelectContext(ctx, &providers, query); err != nil {
		return nil, fmt.Errorf("failed to list enabled providers: %w", err)
	}

	return providers, nil
}

func (r *providerRepository) GetByID(ctx context.Context, id int64) (*models.Provider, error) {
	return r.get(ctx, `SELECT`+providerColumns+` FROM providers WHERE id = $1`, id)
}

func (r *providerRepository) GetByName(ctx context.Context, name string) (*models.Provider, error) {
	return r.get(ctx, `SELECT`+providerColumns+` FROM providers WHERE LOWER(name) = LOWER($1)`, name)
}

func (r *providerRepository) Find(ctx context.Context, nameOrID string) (*models.Provider, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if nameOrID == "" {
		return nil, ErrProviderNotFound
	}
	if id, err := strconv.ParseInt(nameOrID, 10, 64); err == nil {
		return r.GetByID(ctx, id)
	}
	return r.GetByName(ctx, nameOrID)
}

func (r *providerRepository) get(ctx context.Context, query string, arg any) (*models.Provider, error) {
	var p models.Provider
	if err := r.db.GetContext(ctx, &p, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}

	return &p, nil
}
