// Package repository implements PostgreSQL persistence for messages, providers and tokens.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// repositoryImpl is the concrete implementation of Repository interface.
type repositoryImpl struct {
	db       *sqlx.DB
	message  MessageRepository
	provider ProviderRepository
	token    TokenRepository
	template TemplateRepository
}

// NewRepository creates a new repository instance.
func NewRepository(db *sqlx.DB) Repository {
	return &repositoryImpl{
		db:       db,
		message:  NewMessageRepository(db),
		provider: NewProviderRepository(db),
		token:    NewTokenRepository(db),
		template: NewTemplateRepository(db),
	}
}

func (r *repositoryImpl) Message() MessageRepository {
	return r.message
}

func (r *repositoryImpl) Provider() ProviderRepository {
	return r.provider
}

func (r *repositoryImpl) Token() TokenRepository {
	return r.token
}

func (r *repositoryImpl) Template() TemplateRepository {
	return r.template
}

// Ping checks if the database connection is healthy.
func (r *repositoryImpl) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return r.db.PingContext(ctx)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
