package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/clock"
	"github.com/popeskul/smshub/internal/config"
	"github.com/popeskul/smshub/internal/models"
	"github.com/popeskul/smshub/internal/provider"
	"github.com/popeskul/smshub/internal/repository"
)

type templateService struct {
	repo     repository.Repository
	registry *provider.Registry
	tokens   TokenManager
	vendors  vendorConfigs
	clock    clock.Clock
	logger   *zap.Logger
}

func NewTemplateService(
	cfg *config.Config,
	repo repository.Repository,
	registry *provider.Registry,
	tokens TokenManager,
	clk clock.Clock,
	logger *zap.Logger,
) TemplateService {
	return &templateService{
		repo:     repo,
		registry: registry,
		tokens:   tokens,
		vendors:  newVendorConfigs(cfg),
		clock:    clk,
		logger:   logger,
	}
}

// Sync imports vendor templates that are not stored yet. The provider is
// given by name or id.
func (s *templateService) Sync(ctx context.Context, nameOrID string) (*TemplateSyncSummary, error) {
	p, err := s.repo.Provider().Find(ctx, nameOrID)
	if err != nil {
		return nil, err
	}

	client, factory, err := s.client(ctx, p)
	if err != nil {
		return nil, err
	}

	remote, err := client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch templates: %w", err)
	}

	summary := &TemplateSyncSummary{Fetched: len(remote)}
	now := s.clock.Now()

	for _, rt := range remote {
		if rt.ID != "" {
			exists, err := s.repo.Template().ExistsByProviderTemplateID(ctx, p.ID, rt.ID)
			if err != nil {
				return summary, err
			}
			if exists {
				summary.Skipped++
				continue
			}
		}

		tpl := &models.SmsTemplate{
			ProviderID:         p.ID,
			Name:               rt.Name,
			Content:            rt.Text,
			Status:             factory.MapTemplateStatus(rt.Status),
			ProviderTemplateID: sql.NullString{String: rt.ID, Valid: rt.ID != ""},
		}
		if tpl.Status == models.TemplateStatusApproved {
			tpl.ApprovedAt = sql.NullTime{Time: now, Valid: true}
		}

		if _, err := s.repo.Template().Create(ctx, tpl); err != nil {
			return summary, err
		}
		summary.Imported++
	}

	s.logger.Info("Templates synchronized",
		zap.String("provider", p.Name),
		zap.Int("fetched", summary.Fetched),
		zap.Int("imported", summary.Imported),
		zap.Int("skipped", summary.Skipped))

	return summary, nil
}

// Submit sends a stored template to its vendor for moderation.
func (s *templateService) Submit(ctx context.Context, templateID int64) (*models.SmsTemplate, error) {
	tpl, err := s.repo.Template().GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.Provider().GetByID(ctx, tpl.ProviderID)
	if err != nil {
		return nil, err
	}

	client, _, err := s.client(ctx, p)
	if err != nil {
		return nil, err
	}

	remoteID, err := client.Submit(ctx, tpl.Name, tpl.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to submit template: %w", err)
	}

	if err := s.repo.Template().MarkSubmitted(ctx, tpl.ID, remoteID, s.clock.Now()); err != nil {
		return nil, err
	}

	s.logger.Info("Template submitted",
		zap.Int64("templateID", tpl.ID),
		zap.String("provider", p.Name),
		zap.String("providerTemplateID", remoteID))

	return s.repo.Template().GetByID(ctx, tpl.ID)
}

func (s *templateService) client(ctx context.Context, p *models.Provider) (provider.TemplateClient, provider.TemplateFactory, error) {
	factory, ok := s.registry.Factory(p.Name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownProvider, p.Name)
	}

	templates, ok := factory.(provider.TemplateFactory)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrTemplatesNotSupported, p.Name)
	}

	token := ""
	if factory.RequiresToken() {
		tok, err := s.tokens.GetValidToken(ctx, p)
		if err != nil {
			return nil, nil, err
		}
		if tok == nil {
			return nil, nil, fmt.Errorf("%w for %s", ErrNoCredential, p.Name)
		}
		token = tok.TokenValue
	}

	return templates.Templates(s.vendors.forProvider(p, token)), templates, nil
}
