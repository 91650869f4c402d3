package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/clock"
	"github.com/popeskul/smshub/internal/config"
	"github.com/popeskul/smshub/internal/models"
	"github.com/popeskul/smshub/internal/provider"
	"github.com/popeskul/smshub/internal/repository"
)

type tokenService struct {
	repo      repository.Repository
	registry  *provider.Registry
	vendors   vendorConfigs
	lookahead time.Duration
	clock     clock.Clock
	logger    *zap.Logger
}

func NewTokenService(
	cfg *config.Config,
	repo repository.Repository,
	registry *provider.Registry,
	clk clock.Clock,
	logger *zap.Logger,
) TokenManager {
	return &tokenService{
		repo:      repo,
		registry:  registry,
		vendors:   newVendorConfigs(cfg),
		lookahead: cfg.Tokens.Lookahead(),
		clock:     clk,
		logger:    logger,
	}
}

func (s *tokenService) GetValidToken(ctx context.Context, p *models.Provider) (*models.ProviderToken, error) {
	now := s.clock.Now()

	token, err := s.repo.Token().GetValid(ctx, p.ID, models.TokenTypeAccess, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	if token == nil {
		return s.Refresh(ctx, p)
	}

	if !token.ExpiresWithin(now, s.lookahead) {
		return token, nil
	}

	s.logger.Info("Token expires soon, refreshing",
		zap.String("provider", p.Name),
		zap.Time("expiresAt", token.ExpiresAt.Time))

	refreshed, err := s.Refresh(ctx, p)
	if err != nil {
		s.logger.Error("Failed to refresh expiring token, using current one",
			zap.String("provider", p.Name),
			zap.Error(err))
		return token, nil
	}
	if refreshed == nil {
		return token, nil
	}

	return refreshed, nil
}

// Refresh logs in to the vendor and rotates the stored token. Vendor and
// configuration failures are logged and reported as a nil token.
func (s *tokenService) Refresh(ctx context.Context, p *models.Provider) (*models.ProviderToken, error) {
	logger := s.logger.With(zap.String("provider", p.Name), zap.Int64("providerID", p.ID))

	factory, ok := s.registry.Factory(p.Name)
	if !ok {
		logger.Warn("Token refresh skipped", zap.String("category", string(provider.ConfigError)),
			zap.Error(fmt.Errorf("%w: %s", ErrUnknownProvider, p.Name)))
		return nil, nil
	}

	authFactory, ok := factory.(provider.AuthenticatorFactory)
	if !ok {
		logger.Warn("Token refresh skipped", zap.String("category", string(provider.ConfigError)),
			zap.String("reason", "provider does not issue tokens"))
		return nil, nil
	}

	cred, err := authFactory.Authenticator(s.vendors.forProvider(p, "")).Authenticate(ctx)
	if err != nil {
		logger.Error("Failed to obtain provider token",
			zap.String("category", string(provider.AuthCategoryOf(err))),
			zap.Error(err))
		return nil, nil
	}

	now := s.clock.Now()

	metadata := cred.Metadata
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}
	metadata, err = sjson.SetBytes(metadata, "authenticated_at", now.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to build token metadata: %w", err)
	}

	token := &models.ProviderToken{
		ProviderID: p.ID,
		TokenType:  models.TokenTypeAccess,
		TokenValue: cred.Token,
		IsActive:   true,
		Metadata:   types.JSONText(metadata),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if cred.Lifetime > 0 {
		token.ExpiresAt = sql.NullTime{Time: now.Add(cred.Lifetime), Valid: true}
	}

	saved, err := s.repo.Token().Rotate(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	logger.Info("Provider token refreshed", zap.Time("expiresAt", saved.ExpiresAt.Time))
	return saved, nil
}

func (s *tokenService) NeedsRefresh(ctx context.Context, p *models.Provider) (bool, error) {
	now := s.clock.Now()

	token, err := s.repo.Token().GetValid(ctx, p.ID, models.TokenTypeAccess, now)
	if err != nil {
		return false, fmt.Errorf("failed to get token: %w", err)
	}

	return token == nil || token.ExpiresWithin(now, s.lookahead), nil
}

func (s *tokenService) CleanupExpired(ctx context.Context) (int64, error) {
	count, err := s.repo.Token().DeactivateExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}

	if count > 0 {
		s.logger.Info("Deactivated expired tokens", zap.Int64("count", count))
	}
	return count, nil
}

// RefreshAll refreshes every enabled token-based provider that needs it,
// or all of them when force is set, then deactivates expired tokens.
func (s *tokenService) RefreshAll(ctx context.Context, force bool) ([]RefreshResult, error) {
	providers, err := s.repo.Provider().ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	var results []RefreshResult
	for _, p := range providers {
		factory, ok := s.registry.Factory(p.Name)
		if !ok || !factory.RequiresToken() {
			continue
		}

		result := RefreshResult{Provider: p.Name}

		need := force
		if !need {
			need, err = s.NeedsRefresh(ctx, p)
			if err != nil {
				return results, err
			}
		}

		if need {
			result.Attempted = true
			token, err := s.Refresh(ctx, p)
			if err != nil {
				return results, err
			}
			if token != nil {
				result.Refreshed = true
				if token.ExpiresAt.Valid {
					expiresAt := token.ExpiresAt.Time
					result.ExpiresAt = &expiresAt
				}
			} else {
				result.Error = "token refresh failed"
			}
		}

		results = append(results, result)
	}

	if _, err := s.CleanupExpired(ctx); err != nil {
		return results, err
	}

	s.logger.Info("Provider token refresh completed", zap.Int("providers", len(results)), zap.Bool("force", force))
	return results, nil
}
