package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/clock"
	"github.com/popeskul/smshub/internal/models"
	"github.com/popeskul/smshub/internal/provider"
	providermocks "github.com/popeskul/smshub/internal/provider/mocks"
	"github.com/popeskul/smshub/internal/service"
)

// tokenFactory is a vendor factory that also issues tokens.
type tokenFactory struct {
	*providermocks.MockFactory
	*providermocks.MockAuthenticatorFactory
}

type tokenFixture struct {
	repo          *repoMocks
	authenticator *providermocks.MockAuthenticator
	authConfigs   []provider.Config
	clock         *clock.Fake
	service       service.TokenManager
}

func newTokenFixture(t *testing.T) *tokenFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &tokenFixture{
		repo:          newRepoMocks(ctrl),
		authenticator: providermocks.NewMockAuthenticator(ctrl),
		clock:         clock.NewFake(testNow),
	}

	authFactory := providermocks.NewMockAuthenticatorFactory(ctrl)
	authFactory.EXPECT().Authenticator(gomock.Any()).DoAndReturn(func(cfg provider.Config) provider.Authenticator {
		f.authConfigs = append(f.authConfigs, cfg)
		return f.authenticator
	}).AnyTimes()

	registry := provider.NewRegistry(
		tokenFactory{
			MockFactory:              newFactory(ctrl, vendor{name: "alpha", token: true}),
			MockAuthenticatorFactory: authFactory,
		},
		newFactory(ctrl, vendor{name: "basic"}),
	)

	f.service = service.NewTokenService(testConfig(), f.repo.repo, registry, f.clock, zap.NewNop())
	return f
}

func credential(token string) *provider.Credential {
	return &provider.Credential{
		Token:    token,
		Lifetime: 30 * 24 * time.Hour,
		Metadata: []byte(`{"email":"ops@example.com"}`),
	}
}

func expectRotate(f *tokenFixture) {
	f.repo.tokens.EXPECT().Rotate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, token *models.ProviderToken) (*models.ProviderToken, error) {
			saved := *token
			saved.ID = 42
			return &saved, nil
		})
}

func TestTokenService_GetValidToken_ReusesValidToken(t *testing.T) {
	f := newTokenFixture(t)
	alpha := testProvider(1, "alpha", 1)
	current := activeToken(1, "current", testNow.Add(10*24*time.Hour))

	f.repo.tokens.EXPECT().GetValid(gomock.Any(), int64(1), models.TokenTypeAccess, testNow).Return(current, nil)
	f.authenticator.EXPECT().Authenticate(gomock.Any()).Times(0)

	token, err := f.service.GetValidToken(context.Background(), alpha)
	require.NoError(t, err)
	assert.Same(t, current, token)
}

func TestTokenService_GetValidToken_RefreshesWhenMissing(t *testing.T) {
	f := newTokenFixture(t)
	alpha := testProvider(1, "alpha", 1)

	f.repo.tokens.EXPECT().GetValid(gomock.Any(), int64(1), models.TokenTypeAccess, testNow).Return(nil, nil)
	f.authenticator.EXPECT().Authenticate(gomock.Any()).Return(credential("fresh"), nil)
	f.repo.tokens.EXPECT().Rotate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, token *models.ProviderToken) (*models.ProviderToken, error) {
			assert.Equal(t, int64(1), token.ProviderID)
			assert.Equal(t, models.TokenTypeAccess, token.TokenType)
			assert.Equal(t, "fresh", token.TokenValue)
			assert.True(t, token.IsActive)
			assert.True(t, token.ExpiresAt.Valid)
			assert.Equal(t, testNow.Add(30*24*time.Hour), token.ExpiresAt.Time)
			assert.Equal(t, testNow, token.CreatedAt)
			assert.Equal(t, "ops@example.com", gjson.GetBytes(token.Metadata, "email").String())
			assert.Equal(t, "2025-03-10T12:00:00Z", gjson.GetBytes(token.Metadata, "authenticated_at").String())
			return token, nil
		})

	token, err := f.service.GetValidToken(context.Background(), alpha)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "fresh", token.TokenValue)

	require.Len(t, f.authConfigs, 1)
	assert.Equal(t, "ops@example.com", f.authConfigs[0].Username)
	assert.Equal(t, "secret", f.authConfigs[0].Password)
	assert.Equal(t, "https://alpha.example.com", f.authConfigs[0].BaseURL)
}

func TestTokenService_GetValidToken_Lookahead(t *testing.T) {
	tests := []struct {
		name        string
		expiresIn   time.Duration
		authErr     error
		wantRefresh bool
		wantToken   string
	}{
		{
			name:      "Token valid beyond lookahead is reused",
			expiresIn: 49 * time.Hour,
			wantToken: "current",
		},
		{
			name:        "Token expiring within lookahead is refreshed",
			expiresIn:   47 * time.Hour,
			wantRefresh: true,
			wantToken:   "fresh",
		},
		{
			name:        "Token expiring exactly at the lookahead boundary is refreshed",
			expiresIn:   48 * time.Hour,
			wantRefresh: true,
			wantToken:   "fresh",
		},
		{
			name:        "Failed refresh falls back to the still valid token",
			expiresIn:   time.Hour,
			authErr:     &provider.AuthError{Provider: "alpha", Category: provider.AuthFailure, StatusCode: 401},
			wantRefresh: true,
			wantToken:   "current",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTokenFixture(t)
			alpha := testProvider(1, "alpha", 1)

			f.repo.tokens.EXPECT().GetValid(gomock.Any(), int64(1), models.TokenTypeAccess, testNow).
				Return(activeToken(1, "current", testNow.Add(tt.expiresIn)), nil)

			if tt.wantRefresh {
				if tt.authErr != nil {
					f.authenticator.EXPECT().Authenticate(gomock.Any()).Return(nil, tt.authErr)
				} else {
					f.authenticator.EXPECT().Authenticate(gomock.Any()).Return(credential("fresh"), nil)
					expectRotate(f)
				}
			}

			token, err := f.service.GetValidToken(context.Background(), alpha)
			require.NoError(t, err)
			require.NotNil(t, token)
			assert.Equal(t, tt.wantToken, token.TokenValue)
		})
	}
}

func TestTokenService_Refresh_Failures(t *testing.T) {
	tests := []struct {
		name    string
		authErr error
	}{
		{
			name:    "Bad credentials",
			authErr: &provider.AuthError{Provider: "alpha", Category: provider.AuthFailure, StatusCode: 401},
		},
		{
			name:    "Missing role",
			authErr: &provider.AuthError{Provider: "alpha", Category: provider.PermissionDenied, StatusCode: 401},
		},
		{
			name:    "Missing configuration",
			authErr: &provider.AuthError{Provider: "alpha", Category: provider.ConfigError, Err: provider.ErrMissingCredentials},
		},
		{
			name:    "Network failure",
			authErr: errors.New("dial tcp: connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTokenFixture(t)

			f.authenticator.EXPECT().Authenticate(gomock.Any()).Return(nil, tt.authErr)
			f.repo.tokens.EXPECT().Rotate(gomock.Any(), gomock.Any()).Times(0)

			token, err := f.service.Refresh(context.Background(), testProvider(1, "alpha", 1))
			assert.NoError(t, err)
			assert.Nil(t, token)
		})
	}
}

func TestTokenService_Refresh_StoreFailure(t *testing.T) {
	f := newTokenFixture(t)

	f.authenticator.EXPECT().Authenticate(gomock.Any()).Return(credential("fresh"), nil)
	f.repo.tokens.EXPECT().Rotate(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	token, err := f.service.Refresh(context.Background(), testProvider(1, "alpha", 1))
	assert.Nil(t, token)
	assert.ErrorContains(t, err, "failed to store token")
}

func TestTokenService_Refresh_NonTokenProvider(t *testing.T) {
	f := newTokenFixture(t)

	token, err := f.service.Refresh(context.Background(), testProvider(2, "basic", 2))
	assert.NoError(t, err)
	assert.Nil(t, token)

	token, err = f.service.Refresh(context.Background(), testProvider(3, "unregistered", 3))
	assert.NoError(t, err)
	assert.Nil(t, token)
}

func TestTokenService_NeedsRefresh(t *testing.T) {
	tests := []struct {
		name  string
		token *models.ProviderToken
		want  bool
	}{
		{name: "No active token", token: nil, want: true},
		{name: "Expires within two days", token: activeToken(1, "t", testNow.Add(36*time.Hour)), want: true},
		{name: "Expires later", token: activeToken(1, "t", testNow.Add(72*time.Hour)), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTokenFixture(t)
			f.repo.tokens.EXPECT().GetValid(gomock.Any(), int64(1), models.TokenTypeAccess, testNow).Return(tt.token, nil)

			got, err := f.service.NeedsRefresh(context.Background(), testProvider(1, "alpha", 1))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenService_CleanupExpired(t *testing.T) {
	f := newTokenFixture(t)
	f.clock.Advance(time.Hour)

	f.repo.tokens.EXPECT().DeactivateExpired(gomock.Any(), testNow.Add(time.Hour)).Return(int64(3), nil)

	count, err := f.service.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestTokenService_RefreshAll(t *testing.T) {
	tests := []struct {
		name          string
		force         bool
		current       *models.ProviderToken
		wantAttempted bool
	}{
		{
			name:          "Valid token is left alone",
			current:       activeToken(1, "current", testNow.Add(10*24*time.Hour)),
			wantAttempted: false,
		},
		{
			name:          "Expiring token is refreshed",
			current:       activeToken(1, "current", testNow.Add(time.Hour)),
			wantAttempted: true,
		},
		{
			name:          "Force refreshes a valid token",
			force:         true,
			wantAttempted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTokenFixture(t)

			f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return([]*models.Provider{
				testProvider(1, "alpha", 1),
				testProvider(2, "basic", 2),
			}, nil)

			if !tt.force {
				f.repo.tokens.EXPECT().GetValid(gomock.Any(), int64(1), models.TokenTypeAccess, testNow).Return(tt.current, nil)
			}
			if tt.wantAttempted {
				f.authenticator.EXPECT().Authenticate(gomock.Any()).Return(credential("fresh"), nil)
				expectRotate(f)
			}
			f.repo.tokens.EXPECT().DeactivateExpired(gomock.Any(), testNow).Return(int64(0), nil)

			results, err := f.service.RefreshAll(context.Background(), tt.force)
			require.NoError(t, err)

			require.Len(t, results, 1, "providers without tokens are not reported")
			assert.Equal(t, "alpha", results[0].Provider)
			assert.Equal(t, tt.wantAttempted, results[0].Attempted)
			assert.Equal(t, tt.wantAttempted, results[0].Refreshed)
			if tt.wantAttempted {
				require.NotNil(t, results[0].ExpiresAt)
				assert.Equal(t, testNow.Add(30*24*time.Hour), *results[0].ExpiresAt)
			}
		})
	}
}

func TestTokenService_RefreshAll_ReportsFailedRefresh(t *testing.T) {
	f := newTokenFixture(t)

	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return([]*models.Provider{testProvider(1, "alpha", 1)}, nil)
	f.authenticator.EXPECT().Authenticate(gomock.Any()).
		Return(nil, &provider.AuthError{Provider: "alpha", Category: provider.TransportError, StatusCode: 502})
	f.repo.tokens.EXPECT().DeactivateExpired(gomock.Any(), testNow).Return(int64(1), nil)

	results, err := f.service.RefreshAll(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Attempted)
	assert.False(t, results[0].Refreshed)
	assert.NotEmpty(t, results[0].Error)
}
