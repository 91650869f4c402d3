package service_test

import (
	"database/sql"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/popeskul/smshub/internal/config"
	"github.com/popeskul/smshub/internal/models"
	providermocks "github.com/popeskul/smshub/internal/provider/mocks"
	"github.com/popeskul/smshub/internal/repository/mocks"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type repoMocks struct {
	repo      *mocks.MockRepository
	messages  *mocks.MockMessageRepository
	providers *mocks.MockProviderRepository
	tokens    *mocks.MockTokenRepository
	templates *mocks.MockTemplateRepository
}

func newRepoMocks(ctrl *gomock.Controller) *repoMocks {
	m := &repoMocks{
		repo:      mocks.NewMockRepository(ctrl),
		messages:  mocks.NewMockMessageRepository(ctrl),
		providers: mocks.NewMockProviderRepository(ctrl),
		tokens:    mocks.NewMockTokenRepository(ctrl),
		templates: mocks.NewMockTemplateRepository(ctrl),
	}

	m.repo.EXPECT().Message().Return(m.messages).AnyTimes()
	m.repo.EXPECT().Provider().Return(m.providers).AnyTimes()
	m.repo.EXPECT().Token().Return(m.tokens).AnyTimes()
	m.repo.EXPECT().Template().Return(m.templates).AnyTimes()

	return m
}

func testConfig() *config.Config {
	return &config.Config{
		Dispatch: config.DispatchConfig{
			CallbackBaseURL: "https://hub.example.com",
			DefaultSender:   "4546",
			SendTimeout:     5,
			LockTTL:         60,
		},
		Tokens: config.TokensConfig{
			LookaheadHours: 48,
		},
		Scheduler: config.SchedulerConfig{
			TokenRefreshIntervalHours: 240,
			StatusPollIntervalMinutes: 5,
			StatusPollBatchSize:       50,
			StatusPollWindowDays:      7,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxRequests:      3,
			Interval:         60,
			Timeout:          60,
			FailureRatio:     0.6,
			ConsecutiveFails: 5,
		},
		Providers: map[string]config.ProviderConfig{
			"alpha": {
				BaseURL:  "https://alpha.example.com",
				Email:    "ops@example.com",
				Password: "secret",
			},
		},
	}
}

// vendor describes a registered test provider.
type vendor struct {
	name  string
	token bool
}

func newFactory(ctrl *gomock.Controller, v vendor) *providermocks.MockFactory {
	f := providermocks.NewMockFactory(ctrl)
	f.EXPECT().Name().Return(v.name).AnyTimes()
	f.EXPECT().RequiresToken().Return(v.token).AnyTimes()
	f.EXPECT().Capabilities().Return(models.Capabilities{DeliveryReports: true}).AnyTimes()
	return f
}

func testProvider(id int64, name string, priority int) *models.Provider {
	return &models.Provider{
		ID:          id,
		Name:        name,
		DisplayName: name,
		Enabled:     true,
		Priority:    priority,
	}
}

func queuedMessage(id int64) *models.Message {
	return &models.Message{
		ID:             id,
		To:             "+998901234567",
		Text:           "Hello",
		Parts:          1,
		Priority:       5,
		Status:         models.MessageStatusQueued,
		IdempotencyKey: "key-1",
		CreatedAt:      testNow.Add(-time.Minute),
	}
}

func sentMessage(id, providerID int64, externalID string) *models.Message {
	msg := queuedMessage(id)
	msg.Status = models.MessageStatusSent
	msg.ProviderID = sql.NullInt64{Int64: providerID, Valid: true}
	msg.ExternalID = sql.NullString{String: externalID, Valid: true}
	msg.SentAt = sql.NullTime{Time: testNow.Add(-30 * time.Second), Valid: true}
	return msg
}

func activeToken(providerID int64, value string, expiresAt time.Time) *models.ProviderToken {
	return &models.ProviderToken{
		ID:         1,
		ProviderID: providerID,
		TokenType:  models.TokenTypeAccess,
		TokenValue: value,
		ExpiresAt:  sql.NullTime{Time: expiresAt, Valid: true},
		IsActive:   true,
	}
}
