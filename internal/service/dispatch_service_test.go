package service_test

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/popeskul/smshub/internal/api"
	"github.com/popeskul/smshub/internal/clock"
	"github.com/popeskul/smshub/internal/models"
	"github.com/popeskul/smshub/internal/provider"
	providermocks "github.com/popeskul/smshub/internal/provider/mocks"
	"github.com/popeskul/smshub/internal/repository"
	"github.com/popeskul/smshub/internal/service"
	servicemocks "github.com/popeskul/smshub/internal/service/mocks"
)

type dispatchFixture struct {
	repo     *repoMocks
	tokens   *servicemocks.MockTokenManager
	cache    *servicemocks.MockMessageCache
	locker   *servicemocks.MockLocker
	adapters map[string]*providermocks.MockAdapter
	configs  map[string]provider.Config
	breakers *service.BreakerSet
	service  service.Dispatcher
}

func newDispatchFixture(t *testing.T, vendors ...vendor) *dispatchFixture {
	t.Helper()
	return newDispatchFixtureWithLogger(t, zap.NewNop(), vendors...)
}

func newDispatchFixtureWithLogger(t *testing.T, logger *zap.Logger, vendors ...vendor) *dispatchFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &dispatchFixture{
		repo:     newRepoMocks(ctrl),
		tokens:   servicemocks.NewMockTokenManager(ctrl),
		cache:    servicemocks.NewMockMessageCache(ctrl),
		locker:   servicemocks.NewMockLocker(ctrl),
		adapters: make(map[string]*providermocks.MockAdapter),
		configs:  make(map[string]provider.Config),
	}

	registry := provider.NewRegistry()
	for _, v := range vendors {
		name := v.name
		factory := newFactory(ctrl, v)
		adapter := providermocks.NewMockAdapter(ctrl)
		factory.EXPECT().ValidateConfig(gomock.Any()).Return(true).AnyTimes()
		factory.EXPECT().New(gomock.Any()).DoAndReturn(func(cfg provider.Config) provider.Adapter {
			f.configs[name] = cfg
			return adapter
		}).AnyTimes()
		registry.Register(factory)
		f.adapters[name] = adapter
	}

	cfg := testConfig()
	f.breakers = service.NewBreakerSet(cfg.CircuitBreaker, zap.NewNop())
	f.service = service.NewDispatchService(cfg, f.repo.repo, registry, f.tokens, f.breakers,
		f.cache, f.locker, clock.NewFake(testNow), logger)

	return f
}

func (f *dispatchFixture) expectLock(id int64) *bool {
	released := false
	f.locker.EXPECT().
		Acquire(gomock.Any(), "dispatch:"+strconv.FormatInt(id, 10), time.Minute).
		Return(func() { released = true }, true, nil)
	return &released
}

func sendOK(externalID string) provider.SendResult {
	return provider.SendResult{Status: provider.StatusSent, ExternalID: externalID}
}

func sendFailed(reason string) provider.SendResult {
	return provider.SendResult{Status: provider.StatusFailed, Error: reason}
}

func TestDispatchService_FallsBackToNextProvider(t *testing.T) {
	f := newDispatchFixture(t, vendor{name: "alpha"}, vendor{name: "beta"})
	ctx := context.Background()

	released := f.expectLock(1)
	f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(1)).Return(queuedMessage(1), nil)
	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return([]*models.Provider{
		testProvider(1, "alpha", 1),
		testProvider(2, "beta", 2),
	}, nil)

	gomock.InOrder(
		f.adapters["alpha"].EXPECT().
			Send(gomock.Any(), "+998901234567", "4546", "Hello", gomock.Any()).
			Return(sendFailed("insufficient balance")),
		f.adapters["beta"].EXPECT().
			Send(gomock.Any(), "+998901234567", "4546", "Hello", gomock.Any()).
			Return(provider.SendResult{
				Status:     provider.StatusSent,
				ExternalID: "xyz",
				Cost:       decimal.NewNullDecimal(decimal.RequireFromString("95.50")),
			}),
	)

	f.repo.messages.EXPECT().MarkSent(gomock.Any(), int64(1), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, outcome models.SendOutcome) error {
			assert.Equal(t, int64(2), outcome.ProviderID)
			assert.Equal(t, "xyz", outcome.ExternalID)
			assert.True(t, outcome.Price.Decimal.Equal(decimal.RequireFromString("95.50")))
			assert.Equal(t, models.DefaultCurrency, outcome.Currency)
			assert.Equal(t, testNow, outcome.SentAt)
			return nil
		})
	f.cache.EXPECT().Remember(gomock.Any(), "beta", "xyz", int64(1)).Return(nil)

	outcome, err := f.service.Dispatch(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, models.MessageStatusSent, outcome.Status)
	assert.Equal(t, "beta", outcome.Provider)
	assert.Equal(t, "xyz", outcome.ExternalID)
	require.Len(t, outcome.Attempts, 2)
	assert.Equal(t, "insufficient balance", outcome.Attempts[0].Error)
	assert.True(t, *released)
}

func TestDispatchService_PriorityOrderAndExhaustion(t *testing.T) {
	f := newDispatchFixture(t, vendor{name: "five"}, vendor{name: "one"}, vendor{name: "three"})

	f.expectLock(7)
	f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(7)).Return(queuedMessage(7), nil)
	// The repository returns providers ordered by priority.
	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return([]*models.Provider{
		testProvider(2, "one", 1),
		testProvider(3, "three", 3),
		testProvider(1, "five", 5),
	}, nil)

	gomock.InOrder(
		f.adapters["one"].EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(sendFailed("one down")),
		f.adapters["three"].EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(sendFailed("three down")),
		f.adapters["five"].EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(sendFailed("five down")),
	)

	f.repo.messages.EXPECT().ApplyStatus(gomock.Any(), int64(7), models.StatusUpdate{
		From:         models.MessageStatusQueued,
		To:           models.MessageStatusFailed,
		ErrorMessage: "five down",
		At:           testNow,
	}).Return(nil)

	outcome, err := f.service.Dispatch(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, models.MessageStatusFailed, outcome.Status)
	assert.Equal(t, "five down", outcome.Error)
	var order []string
	for _, a := range outcome.Attempts {
		order = append(order, a.Provider)
	}
	assert.Equal(t, []string{"one", "three", "five"}, order)
}

func TestDispatchService_StopsAtFirstSuccess(t *testing.T) {
	f := newDispatchFixture(t, vendor{name: "alpha"}, vendor{name: "beta"})

	f.expectLock(1)
	f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(1)).Return(queuedMessage(1), nil)
	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return([]*models.Provider{
		testProvider(1, "alpha", 1),
		testProvider(2, "beta", 2),
	}, nil)

	f.adapters["alpha"].EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(sendOK("abc123")).Times(1)
	f.adapters["beta"].EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	f.repo.messages.EXPECT().MarkSent(gomock.Any(), int64(1), gomock.Any()).Return(nil)
	f.cache.EXPECT().Remember(gomock.Any(), "alpha", "abc123", int64(1)).Return(errors.New("redis down"))

	outcome, err := f.service.Dispatch(context.Background(), 1)
	require.NoError(t, err, "cache failures do not fail the dispatch")
	assert.Equal(t, "alpha", outcome.Provider)
}

func TestDispatchService_NoProviders(t *testing.T) {
	f := newDispatchFixture(t)

	f.expectLock(1)
	f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(1)).Return(queuedMessage(1), nil)
	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return(nil, nil)
	f.repo.messages.EXPECT().ApplyStatus(gomock.Any(), int64(1), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, update models.StatusUpdate) error {
			assert.Equal(t, models.MessageStatusFailed, update.To)
			assert.Equal(t, "no providers configured", update.ErrorMessage)
			return nil
		})

	outcome, err := f.service.Dispatch(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusFailed, outcome.Status)
	assert.Equal(t, "no providers configured", outcome.Error)
}

func TestDispatchService_RejectsMessagesThatLeftTheQueue(t *testing.T) {
	statuses := []models.MessageStatus{
		models.MessageStatusSent,
		models.MessageStatusDelivered,
		models.MessageStatusFailed,
	}

	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			f := newDispatchFixture(t, vendor{name: "alpha"})

			msg := queuedMessage(1)
			msg.Status = status

			f.expectLock(1)
			f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(1)).Return(msg, nil)

			outcome, err := f.service.Dispatch(context.Background(), 1)
			assert.Nil(t, outcome)
			assert.ErrorIs(t, err, service.ErrMessageNotQueued)
		})
	}
}

func TestDispatchService_LockHeld(t *testing.T) {
	f := newDispatchFixture(t, vendor{name: "alpha"})

	f.locker.EXPECT().Acquire(gomock.Any(), "dispatch:1", time.Minute).Return(func() {}, false, nil)

	_, err := f.service.Dispatch(context.Background(), 1)
	assert.ErrorIs(t, err, service.ErrMessageLocked)
}

func TestDispatchService_MessageNotFound(t *testing.T) {
	f := newDispatchFixture(t, vendor{name: "alpha"})

	f.expectLock(9)
	f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(9)).Return(nil, repository.ErrMessageNotFound)

	_, err := f.service.Dispatch(context.Background(), 9)
	assert.ErrorIs(t, err, repository.ErrMessageNotFound)
}

func TestDispatchService_TokenGating(t *testing.T) {
	f := newDispatchFixture(t, vendor{name: "alpha", token: true}, vendor{name: "beta", token: true})

	alpha := testProvider(1, "alpha", 1)
	beta := testProvider(2, "beta", 2)

	f.expectLock(1)
	f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(1)).Return(queuedMessage(1), nil)
	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return([]*models.Provider{alpha, beta}, nil)

	f.tokens.EXPECT().GetValidToken(gomock.Any(), alpha).Return(nil, nil)
	f.tokens.EXPECT().GetValidToken(gomock.Any(), beta).
		Return(activeToken(2, "beta-token", testNow.Add(24*time.Hour*10)), nil)

	f.adapters["beta"].EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(sendOK("b-1"))
	f.repo.messages.EXPECT().MarkSent(gomock.Any(), int64(1), gomock.Any()).Return(nil)
	f.cache.EXPECT().Remember(gomock.Any(), "beta", "b-1", int64(1)).Return(nil)

	outcome, err := f.service.Dispatch(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "beta", outcome.Provider)
	require.Len(t, outcome.Attempts, 2)
	assert.True(t, outcome.Attempts[0].Skipped)
	assert.Equal(t, service.ErrNoCredential.Error(), outcome.Attempts[0].Error)

	assert.Equal(t, "beta-token", f.configs["beta"].Token)
	assert.NotContains(t, f.configs, "alpha")
}

func TestDispatchService_TokenStoreFailurePropagates(t *testing.T) {
	f := newDispatchFixture(t, vendor{name: "alpha", token: true})

	f.expectLock(1)
	f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(1)).Return(queuedMessage(1), nil)
	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return([]*models.Provider{testProvider(1, "alpha", 1)}, nil)
	f.tokens.EXPECT().GetValidToken(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, err := f.service.Dispatch(context.Background(), 1)
	assert.EqualError(t, err, "db down")
}

func TestDispatchService_RequestedProviderGoesFirst(t *testing.T) {
	f := newDispatchFixture(t, vendor{name: "alpha"}, vendor{name: "beta"})

	msg := queuedMessage(1)
	msg.RequestedProvider = sql.NullString{String: "BETA", Valid: true}

	f.expectLock(1)
	f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(1)).Return(msg, nil)
	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return([]*models.Provider{
		testProvider(1, "alpha", 1),
		testProvider(2, "beta", 2),
	}, nil)

	f.adapters["beta"].EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(sendOK("b-1"))
	f.repo.messages.EXPECT().MarkSent(gomock.Any(), int64(1), gomock.Any()).Return(nil)
	f.cache.EXPECT().Remember(gomock.Any(), "beta", "b-1", int64(1)).Return(nil)

	outcome, err := f.service.Dispatch(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "beta", outcome.Provider)
}

func TestDispatchService_SendOptions(t *testing.T) {
	f := newDispatchFixture(t, vendor{name: "alpha"})

	p := testProvider(1, "alpha", 1)
	p.DefaultConfig = types.JSONText(`{"from":"ACME"}`)

	f.expectLock(1)
	f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(1)).Return(queuedMessage(1), nil)
	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return([]*models.Provider{p}, nil)

	f.adapters["alpha"].EXPECT().Send(gomock.Any(), "+998901234567", "ACME", "Hello", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _, _ string, opts provider.SendOptions) provider.SendResult {
			deadline, ok := ctx.Deadline()
			assert.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
			assert.Equal(t, "https://hub.example.com/v1/webhooks/alpha/delivery", opts.CallbackURL)
			assert.Equal(t, "1", opts.MessageID)
			return sendOK("a-1")
		})
	f.repo.messages.EXPECT().MarkSent(gomock.Any(), int64(1), gomock.Any()).Return(nil)
	f.cache.EXPECT().Remember(gomock.Any(), "alpha", "a-1", int64(1)).Return(nil)

	_, err := f.service.Dispatch(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "https://alpha.example.com", f.configs["alpha"].BaseURL)
	assert.Equal(t, "ops@example.com", f.configs["alpha"].Username)
}

func TestDispatchService_StaleMarkSent(t *testing.T) {
	f := newDispatchFixture(t, vendor{name: "alpha"})

	f.expectLock(1)
	f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(1)).Return(queuedMessage(1), nil)
	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return([]*models.Provider{testProvider(1, "alpha", 1)}, nil)
	f.adapters["alpha"].EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(sendOK("a-1"))
	f.repo.messages.EXPECT().MarkSent(gomock.Any(), int64(1), gomock.Any()).Return(repository.ErrStaleStatus)

	_, err := f.service.Dispatch(context.Background(), 1)
	assert.ErrorIs(t, err, service.ErrMessageNotQueued)
}

func TestDispatchService_CircuitBreakerOpensOnTransientFailures(t *testing.T) {
	f := newDispatchFixture(t, vendor{name: "alpha"})

	f.locker.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any()).Return(func() {}, true, nil).AnyTimes()
	f.repo.messages.EXPECT().GetByID(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id int64) (*models.Message, error) {
			return queuedMessage(id), nil
		}).AnyTimes()
	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).
		Return([]*models.Provider{testProvider(1, "alpha", 1)}, nil).AnyTimes()
	f.repo.messages.EXPECT().ApplyStatus(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	f.adapters["alpha"].EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(provider.SendResult{Status: provider.StatusFailed, Error: "HTTP 503", Transient: true}).
		Times(5)

	for id := int64(1); id <= 5; id++ {
		outcome, err := f.service.Dispatch(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "HTTP 503", outcome.Error)
	}

	outcome, err := f.service.Dispatch(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusFailed, outcome.Status)
	assert.Equal(t, service.ErrCircuitOpen.Error(), outcome.Error)

	health := f.breakers.Health()
	require.Len(t, health, 1)
	assert.Equal(t, api.Open, health[0].CircuitBreakerState)
}

func hangUntilDeadline(ctx context.Context, _, _, _ string, _ provider.SendOptions) provider.SendResult {
	<-ctx.Done()
	return provider.SendResult{Status: provider.StatusFailed, Error: ctx.Err().Error(), Transient: true}
}

func TestDispatchService_HungProviderLeavesTimeForFallback(t *testing.T) {
	f := newDispatchFixture(t, vendor{name: "alpha"}, vendor{name: "beta"})

	// The job budget equals a single send timeout, the tightest a deployment can set.
	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	f.expectLock(1)
	f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(1)).Return(queuedMessage(1), nil)
	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return([]*models.Provider{
		testProvider(1, "alpha", 1),
		testProvider(2, "beta", 2),
	}, nil)

	gomock.InOrder(
		f.adapters["alpha"].EXPECT().
			Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(hangUntilDeadline),
		f.adapters["beta"].EXPECT().
			Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(sendCtx context.Context, _, _, _ string, _ provider.SendOptions) provider.SendResult {
				assert.NoError(t, sendCtx.Err())
				return sendOK("b-1")
			}),
	)

	f.repo.messages.EXPECT().MarkSent(gomock.Any(), int64(1), gomock.Any()).
		DoAndReturn(func(writeCtx context.Context, _ int64, outcome models.SendOutcome) error {
			assert.NoError(t, writeCtx.Err())
			assert.Equal(t, int64(2), outcome.ProviderID)
			return nil
		})
	f.cache.EXPECT().Remember(gomock.Any(), "beta", "b-1", int64(1)).Return(nil)

	outcome, err := f.service.Dispatch(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, models.MessageStatusSent, outcome.Status)
	assert.Equal(t, "beta", outcome.Provider)
	require.Len(t, outcome.Attempts, 2)
	assert.Contains(t, outcome.Attempts[0].Error, context.DeadlineExceeded.Error())
}

func TestDispatchService_RecordsFailureAfterJobDeadline(t *testing.T) {
	f := newDispatchFixture(t, vendor{name: "alpha"}, vendor{name: "beta"})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	f.expectLock(1)
	f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(1)).Return(queuedMessage(1), nil)
	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return([]*models.Provider{
		testProvider(1, "alpha", 1),
		testProvider(2, "beta", 2),
	}, nil)

	f.adapters["alpha"].EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(hangUntilDeadline)
	// beta may be refused outright if the deadline lands before its call.
	f.adapters["beta"].EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(hangUntilDeadline).MaxTimes(1)

	f.repo.messages.EXPECT().ApplyStatus(gomock.Any(), int64(1), gomock.Any()).
		DoAndReturn(func(writeCtx context.Context, _ int64, update models.StatusUpdate) error {
			assert.NoError(t, writeCtx.Err())
			assert.Equal(t, models.MessageStatusFailed, update.To)
			return nil
		})

	outcome, err := f.service.Dispatch(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, models.MessageStatusFailed, outcome.Status)
	assert.Contains(t, outcome.Error, context.DeadlineExceeded.Error())
}

func TestDispatchService_CancelledDispatchStaysQueued(t *testing.T) {
	f := newDispatchFixture(t, vendor{name: "alpha"}, vendor{name: "beta"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	released := f.expectLock(1)
	f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(1)).Return(queuedMessage(1), nil)
	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return([]*models.Provider{
		testProvider(1, "alpha", 1),
		testProvider(2, "beta", 2),
	}, nil)

	f.adapters["alpha"].EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(sendCtx context.Context, _, _, _ string, _ provider.SendOptions) provider.SendResult {
			cancel()
			<-sendCtx.Done()
			return provider.SendResult{Status: provider.StatusFailed, Error: sendCtx.Err().Error(), Transient: true}
		})

	outcome, err := f.service.Dispatch(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, outcome)
	assert.True(t, *released)
}

func TestDispatchService_WarnsWhenExternalIDMissing(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newDispatchFixtureWithLogger(t, zap.New(core), vendor{name: "alpha"})

	f.expectLock(1)
	f.repo.messages.EXPECT().GetByID(gomock.Any(), int64(1)).Return(queuedMessage(1), nil)
	f.repo.providers.EXPECT().ListEnabled(gomock.Any()).Return([]*models.Provider{testProvider(1, "alpha", 1)}, nil)
	f.adapters["alpha"].EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(sendOK(""))
	f.repo.messages.EXPECT().MarkSent(gomock.Any(), int64(1), gomock.Any()).Return(nil)

	outcome, err := f.service.Dispatch(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusSent, outcome.Status)

	entries := logs.FilterMessageSnippet("without an external id").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "alpha", entries[0].ContextMap()["provider"])
	assert.Equal(t, int64(1), entries[0].ContextMap()["messageID"])
}
