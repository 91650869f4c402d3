package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/scheduler"
	"github.com/popeskul/smshub/internal/service"
	servicemocks "github.com/popeskul/smshub/internal/service/mocks"
)

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestSchedulerService_RunsBothTasksOnStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := servicemocks.NewMockJobQueue(ctrl)
	tokens := servicemocks.NewMockTokenManager(ctrl)
	status := servicemocks.NewMockStatusService(ctrl)

	refreshed := make(chan struct{}, 1)
	polled := make(chan struct{}, 1)

	jobs.EXPECT().RefreshTokens(gomock.Any(), false).DoAndReturn(func(context.Context, bool) error {
		refreshed <- struct{}{}
		return nil
	})
	status.EXPECT().PollStatuses(gomock.Any(), 50).DoAndReturn(func(context.Context, int) (*service.PollSummary, error) {
		polled <- struct{}{}
		return &service.PollSummary{}, nil
	})
	tokens.EXPECT().RefreshAll(gomock.Any(), gomock.Any()).Times(0)

	svc := service.NewSchedulerService(testConfig(), jobs, tokens, status, zap.NewNop())

	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())
	assert.ErrorIs(t, svc.Start(), scheduler.ErrSchedulerAlreadyRunning)

	waitFor(t, refreshed, "token refresh")
	waitFor(t, polled, "status poll")

	require.NoError(t, svc.Stop())
	assert.False(t, svc.IsRunning())
	assert.ErrorIs(t, svc.Stop(), scheduler.ErrSchedulerNotRunning)
}

func TestSchedulerService_RefreshesInlineWithoutQueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokens := servicemocks.NewMockTokenManager(ctrl)
	status := servicemocks.NewMockStatusService(ctrl)

	refreshed := make(chan struct{}, 1)
	tokens.EXPECT().RefreshAll(gomock.Any(), false).DoAndReturn(func(context.Context, bool) ([]service.RefreshResult, error) {
		refreshed <- struct{}{}
		return nil, nil
	})
	status.EXPECT().PollStatuses(gomock.Any(), gomock.Any()).Return(&service.PollSummary{}, nil).AnyTimes()

	svc := service.NewSchedulerService(testConfig(), nil, tokens, status, zap.NewNop())

	require.NoError(t, svc.Start())
	waitFor(t, refreshed, "inline token refresh")
	require.NoError(t, svc.Stop())
}
