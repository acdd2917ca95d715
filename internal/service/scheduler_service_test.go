package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/qhosting/cloudsms/internal/config"
	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/service"
	"github.com/qhosting/cloudsms/internal/service/mocks"
)

func sweepConfig() *config.Config {
	return &config.Config{
		Scheduler: config.SchedulerConfig{
			IntervalMinutes:   1,
			StaleAfterSeconds: 300,
			BatchSize:         20,
		},
	}
}

func TestSchedulerService_Lifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	rm := newRepoMocks(ctrl)
	pool := mocks.NewMockSubmissionPool(ctrl)

	swept := make(chan struct{}, 1)
	rm.campaign.EXPECT().ListWithStalePending(gomock.Any(), gomock.Any(), 20).Return(nil, nil).AnyTimes()
	rm.campaign.EXPECT().ListSending(gomock.Any(), 20).DoAndReturn(func(context.Context, int) ([]int64, error) {
		select {
		case swept <- struct{}{}:
		default:
		}
		return nil, nil
	}).AnyTimes()

	svc := service.NewSchedulerService(sweepConfig(), rm.repo, pool, zap.NewNop())
	assert.False(t, svc.IsRunning())

	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())

	select {
	case <-swept:
	case <-time.After(time.Second):
		t.Fatal("sweep did not run on start")
	}

	err := svc.Start()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	require.NoError(t, svc.Stop())
	assert.False(t, svc.IsRunning())

	err = svc.Stop()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestSchedulerService_Sweep(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(rm *repoMocks, pool *mocks.MockSubmissionPool)
		wantErr bool
	}{
		{
			name: "requeues stale campaigns and finalizes idle ones",
			setup: func(rm *repoMocks, pool *mocks.MockSubmissionPool) {
				rm.campaign.EXPECT().ListWithStalePending(gomock.Any(), gomock.Any(), 20).Return([]int64{1, 2}, nil)
				pool.EXPECT().Enqueue(gomock.Any(), int64(1)).Return(nil)
				pool.EXPECT().Enqueue(gomock.Any(), int64(2)).Return(nil)
				rm.campaign.EXPECT().ListSending(gomock.Any(), 20).Return([]int64{1, 2, 3}, nil)
				rm.campaign.EXPECT().Finalize(gomock.Any(), int64(1)).Return(models.CampaignStatusSending, false, nil)
				rm.campaign.EXPECT().Finalize(gomock.Any(), int64(2)).Return(models.CampaignStatusSending, false, nil)
				rm.campaign.EXPECT().Finalize(gomock.Any(), int64(3)).Return(models.CampaignStatusCompleted, true, nil)
			},
		},
		{
			name: "enqueue failure does not stop the sweep",
			setup: func(rm *repoMocks, pool *mocks.MockSubmissionPool) {
				rm.campaign.EXPECT().ListWithStalePending(gomock.Any(), gomock.Any(), 20).Return([]int64{1, 2}, nil)
				pool.EXPECT().Enqueue(gomock.Any(), int64(1)).Return(context.DeadlineExceeded)
				pool.EXPECT().Enqueue(gomock.Any(), int64(2)).Return(nil)
				rm.campaign.EXPECT().ListSending(gomock.Any(), 20).Return(nil, nil)
			},
		},
		{
			name: "finalize failure does not stop the sweep",
			setup: func(rm *repoMocks, pool *mocks.MockSubmissionPool) {
				rm.campaign.EXPECT().ListWithStalePending(gomock.Any(), gomock.Any(), 20).Return(nil, nil)
				rm.campaign.EXPECT().ListSending(gomock.Any(), 20).Return([]int64{4, 5}, nil)
				rm.campaign.EXPECT().Finalize(gomock.Any(), int64(4)).Return(models.CampaignStatus(""), false, errors.New("deadlock"))
				rm.campaign.EXPECT().Finalize(gomock.Any(), int64(5)).Return(models.CampaignStatusFailed, true, nil)
			},
		},
		{
			name: "stale listing error",
			setup: func(rm *repoMocks, pool *mocks.MockSubmissionPool) {
				rm.campaign.EXPECT().ListWithStalePending(gomock.Any(), gomock.Any(), 20).Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
		{
			name: "sending listing error",
			setup: func(rm *repoMocks, pool *mocks.MockSubmissionPool) {
				rm.campaign.EXPECT().ListWithStalePending(gomock.Any(), gomock.Any(), 20).Return(nil, nil)
				rm.campaign.EXPECT().ListSending(gomock.Any(), 20).Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			rm := newRepoMocks(ctrl)
			pool := mocks.NewMockSubmissionPool(ctrl)
			tt.setup(rm, pool)

			svc := service.NewSchedulerService(sweepConfig(), rm.repo, pool, zap.NewNop())
			err := service.RunSweep(context.Background(), svc)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchedulerService_SweepUsesStaleThreshold(t *testing.T) {
	ctrl := gomock.NewController(t)
	rm := newRepoMocks(ctrl)
	pool := mocks.NewMockSubmissionPool(ctrl)

	var staleBefore time.Time
	rm.campaign.EXPECT().ListWithStalePending(gomock.Any(), gomock.Any(), 20).DoAndReturn(
		func(_ context.Context, before time.Time, _ int) ([]int64, error) {
			staleBefore = before
			return nil, nil
		})
	rm.campaign.EXPECT().ListSending(gomock.Any(), 20).Return(nil, nil)

	svc := service.NewSchedulerService(sweepConfig(), rm.repo, pool, zap.NewNop())
	require.NoError(t, service.RunSweep(context.Background(), svc))

	assert.WithinDuration(t, time.Now().Add(-300*time.Second), staleBefore, 5*time.Second)
}
