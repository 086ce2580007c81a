package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vfg2006/ads-insight-sync/internal/config"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	syncmocks "github.com/vfg2006/ads-insight-sync/internal/usecases/syncing/mocks"
	lockmocks "github.com/vfg2006/ads-insight-sync/pkg/distlock/mocks"
	"go.uber.org/mock/gomock"
)

func newTestSyncService(t *testing.T) (*InsightSyncService, *syncmocks.MockSyncer, *lockmocks.MockLocker) {
	ctrl := gomock.NewController(t)
	syncer := syncmocks.NewMockSyncer(ctrl)
	locker := lockmocks.NewMockLocker(ctrl)

	cfg := &config.Config{Sync: config.Sync{
		CronSchedule: "0 * * * *",
		Enabled:      true,
		Timezone:     "UTC",
	}}

	return NewInsightSyncService(syncer, locker, cfg), syncer, locker
}

func TestInsightSyncService_syncAllAccounts(t *testing.T) {
	tests := []struct {
		name     string
		running  bool
		setup    func(syncer *syncmocks.MockSyncer, locker *lockmocks.MockLocker)
		validate func(t *testing.T, status map[string]any)
	}{
		{
			name: "Lock adquirido executa a sincronização e libera o lock",
			setup: func(syncer *syncmocks.MockSyncer, locker *lockmocks.MockLocker) {
				gomock.InOrder(
					locker.EXPECT().Acquire(gomock.Any()).Return(true, nil),
					syncer.EXPECT().RunFullSync(gomock.Any()).Return(&domain.SyncLog{
						RunID:            "run-1",
						Status:           domain.SyncStatusPartialError,
						RecordsProcessed: 42,
						AccountsFailed:   1,
					}, nil),
					locker.EXPECT().Release(gomock.Any()).Return(nil),
				)
			},
			validate: func(t *testing.T, status map[string]any) {
				assert.Equal(t, "run-1", status["last_run_id"])
				assert.Equal(t, domain.SyncStatusPartialError, status["last_run_status"])
				assert.Equal(t, 42, status["last_run_records"])
				assert.Equal(t, false, status["sync_running"])
				assert.False(t, status["last_sync_completed_at"].(time.Time).IsZero())
			},
		},
		{
			name: "Outra réplica com o lock não dispara a sincronização",
			setup: func(_ *syncmocks.MockSyncer, locker *lockmocks.MockLocker) {
				locker.EXPECT().Acquire(gomock.Any()).Return(false, nil)
			},
			validate: func(t *testing.T, status map[string]any) {
				assert.NotContains(t, status, "last_run_id")
			},
		},
		{
			name: "Erro no Redis não dispara a sincronização",
			setup: func(_ *syncmocks.MockSyncer, locker *lockmocks.MockLocker) {
				locker.EXPECT().Acquire(gomock.Any()).Return(false, errors.New("conexão recusada"))
			},
			validate: func(t *testing.T, status map[string]any) {
				assert.NotContains(t, status, "last_run_id")
			},
		},
		{
			name:    "Execução em andamento nesta instância é ignorada",
			running: true,
			setup:   func(*syncmocks.MockSyncer, *lockmocks.MockLocker) {},
			validate: func(t *testing.T, status map[string]any) {
				assert.Equal(t, true, status["sync_running"])
			},
		},
		{
			name: "Erro na execução ainda libera o lock",
			setup: func(syncer *syncmocks.MockSyncer, locker *lockmocks.MockLocker) {
				locker.EXPECT().Acquire(gomock.Any()).Return(true, nil)
				syncer.EXPECT().RunFullSync(gomock.Any()).Return(&domain.SyncLog{RunID: "run-2", Status: domain.SyncStatusError}, errors.New("banco fora"))
				locker.EXPECT().Release(gomock.Any()).Return(nil)
			},
			validate: func(t *testing.T, status map[string]any) {
				assert.Equal(t, domain.SyncStatusError, status["last_run_status"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, syncer, locker := newTestSyncService(t)
			service.syncRunning = tt.running
			tt.setup(syncer, locker)

			service.syncAllAccounts(context.Background())

			tt.validate(t, service.GetStatus())
		})
	}
}

func TestInsightSyncService_LockHeartbeat(t *testing.T) {
	t.Run("Execução longa renova o lock até terminar", func(t *testing.T) {
		service, syncer, locker := newTestSyncService(t)
		service.lockTTL = 30 * time.Millisecond

		var extends atomic.Int32
		released := false

		locker.EXPECT().Acquire(gomock.Any()).Return(true, nil)
		locker.EXPECT().Extend(gomock.Any(), 30*time.Millisecond).DoAndReturn(func(context.Context, time.Duration) (bool, error) {
			assert.False(t, released, "renovação depois de liberar o lock")
			extends.Add(1)
			return true, nil
		}).MinTimes(1)
		syncer.EXPECT().RunFullSync(gomock.Any()).DoAndReturn(func(ctx context.Context) (*domain.SyncLog, error) {
			assert.Eventually(t, func() bool { return extends.Load() >= 2 }, time.Second, 5*time.Millisecond)
			assert.NoError(t, ctx.Err())
			return &domain.SyncLog{RunID: "longa"}, nil
		})
		locker.EXPECT().Release(gomock.Any()).DoAndReturn(func(context.Context) error {
			released = true
			return nil
		})

		service.syncAllAccounts(context.Background())

		assert.Equal(t, "longa", service.GetStatus()["last_run_id"])
	})

	t.Run("Lock perdido cancela a execução", func(t *testing.T) {
		service, syncer, locker := newTestSyncService(t)
		service.lockTTL = 30 * time.Millisecond

		locker.EXPECT().Acquire(gomock.Any()).Return(true, nil)
		locker.EXPECT().Extend(gomock.Any(), gomock.Any()).Return(false, nil)
		syncer.EXPECT().RunFullSync(gomock.Any()).DoAndReturn(func(ctx context.Context) (*domain.SyncLog, error) {
			select {
			case <-ctx.Done():
				return &domain.SyncLog{RunID: "interrompida", Status: domain.SyncStatusError}, ctx.Err()
			case <-time.After(2 * time.Second):
				t.Error("execução não foi cancelada após perder o lock")
				return nil, nil
			}
		})
		locker.EXPECT().Release(gomock.Any()).Return(nil)

		service.syncAllAccounts(context.Background())

		assert.Equal(t, domain.SyncStatusError, service.GetStatus()["last_run_status"])
	})

	t.Run("Erro ao renovar não interrompe", func(t *testing.T) {
		service, syncer, locker := newTestSyncService(t)
		service.lockTTL = 30 * time.Millisecond

		var extends atomic.Int32
		locker.EXPECT().Acquire(gomock.Any()).Return(true, nil)
		locker.EXPECT().Extend(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, time.Duration) (bool, error) {
			extends.Add(1)
			return false, errors.New("timeout")
		}).MinTimes(1)
		syncer.EXPECT().RunFullSync(gomock.Any()).DoAndReturn(func(ctx context.Context) (*domain.SyncLog, error) {
			assert.Eventually(t, func() bool { return extends.Load() >= 2 }, time.Second, 5*time.Millisecond)
			assert.NoError(t, ctx.Err())
			return &domain.SyncLog{RunID: "ok"}, nil
		})
		locker.EXPECT().Release(gomock.Any()).Return(nil)

		service.syncAllAccounts(context.Background())

		assert.Equal(t, "ok", service.GetStatus()["last_run_id"])
	})
}

func TestInsightSyncService_TriggerManualSync(t *testing.T) {
	service, syncer, locker := newTestSyncService(t)

	release := make(chan struct{})
	done := make(chan struct{})

	locker.EXPECT().Acquire(gomock.Any()).Return(true, nil)
	syncer.EXPECT().RunFullSync(gomock.Any()).DoAndReturn(func(context.Context) (*domain.SyncLog, error) {
		<-release
		return &domain.SyncLog{RunID: "manual"}, nil
	})
	locker.EXPECT().Release(gomock.Any()).DoAndReturn(func(context.Context) error {
		close(done)
		return nil
	})

	assert.True(t, service.TriggerManualSync())
	assert.False(t, service.TriggerManualSync(), "segunda solicitação enquanto a primeira roda é recusada")

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sincronização manual não terminou")
	}

	assert.Eventually(t, func() bool {
		return service.GetStatus()["sync_running"] == false
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "manual", service.GetStatus()["last_run_id"])
}

func TestInsightSyncService_StartDisabled(t *testing.T) {
	service, _, _ := newTestSyncService(t)
	service.config.Enabled = false

	assert.NoError(t, service.Start(context.Background()))
	assert.Empty(t, service.scheduler.Jobs())
}

func TestInsightSyncService_StartInvalidCron(t *testing.T) {
	service, _, _ := newTestSyncService(t)
	service.config.CronSchedule = "isso não é cron"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Error(t, service.Start(ctx))
}
