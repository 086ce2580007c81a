package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/internal/config"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/syncing"
	"github.com/vfg2006/ads-insight-sync/pkg/distlock"
)

//go:generate mockgen -source=insight_sync.go -destination=mocks/insight_sync.go -package=mocks
type FullSyncTrigger interface {
	// TriggerManualSync dispara a sincronização completa em segundo plano.
	// Devolve false quando já existe uma execução em andamento nesta instância.
	TriggerManualSync() bool
	GetStatus() map[string]any
}

// InsightSyncService agenda a sincronização completa de insights. Uma execução
// por vez nesta instância (syncRunning) e entre réplicas (lock distribuído).
type InsightSyncService struct {
	scheduler *gocron.Scheduler
	config    config.Sync
	syncer    syncing.Syncer
	locker    distlock.Locker
	lockTTL   time.Duration

	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
	lastRun             *domain.SyncLog
}

func NewInsightSyncService(syncer syncing.Syncer, locker distlock.Locker, appConfig *config.Config) *InsightSyncService {
	logrus.WithFields(logrus.Fields{
		"cron_schedule":           appConfig.Sync.CronSchedule,
		"max_concurrent_accounts": appConfig.Sync.MaxConcurrentAccounts,
		"retention_days":          appConfig.Sync.RetentionDays,
		"result_mode":             appConfig.Sync.ResultMode,
		"sync_enabled":            appConfig.Sync.Enabled,
	}).Info("Configuração do agendador de insights carregada")

	lockTTL := appConfig.Redis.LockTTL
	if lockTTL <= 0 {
		lockTTL = distlock.DefaultLockTTL
	}

	return &InsightSyncService{
		scheduler: gocron.NewScheduler(appConfig.Location()),
		config:    appConfig.Sync,
		syncer:    syncer,
		locker:    locker,
		lockTTL:   lockTTL,
	}
}

// Start agenda o job e para o agendador quando o contexto é cancelado.
func (s *InsightSyncService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logrus.Info("Sincronização de insights desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de sincronização de insights")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.syncAllAccounts(ctx)
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar sincronização de insights: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de sincronização de insights")
		s.scheduler.Stop()
	}()

	return nil
}

// syncAllAccounts executa uma sincronização completa se nenhuma outra estiver
// rodando aqui ou em outra réplica.
func (s *InsightSyncService) syncAllAccounts(ctx context.Context) {
	if !s.tryStart() {
		logrus.Info("Sincronização de insights já em andamento, ignorando")
		return
	}
	defer s.markStopped()

	s.runLocked(ctx)
}

func (s *InsightSyncService) runLocked(ctx context.Context) {
	acquired, err := s.locker.Acquire(ctx)
	if err != nil {
		logrus.WithError(err).Error("Erro ao adquirir lock da sincronização de insights")
		return
	}
	if !acquired {
		logrus.Info("Outra instância já está sincronizando insights, ignorando")
		return
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx)); err != nil {
			logrus.WithError(err).Warn("Erro ao liberar lock da sincronização de insights")
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.keepLockAlive(runCtx, cancel)()

	startTime := time.Now()
	s.syncMutex.Lock()
	s.lastSyncStartedAt = startTime
	s.syncMutex.Unlock()

	syncLog, err := s.syncer.RunFullSync(runCtx)
	if err != nil {
		logrus.WithError(err).Error("Erro na sincronização completa de insights")
	}

	s.syncMutex.Lock()
	s.lastSyncCompletedAt = time.Now()
	if syncLog != nil {
		s.lastRun = syncLog
	}
	s.syncMutex.Unlock()

	logrus.WithField("duration", time.Since(startTime).String()).Info("Sincronização completa de insights concluída")
}

// keepLockAlive renova o lock a cada terço do TTL enquanto a execução dura.
// Se o lock for perdido, lost cancela a execução. A função devolvida encerra
// a renovação e só retorna depois da última chamada a Extend.
func (s *InsightSyncService) keepLockAlive(ctx context.Context, lost context.CancelFunc) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	interval := s.lockTTL / 3
	if interval <= 0 {
		interval = time.Millisecond
	}

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				held, err := s.locker.Extend(ctx, s.lockTTL)
				if err != nil {
					logrus.WithError(err).Warn("Erro ao renovar lock da sincronização de insights")
					continue
				}
				if !held {
					logrus.Error("Lock da sincronização de insights perdido, interrompendo execução")
					lost()
					return
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

func (s *InsightSyncService) tryStart() bool {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()
	if s.syncRunning {
		return false
	}
	s.syncRunning = true
	return true
}

func (s *InsightSyncService) markStopped() {
	s.syncMutex.Lock()
	s.syncRunning = false
	s.syncMutex.Unlock()
}

func (s *InsightSyncService) TriggerManualSync() bool {
	if !s.tryStart() {
		logrus.Info("Sincronização de insights já em andamento, ignorando solicitação manual")
		return false
	}

	logrus.Info("Iniciando sincronização manual de insights")
	go func() {
		defer s.markStopped()
		s.runLocked(context.Background())
	}()
	return true
}

// GetStatus retorna o status atual do agendador e o resumo da última execução.
func (s *InsightSyncService) GetStatus() map[string]any {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	status := map[string]any{
		"sync_enabled":           s.config.Enabled,
		"sync_cron":              s.config.CronSchedule,
		"sync_running":           s.syncRunning,
		"sync_max_concurrent":    s.config.MaxConcurrentAccounts,
		"retention_days":         s.config.RetentionDays,
		"result_mode":            s.config.ResultMode,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
	}

	if s.lastRun != nil {
		status["last_run_id"] = s.lastRun.RunID
		status["last_run_status"] = s.lastRun.Status
		status["last_run_records"] = s.lastRun.RecordsProcessed
		status["last_run_accounts_failed"] = s.lastRun.AccountsFailed
	}

	return status
}
