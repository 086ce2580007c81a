package syncing

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/infrastructure/integrator/meta"
	"github.com/vfg2006/ads-insight-sync/infrastructure/repository"
	"github.com/vfg2006/ads-insight-sync/internal/config"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/normalizing"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/reconciling"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/upserting"
	"github.com/vfg2006/ads-insight-sync/pkg/log"
	"github.com/vfg2006/ads-insight-sync/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

var ErrAccountInactive = errors.New("conta de anúncios inativa")

//go:generate mockgen -source=service.go -destination=mocks/service.go -package=mocks
type Syncer interface {
	Run(ctx context.Context, req domain.SyncRequest) (*domain.SyncLog, error)
	RunFullSync(ctx context.Context) (*domain.SyncLog, error)
	RunHistoricalSync(ctx context.Context, req domain.SyncRequest) (*domain.SyncLog, error)
	IngestEvent(ctx context.Context, event *domain.InsightEvent) (upserting.BatchResult, error)
	RecentRuns(ctx context.Context, limit int) ([]*domain.SyncLog, error)
}

type Dependencies struct {
	Accounts   repository.AccountRepository
	Snapshots  repository.SnapshotRepository
	SyncLogs   repository.SyncLogRepository
	Fetcher    meta.Fetcher
	Normalizer normalizing.Normalizer
	// BatchUpserter grava catálogo e snapshots da sincronização (consulta antes de escrever).
	BatchUpserter upserting.Upserter
	// EventUpserter grava eventos avulsos (escrita otimista).
	EventUpserter upserting.Upserter
}

type Service struct {
	deps                  Dependencies
	planner               *Planner
	sweeper               *RetentionSweeper
	maxConcurrentAccounts int
	location              *time.Location
	now                   func() time.Time
}

func NewService(cfg *config.Config, deps Dependencies) *Service {
	location := cfg.Location()

	return &Service{
		deps:                  deps,
		planner:               NewPlanner(deps.Snapshots),
		sweeper:               NewRetentionSweeper(deps.Snapshots, cfg.Sync.RetentionDays, cfg.Sync.DeleteBatchSize, location),
		maxConcurrentAccounts: max(cfg.Sync.MaxConcurrentAccounts, 1),
		location:              location,
		now:                   time.Now,
	}
}

// Run despacha para a sincronização completa ou histórica conforme o pedido.
func (s *Service) Run(ctx context.Context, req domain.SyncRequest) (*domain.SyncLog, error) {
	if req.FullSync {
		return s.RunFullSync(ctx)
	}
	return s.RunHistoricalSync(ctx, req)
}

// RunFullSync sincroniza o dia corrente de todas as contas ativas. A falha de
// uma conta fica registrada no log da execução e não interrompe as demais.
func (s *Service) RunFullSync(ctx context.Context) (*domain.SyncLog, error) {
	ctx, runID := log.WithCorrelationID(ctx)
	syncLog := s.newSyncLog(runID, domain.SyncTypeFull)
	logger := log.ForContext(ctx)

	accounts, err := s.deps.Accounts.ListActiveAccounts(ctx)
	if err != nil {
		logger.WithError(err).Error("Erro ao buscar contas para a sincronização completa")
		syncLog.Status = domain.SyncStatusError
		syncLog.ErrorText = err.Error()
		s.finish(ctx, syncLog)
		return syncLog, err
	}

	logger.WithField("accounts", len(accounts)).Info("Iniciando sincronização completa de insights")

	results := make([]domain.AccountResult, len(accounts))

	group := errgroup.Group{}
	group.SetLimit(s.maxConcurrentAccounts)
	for i, account := range accounts {
		i, account := i, account
		group.Go(func() error {
			results[i] = s.syncAccount(ctx, account, domain.SyncTypeFull, nil)
			return nil
		})
	}
	_ = group.Wait()

	syncLog.Accounts = results
	s.finish(ctx, syncLog)

	return syncLog, nil
}

// RunHistoricalSync sincroniza uma conta num período explícito, buscando só
// as datas que ainda não existem no armazenamento.
func (s *Service) RunHistoricalSync(ctx context.Context, req domain.SyncRequest) (*domain.SyncLog, error) {
	req.FullSync = false
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.deps.Accounts.GetAccount(ctx, req.OwnerID, req.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	if !account.IsActive() {
		return nil, ErrAccountInactive
	}

	ctx, runID := log.WithCorrelationID(ctx)
	syncLog := s.newSyncLog(runID, domain.SyncTypeHistorical)

	result := s.syncAccount(ctx, account, domain.SyncTypeHistorical, &req)
	syncLog.Accounts = []domain.AccountResult{result}
	s.finish(ctx, syncLog)

	return syncLog, nil
}

func (s *Service) RecentRuns(ctx context.Context, limit int) ([]*domain.SyncLog, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.deps.SyncLogs.ListRecent(ctx, limit)
}

// syncAccount percorre a máquina de estados de uma conta. Nunca propaga erro
// nem pânico: o resultado registra o estado em que a conta falhou.
func (s *Service) syncAccount(ctx context.Context, account *domain.AdAccount, syncType domain.SyncType, req *domain.SyncRequest) (result domain.AccountResult) {
	result = domain.AccountResult{
		OwnerID:   account.OwnerID,
		AccountID: account.ExternalID,
		State:     domain.AccountStateFetching,
	}

	logger := log.ForContext(ctx).WithFields(log.Fields{
		"owner_id":   account.OwnerID,
		"account_id": account.ExternalID,
	})

	fail := func(err error) domain.AccountResult {
		result.FailedAt = result.State
		result.State = domain.AccountStateFailed
		result.Error = err.Error()
		logger.WithError(err).WithField("state", result.FailedAt).Error("Falha na sincronização da conta")
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("stack", string(debug.Stack())).Error("Pânico recuperado na sincronização da conta")
			result = fail(fmt.Errorf("panic: %v", r))
		}
		metrics.AccountsTotal.WithLabelValues(strings.ToLower(string(result.State))).Inc()
	}()

	location := account.Location(s.location)
	today := s.now().In(location).Format(time.DateOnly)

	window := domain.TodayWindow()
	var plan *Plan
	if syncType == domain.SyncTypeHistorical {
		p, err := s.planner.Plan(ctx, account.OwnerID, account.NumericID(), *req.Since, *req.Until)
		if err != nil {
			return fail(err)
		}
		if p.Skip() {
			logger.WithField("dates", len(p.Requested)).Info("Todas as datas já sincronizadas, nenhuma chamada à API Meta")
			result.State = domain.AccountStateUpToDate
			return result
		}
		plan = &p
		window = p.Window
	}

	result.CallsIssued = true
	data, err := s.deps.Fetcher.FetchAccount(ctx, account, window)
	if err != nil {
		return fail(err)
	}

	result.State = domain.AccountStateReconciling
	reconciled := reconciling.Reconcile(reconciling.Input{
		Account:           account,
		Data:              data,
		Today:             today,
		SynthesizeMissing: syncType == domain.SyncTypeFull,
	})
	result.Recovered = len(reconciled.Recovered)

	result.State = domain.AccountStateNormalizing
	snapshots := make([]*domain.InsightSnapshot, 0, len(reconciled.Pairs))
	for _, pair := range reconciled.Pairs {
		if plan != nil && !plan.Keep(pair.Insight.DateStart) {
			continue
		}
		snapshots = append(snapshots, s.deps.Normalizer.Normalize(&pair.Insight, pair.Entity))
	}
	snapshots = reconciling.Deduplicate(snapshots)

	result.State = domain.AccountStateUpserting
	s.upsertCatalog(ctx, reconciled.Entities, &result)
	s.upsertSnapshots(ctx, snapshots, &result)

	if syncType == domain.SyncTypeFull {
		result.State = domain.AccountStateCleanup
		deleted, err := s.sweeper.Sweep(ctx, account)
		result.Deleted = deleted
		if err != nil {
			return fail(err)
		}
	}

	result.State = domain.AccountStateDone
	if result.Failed > 0 {
		result.Error = fmt.Sprintf("%d registros não foram gravados", result.Failed)
	}

	logger.WithFields(log.Fields{
		"inserted":  result.Inserted,
		"updated":   result.Updated,
		"unchanged": result.Unchanged,
		"failed":    result.Failed,
		"archived":  result.Archived,
		"recovered": result.Recovered,
		"deleted":   result.Deleted,
	}).Info("Sincronização da conta concluída")

	return result
}

// upsertCatalog grava campanhas, conjuntos e anúncios observados. Placeholders
// de insights órfãos não entram no catálogo. Falhas no catálogo não contam
// como registros de snapshot, só são logadas.
func (s *Service) upsertCatalog(ctx context.Context, entities []*domain.CatalogEntity, result *domain.AccountResult) {
	byLevel := make(map[domain.InsightLevel][]tablestore.Record, len(domain.Levels))
	for _, entity := range entities {
		if entity.Placeholder {
			continue
		}
		byLevel[entity.Level] = append(byLevel[entity.Level], tablestore.NewRecord(repository.CatalogToFields(entity)))
	}

	for _, level := range domain.Levels {
		records := byLevel[level]
		if len(records) == 0 {
			continue
		}

		batch := s.deps.BatchUpserter.Upsert(ctx, catalogTarget(level), records)
		if batch.Failed > 0 {
			logrus.WithFields(logrus.Fields{
				"account_id": result.AccountID,
				"level":      level,
				"failed":     batch.Failed,
				"errors":     joinErrors(batch.Errors),
			}).Warn("Entidades do catálogo não gravadas")
		}
	}
}

func (s *Service) upsertSnapshots(ctx context.Context, snapshots []*domain.InsightSnapshot, result *domain.AccountResult) {
	byTable := make(map[string][]tablestore.Record, 2)
	for _, snapshot := range snapshots {
		table := repository.SnapshotTable(snapshot)
		if snapshot.IsArchived() {
			result.Archived++
		}
		byTable[table] = append(byTable[table], tablestore.NewRecord(repository.SnapshotToFields(snapshot)))
	}

	for _, table := range snapshotTables {
		records := byTable[table]
		if len(records) == 0 {
			continue
		}

		batch := s.deps.BatchUpserter.Upsert(ctx, snapshotTarget(table), records)
		result.Inserted += batch.Inserted
		result.Updated += batch.Updated
		result.Unchanged += batch.Unchanged
		result.Failed += batch.Failed

		if batch.Failed > 0 {
			logrus.WithFields(logrus.Fields{
				"account_id": result.AccountID,
				"table":      table,
				"failed":     batch.Failed,
				"errors":     joinErrors(batch.Errors),
			}).Warn("Snapshots não gravados")
		}
	}
}

func (s *Service) newSyncLog(runID string, syncType domain.SyncType) *domain.SyncLog {
	return &domain.SyncLog{
		RunID:     runID,
		Type:      syncType,
		StartedAt: s.now().UTC(),
		Status:    domain.SyncStatusSuccess,
	}
}

// finish consolida o log da execução, grava no armazenamento e publica as métricas.
func (s *Service) finish(ctx context.Context, syncLog *domain.SyncLog) {
	syncLog.FinishedAt = s.now().UTC()

	messages := make([]string, 0)
	if syncLog.ErrorText != "" {
		messages = append(messages, syncLog.ErrorText)
	}

	for _, account := range syncLog.Accounts {
		syncLog.RecordsProcessed += account.Processed()
		if account.Succeeded() {
			syncLog.AccountsSucceeded++
		} else {
			syncLog.AccountsFailed++
		}
		if account.Error != "" {
			messages = append(messages, fmt.Sprintf("%s: %s", account.AccountID, account.Error))
		}
	}
	syncLog.ErrorText = strings.Join(messages, "; ")

	switch {
	case syncLog.Status == domain.SyncStatusError:
	case syncLog.AccountsFailed > 0 && syncLog.AccountsSucceeded == 0:
		syncLog.Status = domain.SyncStatusError
	case syncLog.AccountsFailed > 0:
		syncLog.Status = domain.SyncStatusPartialError
	}

	if err := s.deps.SyncLogs.Create(ctx, syncLog); err != nil {
		logrus.WithError(err).WithField("run_id", syncLog.RunID).Error("Erro ao gravar o log da sincronização")
	}

	duration := syncLog.FinishedAt.Sub(syncLog.StartedAt)
	metrics.SyncRunsTotal.WithLabelValues(string(syncLog.Type), string(syncLog.Status)).Inc()
	metrics.SyncDuration.WithLabelValues(string(syncLog.Type)).Observe(duration.Seconds())

	log.ForContext(ctx).WithFields(log.Fields{
		"run_id":             syncLog.RunID,
		"type":               syncLog.Type,
		"status":             syncLog.Status,
		"records_processed":  syncLog.RecordsProcessed,
		"accounts_succeeded": syncLog.AccountsSucceeded,
		"accounts_failed":    syncLog.AccountsFailed,
		"duration":           duration.String(),
	}).Info("Sincronização finalizada")
}

func joinErrors(errs []upserting.RecordError) string {
	const maxErrors = 5
	parts := make([]string, 0, maxErrors)
	for i, err := range errs {
		if i == maxErrors {
			parts = append(parts, fmt.Sprintf("(+%d)", len(errs)-maxErrors))
			break
		}
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}
