package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
)

//go:generate mockgen -source=sync_log.go -destination=mocks/sync_log.go -package=mocks
type SyncLogRepository interface {
	Create(ctx context.Context, log *domain.SyncLog) error
	ListRecent(ctx context.Context, limit int) ([]*domain.SyncLog, error)
}

type syncLogRepository struct {
	store tablestore.Store
}

func NewSyncLogRepository(store tablestore.Store) SyncLogRepository {
	return &syncLogRepository{
		store: store,
	}
}

// Create grava uma linha por execução. A tabela é somente de inserção.
func (r *syncLogRepository) Create(ctx context.Context, syncLog *domain.SyncLog) error {
	accounts, err := json.Marshal(syncLog.Accounts)
	if err != nil {
		return fmt.Errorf("erro ao serializar contas do log: %w", err)
	}

	fields := map[string]any{
		"run_id":             syncLog.RunID,
		"type":               string(syncLog.Type),
		"started_at":         syncLog.StartedAt.UTC().Format(time.RFC3339),
		"finished_at":        syncLog.FinishedAt.UTC().Format(time.RFC3339),
		"records_processed":  syncLog.RecordsProcessed,
		"status":             string(syncLog.Status),
		"error_text":         syncLog.ErrorText,
		"accounts_succeeded": syncLog.AccountsSucceeded,
		"accounts_failed":    syncLog.AccountsFailed,
		"accounts":           string(accounts),
	}

	created, err := r.store.Insert(ctx, tablestore.TableSyncLogs, []tablestore.Record{tablestore.NewRecord(fields)})
	if err != nil {
		return fmt.Errorf("erro ao gravar log de sincronização: %w", err)
	}

	if len(created) > 0 {
		syncLog.ID = created[0].ID
	}

	return nil
}

func (r *syncLogRepository) ListRecent(ctx context.Context, limit int) ([]*domain.SyncLog, error) {
	records, err := r.store.List(ctx, tablestore.TableSyncLogs, tablestore.Query{
		Sort:  "-started_at",
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("erro ao listar logs de sincronização: %w", err)
	}

	logs := make([]*domain.SyncLog, 0, len(records))
	for _, rec := range records {
		syncLog := &domain.SyncLog{
			ID:                rec.ID,
			RunID:             rec.String("run_id"),
			Type:              domain.SyncType(rec.String("type")),
			RecordsProcessed:  int(rec.Float("records_processed")),
			Status:            domain.SyncStatus(rec.String("status")),
			ErrorText:         rec.String("error_text"),
			AccountsSucceeded: int(rec.Float("accounts_succeeded")),
			AccountsFailed:    int(rec.Float("accounts_failed")),
		}
		syncLog.StartedAt, _ = time.Parse(time.RFC3339, rec.String("started_at"))
		syncLog.FinishedAt, _ = time.Parse(time.RFC3339, rec.String("finished_at"))

		if raw := rec.String("accounts"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &syncLog.Accounts); err != nil {
				logrus.WithError(err).WithField("run_id", syncLog.RunID).Warn("Erro ao ler contas do log de sincronização")
			}
		}

		logs = append(logs, syncLog)
	}

	return logs, nil
}
