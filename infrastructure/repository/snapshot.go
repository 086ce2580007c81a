package repository

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
)

//go:generate mockgen -source=snapshot.go -destination=mocks/snapshot.go -package=mocks
type SnapshotRepository interface {
	ListDates(ctx context.Context, ownerID, accountID, since, until string) (map[string]struct{}, error)
	List(ctx context.Context, filter SnapshotFilter) ([]*domain.InsightSnapshot, error)
	DeleteBefore(ctx context.Context, ownerID, accountID, boundary string, batchSize int) (int, error)
}

// SnapshotFilter seleciona snapshots de uma conta. Datas no formato YYYY-MM-DD;
// campos vazios não filtram.
type SnapshotFilter struct {
	OwnerID   string
	AccountID string
	Since     string
	Until     string
	Level     domain.InsightLevel
	Archived  bool
}

type snapshotRepository struct {
	store tablestore.Store
}

func NewSnapshotRepository(store tablestore.Store) SnapshotRepository {
	return &snapshotRepository{
		store: store,
	}
}

// ListDates devolve as datas já gravadas na tabela operacional para a conta.
func (r *snapshotRepository) ListDates(ctx context.Context, ownerID, accountID, since, until string) (map[string]struct{}, error) {
	records, err := r.store.List(ctx, tablestore.TableInsights, tablestore.Query{
		Where: []tablestore.Condition{
			tablestore.Eq(FieldOwnerID, ownerID),
			tablestore.Eq(FieldAccountID, accountID),
			tablestore.OnOrAfter(FieldDateStart, since),
			tablestore.OnOrBefore(FieldDateStart, until),
		},
		Fields: []string{FieldDateStart},
	})
	if err != nil {
		return nil, fmt.Errorf("erro ao listar datas existentes: %w", err)
	}

	dates := make(map[string]struct{}, len(records))
	for _, rec := range records {
		date := rec.String(FieldDateStart)
		if len(date) >= 10 {
			dates[date[:10]] = struct{}{}
		}
	}

	return dates, nil
}

func (r *snapshotRepository) List(ctx context.Context, filter SnapshotFilter) ([]*domain.InsightSnapshot, error) {
	where := []tablestore.Condition{
		tablestore.Eq(FieldOwnerID, filter.OwnerID),
		tablestore.Eq(FieldAccountID, filter.AccountID),
	}
	if filter.Since != "" {
		where = append(where, tablestore.OnOrAfter(FieldDateStart, filter.Since))
	}
	if filter.Until != "" {
		where = append(where, tablestore.OnOrBefore(FieldDateStart, filter.Until))
	}
	if filter.Level != "" {
		where = append(where, tablestore.Eq(FieldLevel, string(filter.Level)))
	}

	table := tablestore.TableInsights
	if filter.Archived {
		table = tablestore.TableInsightsArchive
	}

	records, err := r.store.List(ctx, table, tablestore.Query{
		Where: where,
		Sort:  FieldDateStart,
	})
	if err != nil {
		return nil, fmt.Errorf("erro ao listar snapshots: %w", err)
	}

	snapshots := make([]*domain.InsightSnapshot, 0, len(records))
	for _, rec := range records {
		snapshots = append(snapshots, SnapshotFromRecord(rec))
	}

	return snapshots, nil
}

// DeleteBefore apaga em lotes as linhas operacionais com date_start anterior ao limite.
// O arquivo nunca é tocado.
func (r *snapshotRepository) DeleteBefore(ctx context.Context, ownerID, accountID, boundary string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	deleted := 0
	for {
		records, err := r.store.List(ctx, tablestore.TableInsights, tablestore.Query{
			Where: []tablestore.Condition{
				tablestore.Eq(FieldOwnerID, ownerID),
				tablestore.Eq(FieldAccountID, accountID),
				tablestore.Before(FieldDateStart, boundary),
			},
			Fields: []string{FieldDateStart},
			Limit:  batchSize,
		})
		if err != nil {
			return deleted, fmt.Errorf("erro ao listar snapshots expirados: %w", err)
		}

		if len(records) == 0 {
			return deleted, nil
		}

		ids := make([]string, 0, len(records))
		for _, rec := range records {
			if rec.ID != "" {
				ids = append(ids, rec.ID)
			}
		}

		if len(ids) == 0 {
			return deleted, nil
		}

		if err := r.store.Delete(ctx, tablestore.TableInsights, ids); err != nil {
			return deleted, fmt.Errorf("erro ao apagar snapshots expirados: %w", err)
		}
		deleted += len(ids)

		logrus.WithFields(logrus.Fields{
			"owner_id":   ownerID,
			"account_id": accountID,
			"batch":      len(ids),
			"total":      deleted,
		}).Debug("Lote de snapshots expirados removido")

		if len(records) < batchSize {
			return deleted, nil
		}
	}
}
