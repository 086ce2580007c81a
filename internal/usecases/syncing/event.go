package syncing

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/infrastructure/repository"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/upserting"
)

// IngestEvent grava um insight avulso com escrita otimista. A conta precisa
// pertencer ao dono informado no evento.
func (s *Service) IngestEvent(ctx context.Context, event *domain.InsightEvent) (upserting.BatchResult, error) {
	if err := event.Validate(); err != nil {
		return upserting.BatchResult{}, err
	}

	account, err := s.deps.Accounts.GetAccount(ctx, event.OwnerID, event.AccountID)
	if err != nil {
		return upserting.BatchResult{}, err
	}
	if account == nil {
		return upserting.BatchResult{}, domain.ErrAccountNotFound
	}

	raw := event.Insight
	snapshot := s.deps.Normalizer.Normalize(&raw, event.Entity(account))

	table := repository.SnapshotTable(snapshot)
	result := s.deps.EventUpserter.Upsert(ctx, snapshotTarget(table), []tablestore.Record{
		tablestore.NewRecord(repository.SnapshotToFields(snapshot)),
	})

	logrus.WithFields(logrus.Fields{
		"owner_id":    event.OwnerID,
		"account_id":  account.ExternalID,
		"insight_key": snapshot.Key,
		"table":       table,
		"inserted":    result.Inserted,
		"updated":     result.Updated,
		"failed":      result.Failed,
	}).Info("Evento de insight processado")

	return result, nil
}
