package upserting

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/internal/config"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 10
)

// CheckThenWrite consulta cada chave antes de escrever: PATCH só dos campos
// alterados quando a linha existe, POST quando não existe. Lotes são
// sequenciais; as consultas dentro do lote são paralelas.
type CheckThenWrite struct {
	store       tablestore.Store
	batchSize   int
	concurrency int
}

func NewCheckThenWrite(store tablestore.Store, cfg *config.Config) *CheckThenWrite {
	return NewCheckThenWriteWithLimits(store, cfg.Sync.BatchSize, cfg.Sync.UpsertConcurrency)
}

func NewCheckThenWriteWithLimits(store tablestore.Store, batchSize, concurrency int) *CheckThenWrite {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &CheckThenWrite{
		store:       store,
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

func (u *CheckThenWrite) Upsert(ctx context.Context, target Target, records []tablestore.Record) BatchResult {
	result := BatchResult{}
	records = collapseByKey(target, records, &result)

	for start := 0; start < len(records); start += u.batchSize {
		end := min(start+u.batchSize, len(records))
		result.Merge(u.upsertBatch(ctx, target, records[start:end]))
	}

	result.record(target.Table)

	logrus.WithFields(logrus.Fields{
		"table":     target.Table,
		"inserted":  result.Inserted,
		"updated":   result.Updated,
		"unchanged": result.Unchanged,
		"failed":    result.Failed,
	}).Debug("Upsert em lote concluído")

	return result
}

func (u *CheckThenWrite) upsertBatch(ctx context.Context, target Target, batch []tablestore.Record) BatchResult {
	result := BatchResult{}

	existing := make([]*tablestore.Record, len(batch))
	lookupErrs := make([]error, len(batch))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(u.concurrency)
	for i, rec := range batch {
		i, rec := i, rec
		group.Go(func() error {
			existing[i], lookupErrs[i] = findByKey(groupCtx, u.store, target, keyOf(target, rec))
			return nil
		})
	}
	_ = group.Wait()

	inserts := make([]tablestore.Record, 0, len(batch))
	updates := make([]tablestore.Record, 0, len(batch))

	for i, rec := range batch {
		key := keyOf(target, rec)
		if lookupErrs[i] != nil {
			result.fail(key, fmt.Errorf("erro ao consultar chave: %w", lookupErrs[i]))
			continue
		}

		if existing[i] == nil {
			inserts = append(inserts, rec)
			continue
		}

		changed := changedFields(target, rec, *existing[i])
		if len(changed) == 0 {
			result.Unchanged++
			continue
		}
		updates = append(updates, tablestore.Record{ID: existing[i].ID, Fields: withKey(target, key, changed)})
	}

	result.Merge(u.insert(ctx, target, inserts))
	result.Merge(u.update(ctx, target, updates))

	return result
}

// insert tenta o lote inteiro e, se falhar, grava registro a registro.
// Como o lote pode ter sido gravado em parte, cada chave é consultada de novo
// antes da gravação individual. Conflito vira atualização.
func (u *CheckThenWrite) insert(ctx context.Context, target Target, records []tablestore.Record) BatchResult {
	result := BatchResult{}
	if len(records) == 0 {
		return result
	}

	var bulkErr error
	if len(records) > 1 {
		_, bulkErr = u.store.Insert(ctx, target.Table, records)
		if bulkErr == nil {
			result.Inserted = len(records)
			return result
		}
		logrus.WithError(bulkErr).WithField("table", target.Table).Warn("Falha na inserção em lote, gravando registro a registro")
	}
	bulkAmbiguous := errors.Is(bulkErr, tablestore.ErrAmbiguousWrite)

	for _, rec := range records {
		key := keyOf(target, rec)

		if bulkErr != nil {
			current, err := findByKey(ctx, u.store, target, key)
			if err != nil {
				result.fail(key, fmt.Errorf("erro ao consultar chave após falha do lote: %w", err))
				continue
			}
			if current != nil {
				u.reconcile(ctx, target, key, rec, *current, bulkAmbiguous, &result)
				continue
			}
		}

		outcome, err := insertOrFind(ctx, u.store, target, key, rec)
		if err != nil {
			result.fail(key, fmt.Errorf("erro ao inserir: %w", err))
			continue
		}
		if outcome.existing == nil {
			result.Inserted++
			continue
		}
		u.reconcile(ctx, target, key, rec, *outcome.existing, outcome.landed, &result)
	}

	return result
}

// reconcile aplica o registro sobre a linha encontrada pela chave. landed indica
// que a linha veio de uma escrita ambígua desta execução e conta como inserção.
func (u *CheckThenWrite) reconcile(ctx context.Context, target Target, key string, rec, current tablestore.Record, landed bool, result *BatchResult) {
	changed := changedFields(target, rec, current)
	if len(changed) == 0 {
		if landed {
			result.Inserted++
		} else {
			result.Unchanged++
		}
		return
	}

	if err := u.store.Update(ctx, target.Table, []tablestore.Record{{ID: current.ID, Fields: changed}}); err != nil {
		result.fail(key, fmt.Errorf("erro ao atualizar linha existente: %w", err))
		return
	}
	result.Updated++
}

func (u *CheckThenWrite) update(ctx context.Context, target Target, records []tablestore.Record) BatchResult {
	result := BatchResult{}
	if len(records) == 0 {
		return result
	}

	if len(records) > 1 {
		err := u.store.Update(ctx, target.Table, stripKey(target, records))
		if err == nil {
			result.Updated = len(records)
			return result
		}
		logrus.WithError(err).WithField("table", target.Table).Warn("Falha na atualização em lote, gravando registro a registro")
	}

	for _, rec := range records {
		if err := u.store.Update(ctx, target.Table, stripKey(target, []tablestore.Record{rec})); err != nil {
			result.fail(keyOf(target, rec), fmt.Errorf("erro ao atualizar: %w", err))
			continue
		}
		result.Updated++
	}

	return result
}

// collapseByKey descarta chaves vazias e mantém a última ocorrência de cada chave.
func collapseByKey(target Target, records []tablestore.Record, result *BatchResult) []tablestore.Record {
	index := make(map[string]int, len(records))
	out := make([]tablestore.Record, 0, len(records))

	for _, rec := range records {
		key := keyOf(target, rec)
		if key == "" {
			result.fail(key, fmt.Errorf("registro sem %s", target.KeyField))
			continue
		}
		if pos, ok := index[key]; ok {
			out[pos] = rec
			continue
		}
		index[key] = len(out)
		out = append(out, rec)
	}

	return out
}

// withKey carrega a chave junto da atualização só para identificar falhas;
// stripKey remove antes de enviar.
func withKey(target Target, key string, fields map[string]any) map[string]any {
	fields[target.KeyField] = key
	return fields
}

func stripKey(target Target, records []tablestore.Record) []tablestore.Record {
	out := make([]tablestore.Record, 0, len(records))
	for _, rec := range records {
		fields := make(map[string]any, len(rec.Fields))
		for k, v := range rec.Fields {
			if k != target.KeyField {
				fields[k] = v
			}
		}
		out = append(out, tablestore.Record{ID: rec.ID, Fields: fields})
	}
	return out
}
