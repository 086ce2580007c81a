package upserting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/internal/config"
)

const (
	DefaultConflictRetries    = 3
	DefaultConflictRetryDelay = 500 * time.Millisecond
)

// Optimistic cria sem consultar antes. Se o armazenamento recusar por conflito,
// busca a linha pela chave e atualiza só as métricas, com espera linear entre
// as tentativas.
type Optimistic struct {
	store   tablestore.Store
	retries int
	delay   time.Duration
}

func NewOptimistic(store tablestore.Store, cfg *config.Config) *Optimistic {
	return NewOptimisticWithRetries(store, cfg.Sync.ConflictRetries, cfg.Sync.ConflictRetryDelay)
}

func NewOptimisticWithRetries(store tablestore.Store, retries int, delay time.Duration) *Optimistic {
	if retries <= 0 {
		retries = DefaultConflictRetries
	}
	if delay < 0 {
		delay = DefaultConflictRetryDelay
	}
	return &Optimistic{
		store:   store,
		retries: retries,
		delay:   delay,
	}
}

func (u *Optimistic) Upsert(ctx context.Context, target Target, records []tablestore.Record) BatchResult {
	result := BatchResult{}

	for _, rec := range records {
		key := keyOf(target, rec)
		if key == "" {
			result.fail(key, fmt.Errorf("registro sem %s", target.KeyField))
			continue
		}

		inserted, err := u.upsertOne(ctx, target, key, rec)
		switch {
		case err != nil:
			result.fail(key, err)
		case inserted:
			result.Inserted++
		default:
			result.Updated++
		}
	}

	result.record(target.Table)
	return result
}

// upsertOne devolve true quando o registro foi criado por esta chamada.
func (u *Optimistic) upsertOne(ctx context.Context, target Target, key string, rec tablestore.Record) (bool, error) {
	outcome, err := insertOrFind(ctx, u.store, target, key, rec)
	if err != nil {
		return false, fmt.Errorf("erro ao inserir: %w", err)
	}

	fields := make(map[string]any, len(rec.Fields))
	for field, value := range rec.Fields {
		if target.mutable(field) {
			fields[field] = value
		}
	}

	switch {
	case outcome.created != nil:
		return u.dedupeAfterInsert(ctx, target, key, outcome.created.ID, fields)
	case outcome.landed:
		return true, nil
	}

	logrus.WithFields(logrus.Fields{
		"table": target.Table,
		"key":   key,
	}).Debug("Registro já existe, atualizando métricas")

	var lastErr error
	for attempt := 1; attempt <= u.retries; attempt++ {
		lastErr = u.patch(ctx, target, key, "", fields)
		if lastErr == nil {
			return false, nil
		}

		logrus.WithFields(logrus.Fields{
			"table":   target.Table,
			"key":     key,
			"attempt": attempt,
			"error":   lastErr.Error(),
		}).Warn("Falha ao atualizar registro após conflito")

		if attempt < u.retries {
			if err := sleepContext(ctx, time.Duration(attempt)*u.delay); err != nil {
				return false, err
			}
		}
	}

	return false, fmt.Errorf("atualização após conflito falhou em %d tentativas: %w", u.retries, lastErr)
}

// dedupeAfterInsert cobre armazenamentos sem unicidade na chave (NocoDB),
// onde a inserção nunca falha por conflito. Sobrevive a linha de menor id;
// as demais são removidas e a sobrevivente recebe as métricas novas. Havendo
// duplicada, a chave já existia e o resultado conta como atualização.
func (u *Optimistic) dedupeAfterInsert(ctx context.Context, target Target, key, createdID string, fields map[string]any) (bool, error) {
	if createdID == "" {
		return true, nil
	}

	rows, err := u.store.List(ctx, target.Table, tablestore.Query{
		Where: []tablestore.Condition{tablestore.Eq(target.KeyField, key)},
	})
	if err != nil {
		return false, fmt.Errorf("erro ao verificar duplicidade: %w", err)
	}
	if len(rows) <= 1 {
		return true, nil
	}

	survivor := rows[0].ID
	for _, row := range rows[1:] {
		if lessID(row.ID, survivor) {
			survivor = row.ID
		}
	}

	var duplicates []string
	for _, row := range rows {
		if row.ID != survivor {
			duplicates = append(duplicates, row.ID)
		}
	}

	logrus.WithFields(logrus.Fields{
		"table":      target.Table,
		"key":        key,
		"survivor":   survivor,
		"duplicates": len(duplicates),
	}).Warn("Chave duplicada após inserção, consolidando linhas")

	if err := u.store.Delete(ctx, target.Table, duplicates); err != nil && !errors.Is(err, tablestore.ErrNotFound) {
		return false, fmt.Errorf("erro ao remover duplicadas: %w", err)
	}

	if survivor == createdID {
		return false, nil
	}
	if err := u.patch(ctx, target, key, survivor, fields); err != nil {
		return false, fmt.Errorf("erro ao atualizar linha sobrevivente: %w", err)
	}
	return false, nil
}

// patch atualiza os campos na linha id; sem id, localiza a linha pela chave.
func (u *Optimistic) patch(ctx context.Context, target Target, key, id string, fields map[string]any) error {
	if id == "" {
		current, err := findByKey(ctx, u.store, target, key)
		if err != nil {
			return err
		}
		if current == nil {
			return tablestore.ErrNotFound
		}
		id = current.ID
	}
	if len(fields) == 0 {
		return nil
	}
	return u.store.Update(ctx, target.Table, []tablestore.Record{{ID: id, Fields: fields}})
}
