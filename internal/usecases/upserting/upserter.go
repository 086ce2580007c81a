// Package upserting emula upsert idempotente sobre um armazenamento tabular
// sem upsert nativo e sem restrição de unicidade.
package upserting

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/pkg/metrics"
)

//go:generate mockgen -source=upserter.go -destination=mocks/upserter.go -package=mocks
type Upserter interface {
	Upsert(ctx context.Context, target Target, records []tablestore.Record) BatchResult
}

// Target descreve onde e por qual chave natural os registros são escritos.
type Target struct {
	Table    string
	KeyField string
	// ImmutableFields não são reescritos pelo caminho otimista, que atualiza só métricas.
	ImmutableFields []string
}

func (t Target) mutable(field string) bool {
	return field != t.KeyField && !slices.Contains(t.ImmutableFields, field)
}

// RecordError associa a falha ao registro pela chave natural.
type RecordError struct {
	Key string
	Err error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// BatchResult traz as contagens por registro. Falhas não desfazem os demais.
type BatchResult struct {
	Inserted  int           `json:"inserted"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	Failed    int           `json:"failed"`
	Errors    []RecordError `json:"-"`
}

func (r *BatchResult) Merge(other BatchResult) {
	r.Inserted += other.Inserted
	r.Updated += other.Updated
	r.Unchanged += other.Unchanged
	r.Failed += other.Failed
	r.Errors = append(r.Errors, other.Errors...)
}

func (r BatchResult) Total() int {
	return r.Inserted + r.Updated + r.Unchanged + r.Failed
}

func (r *BatchResult) fail(key string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, RecordError{Key: key, Err: err})
}

func (r BatchResult) record(table string) {
	metrics.UpsertOperationsTotal.WithLabelValues(table, "inserted").Add(float64(r.Inserted))
	metrics.UpsertOperationsTotal.WithLabelValues(table, "updated").Add(float64(r.Updated))
	metrics.UpsertOperationsTotal.WithLabelValues(table, "unchanged").Add(float64(r.Unchanged))
	metrics.UpsertOperationsTotal.WithLabelValues(table, "failed").Add(float64(r.Failed))
}

func keyOf(target Target, rec tablestore.Record) string {
	return tablestore.AsString(rec.Fields[target.KeyField])
}

// findByKey devolve a linha existente com a chave, ou nil.
func findByKey(ctx context.Context, store tablestore.Store, target Target, key string) (*tablestore.Record, error) {
	rows, err := store.List(ctx, target.Table, tablestore.Query{
		Where: []tablestore.Condition{tablestore.Eq(target.KeyField, key)},
		Limit: 2,
	})
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	if len(rows) > 1 {
		logrus.WithFields(logrus.Fields{
			"table": target.Table,
			"key":   key,
		}).Warn("Mais de uma linha com a mesma chave natural, atualizando a primeira")
	}

	return &rows[0], nil
}

// ambiguousInsertAttempts limita as inserções repetidas depois de uma escrita
// ambígua que, consultada pela chave, não chegou a gravar.
const ambiguousInsertAttempts = 2

// insertOutcome descreve o que aconteceu com uma inserção individual.
type insertOutcome struct {
	// created é a linha gravada por esta chamada.
	created *tablestore.Record
	// existing é a linha já presente com a chave (conflito ou escrita ambígua que gravou).
	existing *tablestore.Record
	// landed marca que existing veio de uma escrita ambígua desta própria chamada.
	landed bool
}

// insertOrFind grava um registro sem nunca repetir às cegas: conflito e
// escrita ambígua são resolvidos consultando a chave antes de qualquer nova tentativa.
func insertOrFind(ctx context.Context, store tablestore.Store, target Target, key string, rec tablestore.Record) (insertOutcome, error) {
	for attempt := 1; ; attempt++ {
		created, err := store.Insert(ctx, target.Table, []tablestore.Record{rec})
		if err == nil {
			row := rec
			if len(created) > 0 {
				row = created[0]
			}
			return insertOutcome{created: &row}, nil
		}

		switch {
		case errors.Is(err, tablestore.ErrConflict):
			current, findErr := findByKey(ctx, store, target, key)
			if findErr != nil {
				return insertOutcome{}, errors.Join(err, findErr)
			}
			if current == nil {
				return insertOutcome{}, fmt.Errorf("conflito sem linha correspondente: %w", err)
			}
			return insertOutcome{existing: current}, nil

		case errors.Is(err, tablestore.ErrAmbiguousWrite):
			current, findErr := findByKey(ctx, store, target, key)
			if findErr != nil {
				return insertOutcome{}, errors.Join(err, findErr)
			}
			if current != nil {
				return insertOutcome{existing: current, landed: true}, nil
			}
			if attempt >= ambiguousInsertAttempts {
				return insertOutcome{}, err
			}

			logrus.WithFields(logrus.Fields{
				"table":   target.Table,
				"key":     key,
				"attempt": attempt,
			}).Warn("Inserção sem resposta não foi gravada, tentando novamente")

		default:
			return insertOutcome{}, err
		}
	}
}

// lessID ordena ids numericamente quando ambos são números (NocoDB) e como texto nos demais casos.
func lessID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

// changedFields devolve só os campos do registro desejado que diferem da linha atual.
func changedFields(target Target, desired tablestore.Record, current tablestore.Record) map[string]any {
	changed := make(map[string]any)
	for field, value := range desired.Fields {
		if field == target.KeyField {
			continue
		}
		if tablestore.Equal(value, current.Fields[field]) {
			continue
		}
		changed[field] = value
	}
	return changed
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
