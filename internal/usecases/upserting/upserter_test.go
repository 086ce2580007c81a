package upserting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore/memory"
)

var insightsTarget = Target{
	Table:           tablestore.TableInsights,
	KeyField:        "insight_key",
	ImmutableFields: []string{"owner_id", "date_start"},
}

func row(key string, spend float64) tablestore.Record {
	return tablestore.NewRecord(map[string]any{
		"insight_key": key,
		"owner_id":    "o1",
		"date_start":  "2024-01-01",
		"spend":       spend,
	})
}

func rows(n int, spend float64) []tablestore.Record {
	out := make([]tablestore.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, row(fmt.Sprintf("k%03d", i), spend))
	}
	return out
}

// flakyStore falha as operações configuradas antes de delegar ao armazenamento em memória.
type flakyStore struct {
	*memory.Store

	mu             sync.Mutex
	failBulkInsert bool
	failKeys       map[string]bool
	failUpdates    int
	conflictOnce   map[string]bool
	// ambiguousBulk grava metade do lote e responde como se a conexão tivesse caído.
	ambiguousBulk bool
	// ambiguousOnce grava a chave e responde ErrAmbiguousWrite na primeira vez.
	ambiguousOnce map[string]bool
}

func (f *flakyStore) Insert(ctx context.Context, table string, records []tablestore.Record) ([]tablestore.Record, error) {
	f.mu.Lock()
	if f.ambiguousBulk && len(records) > 1 {
		f.ambiguousBulk = false
		f.mu.Unlock()
		if _, err := f.Store.Insert(ctx, table, records[:len(records)/2]); err != nil {
			return nil, err
		}
		return nil, tablestore.ErrAmbiguousWrite
	}
	if len(records) == 1 && f.ambiguousOnce[tablestore.AsString(records[0].Fields["insight_key"])] {
		delete(f.ambiguousOnce, tablestore.AsString(records[0].Fields["insight_key"]))
		f.mu.Unlock()
		if _, err := f.Store.Insert(ctx, table, records); err != nil {
			return nil, err
		}
		return nil, tablestore.ErrAmbiguousWrite
	}
	if f.failBulkInsert && len(records) > 1 {
		f.mu.Unlock()
		return nil, errors.New("payload grande demais")
	}
	for _, rec := range records {
		key := tablestore.AsString(rec.Fields["insight_key"])
		if f.failKeys[key] {
			f.mu.Unlock()
			return nil, errors.New("falha permanente")
		}
		if f.conflictOnce[key] {
			delete(f.conflictOnce, key)
			f.mu.Unlock()
			// simula outro escritor criando a linha antes desta inserção
			if _, err := f.Store.Insert(ctx, table, []tablestore.Record{row(key, 1)}); err != nil {
				return nil, err
			}
			return nil, tablestore.ErrConflict
		}
	}
	f.mu.Unlock()
	return f.Store.Insert(ctx, table, records)
}

func (f *flakyStore) Update(ctx context.Context, table string, records []tablestore.Record) error {
	f.mu.Lock()
	if f.failUpdates > 0 {
		f.failUpdates--
		f.mu.Unlock()
		return errors.New("erro temporário")
	}
	f.mu.Unlock()
	return f.Store.Update(ctx, table, records)
}

func TestCheckThenWrite_Idempotence(t *testing.T) {
	ctx := context.Background()
	store := memory.New(memory.WithUniqueField(tablestore.TableInsights, "insight_key"))
	upserter := NewCheckThenWriteWithLimits(store, 50, 10)

	first := upserter.Upsert(ctx, insightsTarget, rows(120, 10))
	assert.Equal(t, BatchResult{Inserted: 120}, first)
	assert.Equal(t, 3, store.Calls().Insert, "um insert por lote de 50")

	second := upserter.Upsert(ctx, insightsTarget, rows(120, 10))
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 120, second.Unchanged)
	assert.Equal(t, 0, store.Calls().Update)

	third := upserter.Upsert(ctx, insightsTarget, rows(120, 12.5))
	assert.Equal(t, 120, third.Updated)
	assert.Equal(t, 120, store.Len(tablestore.TableInsights))

	stored, err := store.List(ctx, tablestore.TableInsights, tablestore.Query{Where: []tablestore.Condition{tablestore.Eq("insight_key", "k007")}})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 12.5, stored[0].Float("spend"))
}

func TestCheckThenWrite_DuplicateKeysInInput(t *testing.T) {
	store := memory.New(memory.WithUniqueField(tablestore.TableInsights, "insight_key"))
	upserter := NewCheckThenWriteWithLimits(store, 50, 10)

	result := upserter.Upsert(context.Background(), insightsTarget, []tablestore.Record{row("k", 1), row("k", 2), row("", 3)})

	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Failed, "registro sem chave falha sozinho")
	assert.Equal(t, 1, store.Len(tablestore.TableInsights))
}

func TestCheckThenWrite_PartialFailures(t *testing.T) {
	tests := []struct {
		name     string
		store    func() *flakyStore
		seed     []tablestore.Record
		input    []tablestore.Record
		expected BatchResult
	}{
		{
			name: "Insert em lote falha e cai para registro a registro",
			store: func() *flakyStore {
				return &flakyStore{Store: memory.New(), failBulkInsert: true, failKeys: map[string]bool{"k001": true}}
			},
			input:    rows(4, 1),
			expected: BatchResult{Inserted: 3, Failed: 1},
		},
		{
			name: "Conflito na inserção vira atualização",
			store: func() *flakyStore {
				return &flakyStore{
					Store:        memory.New(memory.WithUniqueField(tablestore.TableInsights, "insight_key")),
					conflictOnce: map[string]bool{"k000": true},
				}
			},
			input:    rows(1, 9),
			expected: BatchResult{Updated: 1},
		},
		{
			name: "Update em lote falha uma vez e o fallback grava cada registro",
			store: func() *flakyStore {
				return &flakyStore{Store: memory.New(), failUpdates: 1}
			},
			seed:     rows(3, 1),
			input:    rows(3, 2),
			expected: BatchResult{Updated: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := tt.store()
			if len(tt.seed) > 0 {
				_, err := store.Store.Insert(ctx, tablestore.TableInsights, tt.seed)
				require.NoError(t, err)
			}

			result := NewCheckThenWriteWithLimits(store, 50, 10).Upsert(ctx, insightsTarget, tt.input)

			assert.Equal(t, tt.expected.Inserted, result.Inserted)
			assert.Equal(t, tt.expected.Updated, result.Updated)
			assert.Equal(t, tt.expected.Failed, result.Failed)
			assert.Len(t, result.Errors, tt.expected.Failed)
		})
	}
}

func TestCheckThenWrite_AmbiguousInsertDoesNotDuplicate(t *testing.T) {
	tests := []struct {
		name  string
		store *flakyStore
		input []tablestore.Record
	}{
		{
			name:  "Lote gravado em parte antes da falha",
			store: &flakyStore{Store: memory.New(), ambiguousBulk: true},
			input: rows(4, 3),
		},
		{
			name:  "Inserção individual gravada sem resposta",
			store: &flakyStore{Store: memory.New(), ambiguousOnce: map[string]bool{"k000": true}},
			input: rows(1, 3),
		},
		{
			name: "Lote ambíguo e registro individual ambíguo",
			store: &flakyStore{
				Store:         memory.New(),
				ambiguousBulk: true,
				ambiguousOnce: map[string]bool{"k003": true},
			},
			input: rows(4, 3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			result := NewCheckThenWriteWithLimits(tt.store, 50, 10).Upsert(ctx, insightsTarget, tt.input)

			assert.Equal(t, BatchResult{Inserted: len(tt.input)}, result)
			assert.Equal(t, len(tt.input), tt.store.Len(tablestore.TableInsights))
			for _, rec := range tt.input {
				stored, err := tt.store.List(ctx, tablestore.TableInsights, tablestore.Query{
					Where: []tablestore.Condition{tablestore.Eq("insight_key", keyOf(insightsTarget, rec))},
				})
				require.NoError(t, err)
				assert.Len(t, stored, 1, keyOf(insightsTarget, rec))
			}
		})
	}
}

func TestCheckThenWrite_PatchesOnlyChangedFields(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.Insert(ctx, tablestore.TableInsights, []tablestore.Record{
		tablestore.NewRecord(map[string]any{"insight_key": "k", "spend": 1.0, "clicks": int64(5), "extra": "manual"}),
	})
	require.NoError(t, err)

	recorder := &recordingStore{Store: store}
	result := NewCheckThenWriteWithLimits(recorder, 50, 10).Upsert(ctx, insightsTarget, []tablestore.Record{
		tablestore.NewRecord(map[string]any{"insight_key": "k", "spend": 2.0, "clicks": 5}),
	})

	assert.Equal(t, 1, result.Updated)
	require.Len(t, recorder.updates, 1)
	assert.Equal(t, map[string]any{"spend": 2.0}, recorder.updates[0].Fields)
}

type recordingStore struct {
	*memory.Store
	updates []tablestore.Record
}

func (r *recordingStore) Update(ctx context.Context, table string, records []tablestore.Record) error {
	r.updates = append(r.updates, records...)
	return r.Store.Update(ctx, table, records)
}

func TestOptimistic(t *testing.T) {
	tests := []struct {
		name        string
		failUpdates int
		seeded      bool
		expected    BatchResult
	}{
		{
			name:     "Cria quando a chave é nova",
			expected: BatchResult{Inserted: 1},
		},
		{
			name:     "Conflito atualiza métricas",
			seeded:   true,
			expected: BatchResult{Updated: 1},
		},
		{
			name:        "Recupera após duas falhas de atualização",
			seeded:      true,
			failUpdates: 2,
			expected:    BatchResult{Updated: 1},
		},
		{
			name:        "Esgota as tentativas e falha só o registro",
			seeded:      true,
			failUpdates: 3,
			expected:    BatchResult{Failed: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := &flakyStore{
				Store:       memory.New(memory.WithUniqueField(tablestore.TableInsights, "insight_key")),
				failUpdates: tt.failUpdates,
			}
			if tt.seeded {
				seed := row("k", 1)
				seed.Fields["owner_id"] = "original"
				_, err := store.Store.Insert(ctx, tablestore.TableInsights, []tablestore.Record{seed})
				require.NoError(t, err)
			}

			incoming := row("k", 42)
			incoming.Fields["owner_id"] = "outro"

			result := NewOptimisticWithRetries(store, 3, time.Millisecond).Upsert(ctx, insightsTarget, []tablestore.Record{incoming})

			assert.Equal(t, tt.expected.Inserted, result.Inserted)
			assert.Equal(t, tt.expected.Updated, result.Updated)
			assert.Equal(t, tt.expected.Failed, result.Failed)
			assert.Equal(t, 1, store.Len(tablestore.TableInsights))

			stored, err := store.List(ctx, tablestore.TableInsights, tablestore.Query{})
			require.NoError(t, err)
			if tt.expected.Updated == 1 {
				assert.Equal(t, 42.0, stored[0].Float("spend"))
				assert.Equal(t, "original", stored[0].String("owner_id"), "identidade nunca é reescrita")
			}
			if tt.expected.Failed == 1 {
				assert.Equal(t, 1.0, stored[0].Float("spend"))
			}
		})
	}
}

func TestOptimistic_NonConflictErrorIsNotRetried(t *testing.T) {
	store := &flakyStore{Store: memory.New(), failKeys: map[string]bool{"k": true}}

	result := NewOptimisticWithRetries(store, 3, time.Millisecond).Upsert(context.Background(), insightsTarget, []tablestore.Record{row("k", 1)})

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, store.Calls().Update)
	assert.NotErrorIs(t, result.Errors[0], tablestore.ErrConflict)
}

func TestOptimistic_AmbiguousInsertCountsAsInserted(t *testing.T) {
	store := &flakyStore{Store: memory.New(), ambiguousOnce: map[string]bool{"k": true}}

	result := NewOptimisticWithRetries(store, 3, time.Millisecond).Upsert(context.Background(), insightsTarget, []tablestore.Record{row("k", 1)})

	assert.Equal(t, BatchResult{Inserted: 1}, result)
	assert.Equal(t, 1, store.Len(tablestore.TableInsights))
	assert.Equal(t, 1, store.Calls().Insert)
}

func TestOptimistic_StoreWithoutUniqueKey(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	upserter := NewOptimisticWithRetries(store, 3, time.Millisecond)

	first := upserter.Upsert(ctx, insightsTarget, []tablestore.Record{row("k", 1)})
	assert.Equal(t, BatchResult{Inserted: 1}, first)

	second := upserter.Upsert(ctx, insightsTarget, []tablestore.Record{row("k", 7.5)})
	assert.Equal(t, BatchResult{Updated: 1}, second, "segunda entrega da mesma chave atualiza")

	stored, err := store.List(ctx, tablestore.TableInsights, tablestore.Query{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 7.5, stored[0].Float("spend"))

	third := upserter.Upsert(ctx, insightsTarget, []tablestore.Record{row("k", 9)})
	assert.Equal(t, 1, third.Updated)
	assert.Equal(t, 1, store.Len(tablestore.TableInsights))
}

func TestLessID(t *testing.T) {
	assert.True(t, lessID("9", "10"), "ids numéricos comparam como números")
	assert.False(t, lessID("10", "9"))
	assert.True(t, lessID("abc", "abd"))
}
