package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
)

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := New()

	created, err := store.Insert(ctx, tablestore.TableInsights, []tablestore.Record{
		tablestore.NewRecord(map[string]any{"insight_key": "a", "date_start": "2024-01-01", "spend": 1.0}),
		tablestore.NewRecord(map[string]any{"insight_key": "b", "date_start": "2024-01-02", "spend": 2.0}),
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotEmpty(t, created[0].ID)
	assert.NotEqual(t, created[0].ID, created[1].ID)

	found, err := store.List(ctx, tablestore.TableInsights, tablestore.Query{
		Where: []tablestore.Condition{tablestore.Eq("insight_key", "b")},
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 2.0, found[0].Float("spend"))

	err = store.Update(ctx, tablestore.TableInsights, []tablestore.Record{{ID: found[0].ID, Fields: map[string]any{"spend": 5.0}}})
	require.NoError(t, err)

	found, err = store.List(ctx, tablestore.TableInsights, tablestore.Query{Sort: "-date_start", Limit: 1})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "b", found[0].String("insight_key"))
	assert.Equal(t, 5.0, found[0].Float("spend"))

	require.NoError(t, store.Delete(ctx, tablestore.TableInsights, []string{created[0].ID}))
	assert.Equal(t, 1, store.Len(tablestore.TableInsights))

	calls := store.Calls()
	assert.Equal(t, 1, calls.Insert)
	assert.Equal(t, 1, calls.Update)
	assert.Equal(t, 2, calls.List)
	assert.Equal(t, 1, calls.Delete)
}

func TestStore_UniqueFieldConflict(t *testing.T) {
	ctx := context.Background()
	store := New(WithUniqueField(tablestore.TableInsights, "insight_key"))

	_, err := store.Insert(ctx, tablestore.TableInsights, []tablestore.Record{
		tablestore.NewRecord(map[string]any{"insight_key": "a"}),
	})
	require.NoError(t, err)

	_, err = store.Insert(ctx, tablestore.TableInsights, []tablestore.Record{
		tablestore.NewRecord(map[string]any{"insight_key": "a"}),
	})
	assert.ErrorIs(t, err, tablestore.ErrConflict)

	_, err = store.Insert(ctx, tablestore.TableInsights, []tablestore.Record{
		tablestore.NewRecord(map[string]any{"insight_key": "x"}),
		tablestore.NewRecord(map[string]any{"insight_key": "x"}),
	})
	assert.ErrorIs(t, err, tablestore.ErrConflict)
	assert.Equal(t, 1, store.Len(tablestore.TableInsights))
}

func TestStore_UpdateUnknownID(t *testing.T) {
	store := New()
	err := store.Update(context.Background(), tablestore.TableAds, []tablestore.Record{{ID: "nope", Fields: map[string]any{"name": "x"}}})
	assert.ErrorIs(t, err, tablestore.ErrNotFound)
}
