package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore/memory"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
)

func seedAccounts(t *testing.T, store tablestore.Store) {
	t.Helper()
	_, err := store.Insert(context.Background(), tablestore.TableAccounts, []tablestore.Record{
		tablestore.NewRecord(map[string]any{"owner_id": "o1", "external_id": "act_1", "status": "ACTIVE", "access_token": "t1"}),
		tablestore.NewRecord(map[string]any{"owner_id": "o1", "external_id": "2", "status": "INACTIVE"}),
		tablestore.NewRecord(map[string]any{"owner_id": "o2", "external_id": "3", "status": "ACTIVE", "timezone": "UTC"}),
		tablestore.NewRecord(map[string]any{"owner_id": "", "external_id": "4", "status": "ACTIVE"}),
	})
	require.NoError(t, err)
}

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedAccounts(t, store)
	repo := NewAccountRepository(store)

	t.Run("Lista somente contas ativas com dono", func(t *testing.T) {
		accounts, err := repo.ListActiveAccounts(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, "act_1", accounts[0].ExternalID)
		assert.Equal(t, "t1", accounts[0].AccessToken)
		assert.Equal(t, "UTC", accounts[1].Timezone)
	})

	t.Run("Encontra conta com ou sem prefixo act_", func(t *testing.T) {
		acc, err := repo.GetAccount(ctx, "o1", "1")
		require.NoError(t, err)
		require.NotNil(t, acc)
		assert.Equal(t, "act_1", acc.ExternalID)

		acc, err = repo.GetAccount(ctx, "o2", "act_3")
		require.NoError(t, err)
		require.NotNil(t, acc)
	})

	t.Run("Não devolve conta de outro dono", func(t *testing.T) {
		acc, err := repo.GetAccount(ctx, "o2", "act_1")
		require.NoError(t, err)
		assert.Nil(t, acc)
	})
}

func newSnapshot(date string, spend float64) *domain.InsightSnapshot {
	s := &domain.InsightSnapshot{
		OwnerID:    "o1",
		AccountID:  "1",
		CampaignID: "c1",
		Level:      domain.LevelCampaign,
		DateStart:  date,
		Status:     domain.EntityStatusActive,
		RawStatus:  "ACTIVE",
		Spend:      spend,
		Actions: map[domain.ActionName]domain.NamedAction{
			domain.ActionLead: {Count: 3, CostPer: 1.5},
		},
		RawActions: []domain.RawAction{{ActionType: "lead", Value: "3"}},
		SyncedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	s.BuildKey()
	return s
}

func TestSnapshotFields_RoundTrip(t *testing.T) {
	original := newSnapshot("2024-01-01", 12.34)

	restored := SnapshotFromRecord(tablestore.NewRecord(SnapshotToFields(original)))

	assert.Equal(t, original.Key, restored.Key)
	assert.Equal(t, original.Spend, restored.Spend)
	assert.Equal(t, original.Actions[domain.ActionLead], restored.Actions[domain.ActionLead])
	assert.Equal(t, domain.NamedAction{}, restored.Actions[domain.ActionLike])
	assert.Equal(t, original.RawActions, restored.RawActions)
	assert.Nil(t, restored.RawCostPerAction)
	assert.True(t, original.SyncedAt.Equal(restored.SyncedAt))
}

func TestSnapshotTable(t *testing.T) {
	s := newSnapshot("2024-01-01", 1)
	assert.Equal(t, tablestore.TableInsights, SnapshotTable(s))

	s.RawStatus = "DELETED"
	assert.Equal(t, tablestore.TableInsightsArchive, SnapshotTable(s))
}

func TestCatalogFields_ByLevel(t *testing.T) {
	ad := &domain.CatalogEntity{Level: domain.LevelAd, ExternalID: "a1", CampaignID: "c1", AdSetID: "s1", Objective: "X"}
	fields := CatalogToFields(ad)
	assert.Equal(t, "s1", fields["adset_id"])
	assert.NotContains(t, fields, "objective")

	campaign := &domain.CatalogEntity{Level: domain.LevelCampaign, ExternalID: "c1", Objective: "OUTCOME_LEADS"}
	fields = CatalogToFields(campaign)
	assert.Equal(t, "OUTCOME_LEADS", fields["objective"])
	assert.NotContains(t, fields, "campaign_id")

	restored := CatalogFromRecord(tablestore.NewRecord(CatalogToFields(ad)))
	assert.Equal(t, ad.AdSetID, restored.AdSetID)
	assert.Nil(t, restored.CreatedTime)
}

func seedSnapshots(t *testing.T, store tablestore.Store, dates ...string) {
	t.Helper()
	records := make([]tablestore.Record, 0, len(dates))
	for _, date := range dates {
		records = append(records, tablestore.NewRecord(SnapshotToFields(newSnapshot(date, 1))))
	}
	_, err := store.Insert(context.Background(), tablestore.TableInsights, records)
	require.NoError(t, err)
}

func TestSnapshotRepository_ListDates(t *testing.T) {
	store := memory.New()
	seedSnapshots(t, store, "2023-12-31", "2024-01-03", "2024-01-04", "2024-01-11")
	repo := NewSnapshotRepository(store)

	dates, err := repo.ListDates(context.Background(), "o1", "1", "2024-01-01", "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"2024-01-03": {}, "2024-01-04": {}}, dates)

	dates, err = repo.ListDates(context.Background(), "o2", "1", "2024-01-01", "2024-01-10")
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestSnapshotRepository_DeleteBefore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	dates := make([]string, 0, 7)
	for day := 1; day <= 7; day++ {
		dates = append(dates, fmt.Sprintf("2024-01-%02d", day))
	}
	seedSnapshots(t, store, dates...)

	_, err := store.Insert(ctx, tablestore.TableInsightsArchive, []tablestore.Record{
		tablestore.NewRecord(SnapshotToFields(newSnapshot("2023-06-01", 5))),
	})
	require.NoError(t, err)

	repo := NewSnapshotRepository(store)
	deleted, err := repo.DeleteBefore(ctx, "o1", "1", "2024-01-06", 2)
	require.NoError(t, err)
	assert.Equal(t, 5, deleted)
	assert.Equal(t, 2, store.Len(tablestore.TableInsights))
	assert.Equal(t, 1, store.Len(tablestore.TableInsightsArchive), "arquivo não é tocado")
	assert.Equal(t, 3, store.Calls().Delete)

	remaining, err := repo.List(ctx, SnapshotFilter{OwnerID: "o1", AccountID: "1"})
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, "2024-01-06", remaining[0].DateStart)
}

func TestSyncLogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSyncLogRepository(memory.New())

	older := &domain.SyncLog{
		RunID:     "a",
		Type:      domain.SyncTypeFull,
		StartedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Status:    domain.SyncStatusSuccess,
	}
	newer := &domain.SyncLog{
		RunID:            "b",
		Type:             domain.SyncTypeHistorical,
		StartedAt:        time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
		Status:           domain.SyncStatusPartialError,
		RecordsProcessed: 7,
		AccountsFailed:   1,
		Accounts:         []domain.AccountResult{{AccountID: "1", State: domain.AccountStateFailed, Error: "boom"}},
	}

	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	assert.NotEmpty(t, newer.ID)

	logs, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "b", logs[0].RunID)
	assert.Equal(t, 7, logs[0].RecordsProcessed)
	require.Len(t, logs[0].Accounts, 1)
	assert.Equal(t, "boom", logs[0].Accounts[0].Error)
}
