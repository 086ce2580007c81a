package repository

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	FieldInsightKey = "insight_key"
	FieldExternalID = "external_id"
	FieldOwnerID    = "owner_id"
	FieldAccountID  = "account_id"
	FieldDateStart  = "date_start"
	FieldLevel      = "level"
)

// SnapshotIdentityFields nunca são reescritos depois que a linha existe.
var SnapshotIdentityFields = []string{
	FieldInsightKey, FieldOwnerID, FieldAccountID, "campaign_id", "adset_id", "ad_id", FieldLevel, FieldDateStart,
}

// SnapshotDescriptiveFields acompanham a identidade mas podem mudar entre
// execuções (nome, status). O caminho otimista não os altera.
var SnapshotDescriptiveFields = []string{
	"campaign_name", "adset_name", "ad_name", "objective", "status", "raw_status",
}

// CatalogIdentityFields identificam a entidade no catálogo.
var CatalogIdentityFields = []string{FieldExternalID, FieldOwnerID, FieldAccountID, FieldLevel}

// ActionCountField e ActionCostField dão o nome das colunas de cada ação nomeada.
func ActionCountField(name domain.ActionName) string {
	return string(name)
}

func ActionCostField(name domain.ActionName) string {
	return "cost_per_" + string(name)
}

// CatalogTable devolve a tabela de catálogo de cada nível.
func CatalogTable(level domain.InsightLevel) string {
	switch level {
	case domain.LevelCampaign:
		return tablestore.TableCampaigns
	case domain.LevelAdSet:
		return tablestore.TableAdSets
	default:
		return tablestore.TableAds
	}
}

// SnapshotTable roteia snapshots de entidades arquivadas/excluídas para o arquivo.
func SnapshotTable(s *domain.InsightSnapshot) string {
	if s.IsArchived() {
		return tablestore.TableInsightsArchive
	}
	return tablestore.TableInsights
}

func SnapshotToFields(s *domain.InsightSnapshot) map[string]any {
	fields := map[string]any{
		FieldInsightKey:   s.Key,
		FieldOwnerID:      s.OwnerID,
		FieldAccountID:    s.AccountID,
		"campaign_id":     s.CampaignID,
		"adset_id":        s.AdSetID,
		"ad_id":           s.AdID,
		FieldLevel:        string(s.Level),
		FieldDateStart:    s.DateStart,
		"campaign_name":   s.CampaignName,
		"adset_name":      s.AdSetName,
		"ad_name":         s.AdName,
		"objective":       s.Objective,
		"status":          string(s.Status),
		"raw_status":      s.RawStatus,
		"spend":           s.Spend,
		"impressions":     s.Impressions,
		"clicks":          s.Clicks,
		"reach":           s.Reach,
		"frequency":       s.Frequency,
		"ctr":             s.CTR,
		"cpc":             s.CPC,
		"cpm":             s.CPM,
		"results":         s.Results,
		"cost_per_result": s.CostPerResult,
		"result_label":    s.ResultLabel,
		"actions":         encodeActions(s.RawActions),
	}
	fields["cost_per_action_type"] = encodeActions(s.RawCostPerAction)

	for _, name := range domain.ActionNames {
		action := s.Actions[name]
		fields[ActionCountField(name)] = action.Count
		fields[ActionCostField(name)] = action.CostPer
	}

	if !s.SyncedAt.IsZero() {
		fields["synced_at"] = s.SyncedAt.UTC().Format(time.RFC3339)
	}

	return fields
}

func SnapshotFromRecord(rec tablestore.Record) *domain.InsightSnapshot {
	s := &domain.InsightSnapshot{
		Key:              rec.String(FieldInsightKey),
		OwnerID:          rec.String(FieldOwnerID),
		AccountID:        rec.String(FieldAccountID),
		CampaignID:       rec.String("campaign_id"),
		AdSetID:          rec.String("adset_id"),
		AdID:             rec.String("ad_id"),
		Level:            domain.InsightLevel(rec.String(FieldLevel)),
		DateStart:        rec.String(FieldDateStart),
		CampaignName:     rec.String("campaign_name"),
		AdSetName:        rec.String("adset_name"),
		AdName:           rec.String("ad_name"),
		Objective:        rec.String("objective"),
		Status:           domain.EntityStatus(rec.String("status")),
		RawStatus:        rec.String("raw_status"),
		Spend:            rec.Float("spend"),
		Impressions:      int64(rec.Float("impressions")),
		Clicks:           int64(rec.Float("clicks")),
		Reach:            int64(rec.Float("reach")),
		Frequency:        rec.Float("frequency"),
		CTR:              rec.Float("ctr"),
		CPC:              rec.Float("cpc"),
		CPM:              rec.Float("cpm"),
		Results:          int64(rec.Float("results")),
		CostPerResult:    rec.Float("cost_per_result"),
		ResultLabel:      rec.String("result_label"),
		Actions:          make(map[domain.ActionName]domain.NamedAction, len(domain.ActionNames)),
		RawActions:       decodeActions(rec.String("actions")),
		RawCostPerAction: decodeActions(rec.String("cost_per_action_type")),
	}

	// datas com só o dia vêm de backends que guardam a coluna como DATE
	if len(s.DateStart) > len(time.DateOnly) {
		s.DateStart = s.DateStart[:len(time.DateOnly)]
	}

	for _, name := range domain.ActionNames {
		s.Actions[name] = domain.NamedAction{
			Count:   int64(rec.Float(ActionCountField(name))),
			CostPer: rec.Float(ActionCostField(name)),
		}
	}

	if syncedAt, err := time.Parse(time.RFC3339, rec.String("synced_at")); err == nil {
		s.SyncedAt = syncedAt
	}

	return s
}

func CatalogToFields(e *domain.CatalogEntity) map[string]any {
	fields := map[string]any{
		FieldExternalID:   e.ExternalID,
		FieldOwnerID:      e.OwnerID,
		FieldAccountID:    e.AccountID,
		FieldLevel:        string(e.Level),
		"name":            e.Name,
		"status":          string(e.Status),
		"raw_status":      e.RawStatus,
		"daily_budget":    e.DailyBudget,
		"lifetime_budget": e.LifetimeBudget,
	}

	switch e.Level {
	case domain.LevelCampaign:
		fields["objective"] = e.Objective
	case domain.LevelAdSet:
		fields["campaign_id"] = e.CampaignID
	case domain.LevelAd:
		fields["campaign_id"] = e.CampaignID
		fields["adset_id"] = e.AdSetID
	}

	if e.CreatedTime != nil {
		fields["created_time"] = e.CreatedTime.UTC().Format(time.RFC3339)
	}
	if e.UpdatedTime != nil {
		fields["updated_time"] = e.UpdatedTime.UTC().Format(time.RFC3339)
	}

	return fields
}

func CatalogFromRecord(rec tablestore.Record) *domain.CatalogEntity {
	e := &domain.CatalogEntity{
		Level:          domain.InsightLevel(rec.String(FieldLevel)),
		ExternalID:     rec.String(FieldExternalID),
		OwnerID:        rec.String(FieldOwnerID),
		AccountID:      rec.String(FieldAccountID),
		CampaignID:     rec.String("campaign_id"),
		AdSetID:        rec.String("adset_id"),
		Name:           rec.String("name"),
		Status:         domain.EntityStatus(rec.String("status")),
		RawStatus:      rec.String("raw_status"),
		Objective:      rec.String("objective"),
		DailyBudget:    rec.Float("daily_budget"),
		LifetimeBudget: rec.Float("lifetime_budget"),
	}

	if t, err := time.Parse(time.RFC3339, rec.String("created_time")); err == nil {
		e.CreatedTime = &t
	}
	if t, err := time.Parse(time.RFC3339, rec.String("updated_time")); err == nil {
		e.UpdatedTime = &t
	}

	return e
}

func encodeActions(actions []domain.RawAction) string {
	if len(actions) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(actions)
	if err != nil {
		logrus.WithError(err).Warn("Erro ao serializar ações brutas")
		return "[]"
	}
	return string(raw)
}

func decodeActions(raw string) []domain.RawAction {
	if raw == "" || raw == "[]" {
		return nil
	}
	var actions []domain.RawAction
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		logrus.WithError(err).Warn("Erro ao ler ações brutas do armazenamento")
		return nil
	}
	return actions
}
