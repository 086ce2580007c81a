package metaclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	metadomain "github.com/vfg2006/ads-insight-sync/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
)

var entityEdges = map[domain.InsightLevel]string{
	domain.LevelCampaign: "campaigns",
	domain.LevelAdSet:    "adsets",
	domain.LevelAd:       "ads",
}

var entityFields = map[domain.InsightLevel]string{
	domain.LevelCampaign: "id,name,status,effective_status,objective,daily_budget,lifetime_budget,created_time,updated_time",
	domain.LevelAdSet:    "id,name,status,effective_status,campaign_id,daily_budget,lifetime_budget,created_time,updated_time",
	domain.LevelAd:       "id,name,status,effective_status,campaign_id,adset_id,created_time,updated_time",
}

const insightBaseFields = "account_id,date_start,date_stop,objective,campaign_id,campaign_name," +
	"spend,impressions,clicks,reach,frequency,ctr,cpc,cpm,actions,cost_per_action_type"

var insightFields = map[domain.InsightLevel]string{
	domain.LevelCampaign: insightBaseFields,
	domain.LevelAdSet:    insightBaseFields + ",adset_id,adset_name",
	domain.LevelAd:       insightBaseFields + ",adset_id,adset_name,ad_id,ad_name",
}

// Filtro de status mais amplo aceito em cada nível, para trazer também
// entidades pausadas, arquivadas e excluídas.
var effectiveStatuses = map[domain.InsightLevel][]string{
	domain.LevelCampaign: {"ACTIVE", "PAUSED", "ARCHIVED", "DELETED", "IN_PROCESS", "WITH_ISSUES"},
	domain.LevelAdSet:    {"ACTIVE", "PAUSED", "ARCHIVED", "DELETED", "IN_PROCESS", "WITH_ISSUES", "CAMPAIGN_PAUSED"},
	domain.LevelAd: {
		"ACTIVE", "PAUSED", "ARCHIVED", "DELETED", "IN_PROCESS", "WITH_ISSUES", "CAMPAIGN_PAUSED",
		"ADSET_PAUSED", "DISAPPROVED", "PENDING_REVIEW", "PREAPPROVED", "PENDING_BILLING_INFO",
	},
}

func (c *MetaClient) ListEntities(ctx context.Context, accessToken, accountID string, level domain.InsightLevel) ([]metadomain.Entity, error) {
	edge, ok := entityEdges[level]
	if !ok {
		return nil, fmt.Errorf("nível desconhecido: %s", level)
	}

	statuses, err := json.Marshal(effectiveStatuses[level])
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("fields", entityFields[level])
	params.Set("effective_status", string(statuses))
	params.Set("limit", strconv.Itoa(c.pageSize))

	return fetchAll[metadomain.Entity](ctx, c, accessToken, graphAccountID(accountID)+"/"+edge, params)
}

func (c *MetaClient) ListInsights(ctx context.Context, accessToken, accountID string, level domain.InsightLevel, window domain.FetchWindow) ([]metadomain.InsightRow, error) {
	fields, ok := insightFields[level]
	if !ok {
		return nil, fmt.Errorf("nível desconhecido: %s", level)
	}

	params := url.Values{}
	params.Set("level", string(level))
	params.Set("fields", fields)
	params.Set("time_increment", "1")
	params.Set("limit", strconv.Itoa(c.pageSize))

	if window.IsPreset() {
		params.Set("date_preset", window.Preset)
	} else {
		params.Set("time_range", fmt.Sprintf("{\"since\":\"%s\",\"until\":\"%s\"}",
			window.Since.Format(time.DateOnly), window.Until.Format(time.DateOnly)))
	}

	filtering, err := json.Marshal([]map[string]any{{
		"field":    string(level) + ".effective_status",
		"operator": "IN",
		"value":    effectiveStatuses[level],
	}})
	if err != nil {
		return nil, err
	}
	params.Set("filtering", string(filtering))

	return fetchAll[metadomain.InsightRow](ctx, c, accessToken, graphAccountID(accountID)+"/insights", params)
}
