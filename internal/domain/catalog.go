package domain

import "time"

// InsightLevel é o nível da hierarquia campanha → conjunto → anúncio.
type InsightLevel string

const (
	LevelCampaign InsightLevel = "campaign"
	LevelAdSet    InsightLevel = "adset"
	LevelAd       InsightLevel = "ad"
)

// Levels na ordem em que o motor processa a hierarquia.
var Levels = []InsightLevel{LevelCampaign, LevelAdSet, LevelAd}

func (l InsightLevel) IsValid() bool {
	switch l {
	case LevelCampaign, LevelAdSet, LevelAd:
		return true
	}
	return false
}

// CatalogEntity representa uma campanha, conjunto de anúncios ou anúncio.
// Existe uma linha por ExternalID e entidades nunca são apagadas.
type CatalogEntity struct {
	Level          InsightLevel `json:"level"`
	ExternalID     string       `json:"external_id"`
	OwnerID        string       `json:"owner_id"`
	AccountID      string       `json:"account_id"`
	CampaignID     string       `json:"campaign_id,omitempty"`
	AdSetID        string       `json:"adset_id,omitempty"`
	Name           string       `json:"name"`
	Status         EntityStatus `json:"status"`
	RawStatus      string       `json:"raw_status"`
	Objective      string       `json:"objective,omitempty"`
	DailyBudget    float64      `json:"daily_budget"`
	LifetimeBudget float64      `json:"lifetime_budget"`
	CreatedTime    *time.Time   `json:"created_time,omitempty"`
	UpdatedTime    *time.Time   `json:"updated_time,omitempty"`

	// Placeholder marca entidades recriadas a partir de um insight órfão.
	Placeholder bool `json:"-"`
}

// ParentIDs devolve (campaign, adset, ad) conforme o nível da entidade.
func (e *CatalogEntity) ParentIDs() (campaignID, adSetID, adID string) {
	switch e.Level {
	case LevelCampaign:
		return e.ExternalID, "", ""
	case LevelAdSet:
		return e.CampaignID, e.ExternalID, ""
	default:
		return e.CampaignID, e.AdSetID, e.ExternalID
	}
}
