package metadomain

type Action struct {
	ActionType string        `json:"action_type"`
	Value      NumericString `json:"value"`
}

// InsightRow é uma linha diária do endpoint /insights em qualquer nível.
type InsightRow struct {
	AccountID         string        `json:"account_id"`
	CampaignID        string        `json:"campaign_id"`
	CampaignName      string        `json:"campaign_name"`
	AdSetID           string        `json:"adset_id"`
	AdSetName         string        `json:"adset_name"`
	AdID              string        `json:"ad_id"`
	AdName            string        `json:"ad_name"`
	Objective         string        `json:"objective"`
	DateStart         string        `json:"date_start"`
	DateStop          string        `json:"date_stop"`
	Spend             NumericString `json:"spend"`
	Impressions       NumericString `json:"impressions"`
	Clicks            NumericString `json:"clicks"`
	Reach             NumericString `json:"reach"`
	Frequency         NumericString `json:"frequency"`
	CTR               NumericString `json:"ctr"`
	CPC               NumericString `json:"cpc"`
	CPM               NumericString `json:"cpm"`
	Actions           []Action      `json:"actions"`
	CostPerActionType []Action      `json:"cost_per_action_type"`
}
