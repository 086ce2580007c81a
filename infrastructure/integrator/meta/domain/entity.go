package metadomain

// Entity cobre campanhas, conjuntos de anúncios e anúncios. Os campos que
// não existem no nível simplesmente vêm vazios.
type Entity struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Status          string        `json:"status"`
	EffectiveStatus string        `json:"effective_status"`
	Objective       string        `json:"objective"`
	AccountID       string        `json:"account_id"`
	CampaignID      string        `json:"campaign_id"`
	AdSetID         string        `json:"adset_id"`
	DailyBudget     NumericString `json:"daily_budget"`
	LifetimeBudget  NumericString `json:"lifetime_budget"`
	CreatedTime     string        `json:"created_time"`
	UpdatedTime     string        `json:"updated_time"`
}

// RawStatus prefere effective_status, que reflete o estado herdado dos pais.
func (e *Entity) RawStatus() string {
	if e.EffectiveStatus != "" {
		return e.EffectiveStatus
	}
	return e.Status
}

type Cursors struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

type Paging struct {
	Cursors Cursors `json:"cursors"`
	Next    string  `json:"next"`
}

// Page é o envelope paginado padrão da Graph API.
type Page[T any] struct {
	Data   []T    `json:"data"`
	Paging Paging `json:"paging"`
}
