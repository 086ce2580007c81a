package domain

import "time"

// SnapshotQuery é o pedido de leitura dos snapshots gravados de uma conta.
type SnapshotQuery struct {
	OwnerID   string
	AccountID string
	Since     *time.Time
	Until     *time.Time
	Level     InsightLevel
	Archived  bool
}

// InsightSummary soma as métricas do período. Taxas são recalculadas a partir
// dos totais, nunca somadas.
type InsightSummary struct {
	Spend         float64 `json:"spend"`
	Impressions   int64   `json:"impressions"`
	Clicks        int64   `json:"clicks"`
	Reach         int64   `json:"reach"`
	Results       int64   `json:"results"`
	CostPerResult float64 `json:"cost_per_result"`
	CTR           float64 `json:"ctr"`
	CPC           float64 `json:"cpc"`
	CPM           float64 `json:"cpm"`
	Days          int     `json:"days"`
}

type SnapshotReport struct {
	OwnerID   string             `json:"owner_id"`
	AccountID string             `json:"account_id"`
	Level     InsightLevel       `json:"level"`
	Since     string             `json:"since,omitempty"`
	Until     string             `json:"until,omitempty"`
	Summary   InsightSummary     `json:"summary"`
	Snapshots []*InsightSnapshot `json:"snapshots"`
}
