package domain

import "time"

// ActionName é o conjunto fechado de ações que viram colunas próprias no snapshot.
type ActionName string

const (
	ActionMessagingStarted7d       ActionName = "messaging_conversation_started_7d"
	ActionMessagingFirstReply      ActionName = "messaging_first_reply"
	ActionTotalMessagingConnection ActionName = "total_messaging_connection"
	ActionMessagingDepth2          ActionName = "messaging_user_depth_2"
	ActionMessagingDepth3          ActionName = "messaging_user_depth_3"
	ActionLinkClick                ActionName = "link_click"
	ActionLandingPageView          ActionName = "landing_page_view"
	ActionLead                     ActionName = "lead"
	ActionLeadGrouped              ActionName = "lead_grouped"
	ActionPixelLead                ActionName = "pixel_lead"
	ActionVideoView                ActionName = "video_view"
	ActionPostEngagement           ActionName = "post_engagement"
	ActionPageEngagement           ActionName = "page_engagement"
	ActionPostReaction             ActionName = "post_reaction"
	ActionComment                  ActionName = "comment"
	ActionPostSave                 ActionName = "post_save"
	ActionLike                     ActionName = "like"
	ActionPurchase                 ActionName = "purchase"
	ActionAddToCart                ActionName = "add_to_cart"
	ActionInitiateCheckout         ActionName = "initiate_checkout"
	ActionCompleteRegistration     ActionName = "complete_registration"
	ActionAppInstall               ActionName = "app_install"
)

// ActionTypes mapeia cada ação nomeada para o action_type da plataforma.
var ActionTypes = map[ActionName]string{
	ActionMessagingStarted7d:       "onsite_conversion.messaging_conversation_started_7d",
	ActionMessagingFirstReply:      "onsite_conversion.messaging_first_reply",
	ActionTotalMessagingConnection: "onsite_conversion.total_messaging_connection",
	ActionMessagingDepth2:          "onsite_conversion.messaging_user_depth_2_message_send",
	ActionMessagingDepth3:          "onsite_conversion.messaging_user_depth_3_message_send",
	ActionLinkClick:                "link_click",
	ActionLandingPageView:          "landing_page_view",
	ActionLead:                     "lead",
	ActionLeadGrouped:              "onsite_conversion.lead_grouped",
	ActionPixelLead:                "offsite_conversion.fb_pixel_lead",
	ActionVideoView:                "video_view",
	ActionPostEngagement:           "post_engagement",
	ActionPageEngagement:           "page_engagement",
	ActionPostReaction:             "post_reaction",
	ActionComment:                  "comment",
	ActionPostSave:                 "onsite_conversion.post_save",
	ActionLike:                     "like",
	ActionPurchase:                 "offsite_conversion.fb_pixel_purchase",
	ActionAddToCart:                "offsite_conversion.fb_pixel_add_to_cart",
	ActionInitiateCheckout:         "offsite_conversion.fb_pixel_initiate_checkout",
	ActionCompleteRegistration:     "offsite_conversion.fb_pixel_complete_registration",
	ActionAppInstall:               "mobile_app_install",
}

// ActionNames em ordem estável, usada para montar colunas.
var ActionNames = []ActionName{
	ActionMessagingStarted7d,
	ActionMessagingFirstReply,
	ActionTotalMessagingConnection,
	ActionMessagingDepth2,
	ActionMessagingDepth3,
	ActionLinkClick,
	ActionLandingPageView,
	ActionLead,
	ActionLeadGrouped,
	ActionPixelLead,
	ActionVideoView,
	ActionPostEngagement,
	ActionPageEngagement,
	ActionPostReaction,
	ActionComment,
	ActionPostSave,
	ActionLike,
	ActionPurchase,
	ActionAddToCart,
	ActionInitiateCheckout,
	ActionCompleteRegistration,
	ActionAppInstall,
}

type NamedAction struct {
	Count   int64   `json:"count"`
	CostPer float64 `json:"cost_per"`
}

type RawAction struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// RawInsight é uma linha de insight como veio da plataforma, com métricas ainda em texto.
type RawInsight struct {
	Level             InsightLevel `json:"level"`
	AccountID         string       `json:"account_id"`
	CampaignID        string       `json:"campaign_id"`
	CampaignName      string       `json:"campaign_name"`
	AdSetID           string       `json:"adset_id"`
	AdSetName         string       `json:"adset_name"`
	AdID              string       `json:"ad_id"`
	AdName            string       `json:"ad_name"`
	Objective         string       `json:"objective"`
	DateStart         string       `json:"date_start"`
	Spend             string       `json:"spend"`
	Impressions       string       `json:"impressions"`
	Clicks            string       `json:"clicks"`
	Reach             string       `json:"reach"`
	Frequency         string       `json:"frequency"`
	CTR               string       `json:"ctr"`
	CPC               string       `json:"cpc"`
	CPM               string       `json:"cpm"`
	Actions           []RawAction  `json:"actions"`
	CostPerActionType []RawAction  `json:"cost_per_action_type"`
}

// EntityID devolve o id da entidade dona da linha no nível informado.
func (r *RawInsight) EntityID() string {
	switch r.Level {
	case LevelCampaign:
		return r.CampaignID
	case LevelAdSet:
		return r.AdSetID
	default:
		return r.AdID
	}
}

// InsightSnapshot é a métrica diária normalizada de uma entidade.
type InsightSnapshot struct {
	Key          string       `json:"insight_key"`
	OwnerID      string       `json:"owner_id"`
	AccountID    string       `json:"account_id"`
	CampaignID   string       `json:"campaign_id"`
	AdSetID      string       `json:"adset_id"`
	AdID         string       `json:"ad_id"`
	Level        InsightLevel `json:"level"`
	DateStart    string       `json:"date_start"`
	CampaignName string       `json:"campaign_name"`
	AdSetName    string       `json:"adset_name"`
	AdName       string       `json:"ad_name"`
	Objective    string       `json:"objective"`
	Status       EntityStatus `json:"status"`
	RawStatus    string       `json:"raw_status"`

	Spend         float64 `json:"spend"`
	Impressions   int64   `json:"impressions"`
	Clicks        int64   `json:"clicks"`
	Reach         int64   `json:"reach"`
	Frequency     float64 `json:"frequency"`
	CTR           float64 `json:"ctr"`
	CPC           float64 `json:"cpc"`
	CPM           float64 `json:"cpm"`
	Results       int64   `json:"results"`
	CostPerResult float64 `json:"cost_per_result"`
	ResultLabel   string  `json:"result_label"`

	Actions          map[ActionName]NamedAction `json:"named_actions"`
	RawActions       []RawAction                `json:"actions"`
	RawCostPerAction []RawAction                `json:"cost_per_action_type"`

	SyncedAt time.Time `json:"synced_at"`
}

// BuildKey recalcula a chave natural a partir dos campos de identidade.
func (s *InsightSnapshot) BuildKey() string {
	s.Key = BuildInsightKey(s.OwnerID, s.AccountID, s.CampaignID, s.AdSetID, s.AdID, s.DateStart)
	return s.Key
}

// IsArchived indica se o snapshot pertence à tabela de arquivo.
func (s *InsightSnapshot) IsArchived() bool {
	return IsArchivedStatus(s.RawStatus)
}

// IsZero indica um snapshot sem nenhuma entrega no dia.
func (s *InsightSnapshot) IsZero() bool {
	return s.Spend == 0 && s.Impressions == 0 && s.Clicks == 0 && s.Reach == 0 && s.Results == 0
}
