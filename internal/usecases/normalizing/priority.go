package normalizing

import (
	"slices"
	"strings"
)

const (
	actionMessagingStarted7d = "onsite_conversion.messaging_conversation_started_7d"
	actionTotalMessaging     = "onsite_conversion.total_messaging_connection"
	actionLead               = "lead"
	actionLeadGrouped        = "onsite_conversion.lead_grouped"
	actionPixelLead          = "offsite_conversion.fb_pixel_lead"
	actionLandingPageView    = "landing_page_view"
	actionLinkClick          = "link_click"
	actionPostEngagement     = "post_engagement"
	actionPageEngagement     = "page_engagement"
	actionLike               = "like"
	actionVideoView          = "video_view"
	actionPurchase           = "offsite_conversion.fb_pixel_purchase"
	actionOmniPurchase       = "omni_purchase"
	actionInitiateCheckout   = "offsite_conversion.fb_pixel_initiate_checkout"
	actionAddToCart          = "offsite_conversion.fb_pixel_add_to_cart"
	actionAppInstall         = "mobile_app_install"
	actionRegistration       = "offsite_conversion.fb_pixel_complete_registration"

	// ReachLabel identifica resultados de objetivos de alcance.
	ReachLabel = "reach"
)

// reachObjectives usam o alcance como resultado, sem olhar as ações.
var reachObjectives = map[string]struct{}{
	"OUTCOME_AWARENESS": {},
	"BRAND_AWARENESS":   {},
	"REACH":             {},
}

// objectivePriorities é a política de "o que conta como resultado" por objetivo.
// Não deve ser alterada em tempo de execução; Candidates devolve cópias.
var objectivePriorities = map[string][]string{
	"OUTCOME_LEADS":         {actionLead, actionLeadGrouped, actionPixelLead, actionMessagingStarted7d},
	"LEAD_GENERATION":       {actionLead, actionLeadGrouped, actionPixelLead},
	"OUTCOME_ENGAGEMENT":    {actionMessagingStarted7d, actionTotalMessaging, actionPostEngagement, actionPageEngagement},
	"MESSAGES":              {actionMessagingStarted7d, actionTotalMessaging},
	"POST_ENGAGEMENT":       {actionPostEngagement, actionPageEngagement},
	"PAGE_LIKES":            {actionLike, actionPageEngagement},
	"OUTCOME_TRAFFIC":       {actionLandingPageView, actionLinkClick},
	"LINK_CLICKS":           {actionLinkClick, actionLandingPageView},
	"OUTCOME_SALES":         {actionPurchase, actionOmniPurchase, actionInitiateCheckout, actionAddToCart, actionMessagingStarted7d},
	"CONVERSIONS":           {actionPurchase, actionOmniPurchase, actionRegistration, actionPixelLead},
	"OUTCOME_APP_PROMOTION": {actionAppInstall},
	"APP_INSTALLS":          {actionAppInstall},
	"VIDEO_VIEWS":           {actionVideoView},
}

// defaultPriorities vale para objetivos ausentes ou desconhecidos.
var defaultPriorities = []string{
	actionMessagingStarted7d,
	actionLead,
	actionLandingPageView,
	actionLinkClick,
	actionPostEngagement,
}

// Candidates devolve, em ordem de prioridade, os action_types que contam como
// resultado para o objetivo.
func Candidates(objective string) []string {
	if candidates, ok := objectivePriorities[normalizeObjective(objective)]; ok {
		return slices.Clone(candidates)
	}
	return slices.Clone(defaultPriorities)
}

func IsReachObjective(objective string) bool {
	_, ok := reachObjectives[normalizeObjective(objective)]
	return ok
}

func normalizeObjective(objective string) string {
	return strings.ToUpper(strings.TrimSpace(objective))
}
