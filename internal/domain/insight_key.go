package domain

import "strings"

const insightKeySeparator = "_"

// BuildInsightKey monta a chave natural owner_account_campaign_adset_ad_date.
// Componentes ausentes entram como string vazia, então o número de
// separadores é sempre o mesmo.
func BuildInsightKey(ownerID, accountID, campaignID, adSetID, adID, date string) string {
	return strings.Join([]string{ownerID, accountID, campaignID, adSetID, adID, date}, insightKeySeparator)
}
