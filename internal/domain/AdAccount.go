package domain

import (
	"strings"
	"time"
)

type AdAccountStatus string

const (
	AdAccountStatusActive   AdAccountStatus = "ACTIVE"
	AdAccountStatusInactive AdAccountStatus = "INACTIVE"
)

// AdAccount é a conta de anúncios de um dono (owner). O motor só lê contas,
// nunca as altera.
type AdAccount struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	ExternalID  string          `json:"external_id"`
	Name        string          `json:"name"`
	AccessToken string          `json:"-"`
	Status      AdAccountStatus `json:"status"`
	Timezone    string          `json:"timezone"`
}

func (a *AdAccount) IsActive() bool {
	return a != nil && a.Status == AdAccountStatusActive
}

// GraphID retorna o identificador no formato esperado pela Graph API (act_<id>).
func (a *AdAccount) GraphID() string {
	if strings.HasPrefix(a.ExternalID, "act_") {
		return a.ExternalID
	}
	return "act_" + a.ExternalID
}

// NumericID é o id sem o prefixo act_, usado nas chaves de snapshot.
func (a *AdAccount) NumericID() string {
	return strings.TrimPrefix(a.ExternalID, "act_")
}

// Location devolve o fuso do negócio da conta, ou o fallback quando ausente/inválido.
func (a *AdAccount) Location(fallback *time.Location) *time.Location {
	if a == nil || a.Timezone == "" {
		return fallback
	}

	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return fallback
	}

	return loc
}
