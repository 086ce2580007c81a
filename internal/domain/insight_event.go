package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidEventLevel = errors.New("nível do insight inválido")
	ErrMissingEventData  = errors.New("insight sem id da entidade ou date_start")
	ErrInvalidEventDate  = errors.New("date_start fora do formato AAAA-MM-DD")
)

// InsightEvent é um insight avulso enviado por um produtor externo, gravado
// pelo caminho otimista.
type InsightEvent struct {
	OwnerID   string     `json:"owner_id"`
	AccountID string     `json:"account_id"`
	Status    string     `json:"status"`
	Name      string     `json:"name"`
	Insight   RawInsight `json:"insight"`
}

func (e *InsightEvent) Validate() error {
	if e.OwnerID == "" || e.AccountID == "" {
		return ErrMissingAccount
	}
	if !e.Insight.Level.IsValid() {
		return ErrInvalidEventLevel
	}
	if e.Insight.EntityID() == "" || e.Insight.DateStart == "" {
		return ErrMissingEventData
	}
	// a data compõe a chave natural: formato diferente geraria outra linha
	if _, err := time.Parse(time.DateOnly, e.Insight.DateStart); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEventDate, e.Insight.DateStart)
	}
	return nil
}

// Entity monta a entidade dona do insight a partir dos dados do evento.
func (e *InsightEvent) Entity(account *AdAccount) *CatalogEntity {
	raw := e.Insight
	entity := &CatalogEntity{
		Level:      raw.Level,
		ExternalID: raw.EntityID(),
		OwnerID:    account.OwnerID,
		AccountID:  account.NumericID(),
		Name:       e.Name,
		Status:     SanitizeStatus(e.Status),
		RawStatus:  e.Status,
		Objective:  raw.Objective,
	}
	if raw.Level != LevelCampaign {
		entity.CampaignID = raw.CampaignID
	}
	if raw.Level == LevelAd {
		entity.AdSetID = raw.AdSetID
	}
	return entity
}
