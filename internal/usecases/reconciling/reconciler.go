package reconciling

import (
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	"github.com/vfg2006/ads-insight-sync/pkg/metrics"
)

type Input struct {
	Account *domain.AdAccount
	Data    *domain.AccountData
	// Today é a data (YYYY-MM-DD) usada nas linhas zeradas sintetizadas.
	Today string
	// SynthesizeMissing gera linhas zeradas para entidades sem insight.
	SynthesizeMissing bool
}

// Pair liga uma linha de insight à entidade dona dela.
type Pair struct {
	Entity      *domain.CatalogEntity
	Insight     domain.RawInsight
	Synthesized bool
}

type Result struct {
	Pairs []Pair
	// Entities é o catálogo observado, sem os placeholders.
	Entities []*domain.CatalogEntity
	// Recovered são os placeholders criados para insights órfãos.
	Recovered []*domain.CatalogEntity
}

// Reconcile cruza estrutura e fatos em cada nível: entidade sem insight vira
// linha zerada e insight sem entidade ganha uma entidade mínima ACTIVE.
func Reconcile(in Input) Result {
	result := Result{}

	for _, level := range domain.Levels {
		entities := in.Data.Entities[level]
		byID := make(map[string]*domain.CatalogEntity, len(entities))
		for _, entity := range entities {
			byID[entity.ExternalID] = entity
			result.Entities = append(result.Entities, entity)
		}

		withInsight := make(map[string]struct{}, len(entities))
		for _, row := range in.Data.Insights[level] {
			row.Level = level
			id := row.EntityID()
			if id == "" || row.DateStart == "" {
				logrus.WithFields(logrus.Fields{
					"account_id": in.Account.ExternalID,
					"level":      level,
					"date_start": row.DateStart,
				}).Warn("Linha de insight sem id da entidade ou data ignorada")
				continue
			}

			entity, ok := byID[id]
			if !ok {
				entity = placeholder(in.Account, row)
				byID[id] = entity
				result.Recovered = append(result.Recovered, entity)

				metrics.RecoveredEntitiesTotal.WithLabelValues(string(level)).Inc()
				logrus.WithFields(logrus.Fields{
					"owner_id":   in.Account.OwnerID,
					"account_id": in.Account.ExternalID,
					"level":      level,
					"entity_id":  id,
				}).Trace("Entidade recovered a partir de insight órfão")
			}

			withInsight[id] = struct{}{}
			result.Pairs = append(result.Pairs, Pair{Entity: entity, Insight: row})
		}

		if !in.SynthesizeMissing {
			continue
		}

		for _, entity := range entities {
			if _, ok := withInsight[entity.ExternalID]; ok {
				continue
			}
			result.Pairs = append(result.Pairs, Pair{
				Entity:      entity,
				Insight:     zeroInsight(entity, in.Today),
				Synthesized: true,
			})
		}
	}

	return result
}

func placeholder(account *domain.AdAccount, row domain.RawInsight) *domain.CatalogEntity {
	entity := &domain.CatalogEntity{
		Level:       row.Level,
		ExternalID:  row.EntityID(),
		OwnerID:     account.OwnerID,
		AccountID:   account.NumericID(),
		Status:      domain.EntityStatusActive,
		RawStatus:   string(domain.EntityStatusActive),
		Placeholder: true,
	}

	switch row.Level {
	case domain.LevelCampaign:
		entity.Name = row.CampaignName
		entity.Objective = row.Objective
	case domain.LevelAdSet:
		entity.Name = row.AdSetName
		entity.CampaignID = row.CampaignID
	case domain.LevelAd:
		entity.Name = row.AdName
		entity.CampaignID = row.CampaignID
		entity.AdSetID = row.AdSetID
	}

	return entity
}

func zeroInsight(entity *domain.CatalogEntity, date string) domain.RawInsight {
	campaignID, adSetID, adID := entity.ParentIDs()
	return domain.RawInsight{
		Level:      entity.Level,
		AccountID:  entity.AccountID,
		CampaignID: campaignID,
		AdSetID:    adSetID,
		AdID:       adID,
		Objective:  entity.Objective,
		DateStart:  date,
	}
}
