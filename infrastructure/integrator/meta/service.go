package meta

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	metadomain "github.com/vfg2006/ads-insight-sync/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/ads-insight-sync/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	"github.com/vfg2006/ads-insight-sync/pkg/utils"
	"golang.org/x/sync/errgroup"
)

const graphTimeLayout = "2006-01-02T15:04:05-0700"

//go:generate mockgen -source=service.go -destination=mocks/service.go -package=mocks
type Fetcher interface {
	FetchAccount(ctx context.Context, account *domain.AdAccount, window domain.FetchWindow) (*domain.AccountData, error)
}

type MetaIntegrator struct {
	Client metaclient.Client
}

func New(client metaclient.Client) *MetaIntegrator {
	return &MetaIntegrator{
		Client: client,
	}
}

// FetchAccount dispara as três listagens de estrutura e as três de insights
// em paralelo e só retorna quando todas terminam. Qualquer erro aborta a conta.
func (s *MetaIntegrator) FetchAccount(ctx context.Context, account *domain.AdAccount, window domain.FetchWindow) (*domain.AccountData, error) {
	if account.AccessToken == "" {
		return nil, fmt.Errorf("%w: conta sem token de acesso", metaclient.ErrInvalidCredential)
	}

	entities := make([][]metadomain.Entity, len(domain.Levels))
	insights := make([][]metadomain.InsightRow, len(domain.Levels))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, level := range domain.Levels {
		i, level := i, level
		group.Go(func() error {
			rows, err := s.Client.ListEntities(groupCtx, account.AccessToken, account.ExternalID, level)
			if err != nil {
				return fmt.Errorf("erro ao listar %s: %w", level, err)
			}
			entities[i] = rows
			return nil
		})

		group.Go(func() error {
			rows, err := s.Client.ListInsights(groupCtx, account.AccessToken, account.ExternalID, level, window)
			if err != nil {
				return fmt.Errorf("erro ao listar insights de %s: %w", level, err)
			}
			insights[i] = rows
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		logrus.WithFields(logrus.Fields{
			"owner_id":   account.OwnerID,
			"account_id": account.ExternalID,
			"error":      err.Error(),
		}).Error("insights: falha ao buscar dados da conta na API Meta")
		return nil, err
	}

	data := domain.NewAccountData()
	for i, level := range domain.Levels {
		data.Entities[level] = FactoryCatalogEntities(account, level, entities[i])
		data.Insights[level] = FactoryRawInsights(level, insights[i])
	}

	logrus.WithFields(logrus.Fields{
		"account_id": account.ExternalID,
		"campaigns":  len(data.Entities[domain.LevelCampaign]),
		"adsets":     len(data.Entities[domain.LevelAdSet]),
		"ads":        len(data.Entities[domain.LevelAd]),
		"rows":       len(data.Insights[domain.LevelCampaign]) + len(data.Insights[domain.LevelAdSet]) + len(data.Insights[domain.LevelAd]),
	}).Debug("insights: dados da conta obtidos da API Meta")

	return data, nil
}

func FactoryCatalogEntities(account *domain.AdAccount, level domain.InsightLevel, rows []metadomain.Entity) []*domain.CatalogEntity {
	entities := make([]*domain.CatalogEntity, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" {
			continue
		}

		raw := row.RawStatus()
		entity := &domain.CatalogEntity{
			Level:          level,
			ExternalID:     row.ID,
			OwnerID:        account.OwnerID,
			AccountID:      account.NumericID(),
			CampaignID:     row.CampaignID,
			AdSetID:        row.AdSetID,
			Name:           row.Name,
			Status:         domain.SanitizeStatus(raw),
			RawStatus:      raw,
			Objective:      row.Objective,
			DailyBudget:    parseBudget(row.DailyBudget),
			LifetimeBudget: parseBudget(row.LifetimeBudget),
			CreatedTime:    parseGraphTime(row.CreatedTime),
			UpdatedTime:    parseGraphTime(row.UpdatedTime),
		}
		entities = append(entities, entity)
	}
	return entities
}

func FactoryRawInsights(level domain.InsightLevel, rows []metadomain.InsightRow) []domain.RawInsight {
	out := make([]domain.RawInsight, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.RawInsight{
			Level:             level,
			AccountID:         row.AccountID,
			CampaignID:        row.CampaignID,
			CampaignName:      row.CampaignName,
			AdSetID:           row.AdSetID,
			AdSetName:         row.AdSetName,
			AdID:              row.AdID,
			AdName:            row.AdName,
			Objective:         row.Objective,
			DateStart:         row.DateStart,
			Spend:             row.Spend.String(),
			Impressions:       row.Impressions.String(),
			Clicks:            row.Clicks.String(),
			Reach:             row.Reach.String(),
			Frequency:         row.Frequency.String(),
			CTR:               row.CTR.String(),
			CPC:               row.CPC.String(),
			CPM:               row.CPM.String(),
			Actions:           factoryActions(row.Actions),
			CostPerActionType: factoryActions(row.CostPerActionType),
		})
	}
	return out
}

func factoryActions(actions []metadomain.Action) []domain.RawAction {
	if len(actions) == 0 {
		return nil
	}
	out := make([]domain.RawAction, 0, len(actions))
	for _, a := range actions {
		out = append(out, domain.RawAction{ActionType: a.ActionType, Value: a.Value.String()})
	}
	return out
}

// parseBudget converte o orçamento da menor unidade monetária (centavos) para reais.
func parseBudget(value metadomain.NumericString) float64 {
	if value == "" {
		return 0
	}
	cents, err := strconv.ParseFloat(strings.TrimSpace(value.String()), 64)
	if err != nil || cents < 0 {
		logrus.WithField("value", value).Warn("insights: orçamento inválido recebido da API Meta")
		return 0
	}
	return utils.RoundWithTwoDecimalPlace(cents / 100)
}

func parseGraphTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(graphTimeLayout, value)
	if err != nil {
		return nil
	}
	return &t
}
