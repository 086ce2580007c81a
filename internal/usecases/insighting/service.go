package insighting

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/repository"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	"github.com/vfg2006/ads-insight-sync/pkg/utils"
)

//go:generate mockgen -source=service.go -destination=mocks/service.go -package=mocks
type SnapshotReader interface {
	// GetSnapshots devolve os snapshots gravados de uma conta no período e o
	// resumo das métricas.
	GetSnapshots(ctx context.Context, query domain.SnapshotQuery) (*domain.SnapshotReport, error)
}

type Service struct {
	accountRepo  repository.AccountRepository
	snapshotRepo repository.SnapshotRepository
}

func NewService(accountRepo repository.AccountRepository, snapshotRepo repository.SnapshotRepository) SnapshotReader {
	return &Service{
		accountRepo:  accountRepo,
		snapshotRepo: snapshotRepo,
	}
}

func (s *Service) GetSnapshots(ctx context.Context, query domain.SnapshotQuery) (*domain.SnapshotReport, error) {
	if query.OwnerID == "" || query.AccountID == "" {
		return nil, domain.ErrMissingAccount
	}
	if query.Since != nil && query.Until != nil && query.Since.After(*query.Until) {
		return nil, domain.ErrInvalidWindow
	}
	if query.Level == "" {
		query.Level = domain.LevelCampaign
	}
	if !query.Level.IsValid() {
		return nil, domain.ErrInvalidEventLevel
	}

	account, err := s.accountRepo.GetAccount(ctx, query.OwnerID, query.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}

	filter := repository.SnapshotFilter{
		OwnerID:   account.OwnerID,
		AccountID: account.NumericID(),
		Level:     query.Level,
		Archived:  query.Archived,
	}
	if query.Since != nil {
		filter.Since = query.Since.Format(time.DateOnly)
	}
	if query.Until != nil {
		filter.Until = query.Until.Format(time.DateOnly)
	}

	snapshots, err := s.snapshotRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar snapshots: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"owner_id":   filter.OwnerID,
		"account_id": filter.AccountID,
		"level":      filter.Level,
		"since":      filter.Since,
		"until":      filter.Until,
		"snapshots":  len(snapshots),
	}).Debug("Snapshots lidos do armazenamento")

	return &domain.SnapshotReport{
		OwnerID:   filter.OwnerID,
		AccountID: filter.AccountID,
		Level:     filter.Level,
		Since:     filter.Since,
		Until:     filter.Until,
		Summary:   Summarize(snapshots),
		Snapshots: snapshots,
	}, nil
}

// Summarize soma os snapshots e recalcula CTR, CPC, CPM e custo por resultado.
func Summarize(snapshots []*domain.InsightSnapshot) domain.InsightSummary {
	summary := domain.InsightSummary{}
	days := make(map[string]struct{})

	for _, snapshot := range snapshots {
		summary.Spend += snapshot.Spend
		summary.Impressions += snapshot.Impressions
		summary.Clicks += snapshot.Clicks
		summary.Reach += snapshot.Reach
		summary.Results += snapshot.Results
		days[snapshot.DateStart] = struct{}{}
	}

	summary.Days = len(days)
	summary.Spend = utils.RoundWithTwoDecimalPlace(summary.Spend)

	impressions := float64(summary.Impressions)
	summary.CTR = utils.RoundWithTwoDecimalPlace(utils.SafeDivide(float64(summary.Clicks), impressions) * 100)
	summary.CPM = utils.RoundWithTwoDecimalPlace(utils.SafeDivide(summary.Spend, impressions) * 1000)
	summary.CPC = utils.RoundWithTwoDecimalPlace(utils.SafeDivide(summary.Spend, float64(summary.Clicks)))
	summary.CostPerResult = utils.RoundWithTwoDecimalPlace(utils.SafeDivide(summary.Spend, float64(summary.Results)))

	return summary
}
