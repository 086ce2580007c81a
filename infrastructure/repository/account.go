package repository

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
)

//go:generate mockgen -source=account.go -destination=mocks/account.go -package=mocks
type AccountRepository interface {
	ListActiveAccounts(ctx context.Context) ([]*domain.AdAccount, error)
	GetAccount(ctx context.Context, ownerID, externalID string) (*domain.AdAccount, error)
}

type accountRepository struct {
	store tablestore.Store
}

func NewAccountRepository(store tablestore.Store) AccountRepository {
	return &accountRepository{
		store: store,
	}
}

func (a *accountRepository) ListActiveAccounts(ctx context.Context) ([]*domain.AdAccount, error) {
	records, err := a.store.List(ctx, tablestore.TableAccounts, tablestore.Query{
		Where: []tablestore.Condition{
			tablestore.Eq("status", string(domain.AdAccountStatusActive)),
		},
		Sort: FieldOwnerID,
	})
	if err != nil {
		return nil, fmt.Errorf("erro ao listar contas ativas: %w", err)
	}

	accounts := make([]*domain.AdAccount, 0, len(records))
	for _, rec := range records {
		acc := deserializeAccount(rec)
		if acc.ExternalID == "" || acc.OwnerID == "" {
			logrus.WithField("record_id", rec.ID).Warn("Conta ignorada por não ter owner_id ou external_id")
			continue
		}
		accounts = append(accounts, acc)
	}

	return accounts, nil
}

// GetAccount devolve nil, nil quando a conta não existe para o dono informado.
func (a *accountRepository) GetAccount(ctx context.Context, ownerID, externalID string) (*domain.AdAccount, error) {
	candidates := []any{externalID}
	if numeric := (&domain.AdAccount{ExternalID: externalID}).NumericID(); numeric != externalID {
		candidates = append(candidates, numeric)
	} else {
		candidates = append(candidates, "act_"+externalID)
	}

	records, err := a.store.List(ctx, tablestore.TableAccounts, tablestore.Query{
		Where: []tablestore.Condition{
			tablestore.Eq(FieldOwnerID, ownerID),
			tablestore.In(FieldExternalID, candidates...),
		},
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar conta: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	return deserializeAccount(records[0]), nil
}

func deserializeAccount(rec tablestore.Record) *domain.AdAccount {
	return &domain.AdAccount{
		ID:          rec.ID,
		OwnerID:     rec.String(FieldOwnerID),
		ExternalID:  rec.String(FieldExternalID),
		Name:        rec.String("name"),
		AccessToken: rec.String("access_token"),
		Status:      domain.AdAccountStatus(rec.String("status")),
		Timezone:    rec.String("timezone"),
	}
}
