package syncing

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/repository"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	"github.com/vfg2006/ads-insight-sync/pkg/metrics"
)

// RetentionSweeper apaga da tabela operacional os snapshots anteriores à
// janela de retenção. O arquivo não é tocado.
type RetentionSweeper struct {
	snapshots     repository.SnapshotRepository
	retentionDays int
	batchSize     int
	location      *time.Location
	now           func() time.Time
}

func NewRetentionSweeper(snapshots repository.SnapshotRepository, retentionDays, batchSize int, location *time.Location) *RetentionSweeper {
	if retentionDays < 1 {
		retentionDays = 1
	}
	if location == nil {
		location = time.UTC
	}
	return &RetentionSweeper{
		snapshots:     snapshots,
		retentionDays: retentionDays,
		batchSize:     batchSize,
		location:      location,
		now:           time.Now,
	}
}

// Boundary é a data mais antiga mantida: "ontem" no fuso da conta com a
// retenção padrão de um dia.
func (r *RetentionSweeper) Boundary(account *domain.AdAccount) string {
	return r.now().In(account.Location(r.location)).AddDate(0, 0, -r.retentionDays).Format(time.DateOnly)
}

func (r *RetentionSweeper) Sweep(ctx context.Context, account *domain.AdAccount) (int, error) {
	boundary := r.Boundary(account)

	deleted, err := r.snapshots.DeleteBefore(ctx, account.OwnerID, account.NumericID(), boundary, r.batchSize)
	metrics.RetentionDeletedTotal.Add(float64(deleted))
	if err != nil {
		return deleted, err
	}

	if deleted > 0 {
		logrus.WithFields(logrus.Fields{
			"owner_id":   account.OwnerID,
			"account_id": account.ExternalID,
			"boundary":   boundary,
			"deleted":    deleted,
		}).Info("Snapshots expirados removidos da tabela operacional")
	}

	return deleted, nil
}
