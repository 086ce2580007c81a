package syncing

import (
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/infrastructure/repository"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/upserting"
)

var snapshotTables = []string{tablestore.TableInsights, tablestore.TableInsightsArchive}

func snapshotTarget(table string) upserting.Target {
	immutable := make([]string, 0, len(repository.SnapshotIdentityFields)+len(repository.SnapshotDescriptiveFields))
	immutable = append(immutable, repository.SnapshotIdentityFields...)
	immutable = append(immutable, repository.SnapshotDescriptiveFields...)

	return upserting.Target{
		Table:           table,
		KeyField:        repository.FieldInsightKey,
		ImmutableFields: immutable,
	}
}

func catalogTarget(level domain.InsightLevel) upserting.Target {
	return upserting.Target{
		Table:           repository.CatalogTable(level),
		KeyField:        repository.FieldExternalID,
		ImmutableFields: repository.CatalogIdentityFields,
	}
}
