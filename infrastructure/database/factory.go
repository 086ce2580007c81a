package database

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/postgres"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore/memory"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore/nocodb"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore/pgstore"
	"github.com/vfg2006/ads-insight-sync/internal/config"
)

// NewTableStore escolhe o backend do armazenamento tabular conforme STORE_DRIVER.
// A função de fechamento devolvida nunca é nil.
func NewTableStore(ctx context.Context, cfg *config.Config) (tablestore.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Driver {
	case config.StoreDriverNocoDB:
		for _, table := range tablestore.Tables {
			if _, ok := cfg.NocoDB.TableIDs[table]; !ok {
				logrus.WithField("table", table).Warn("Tabela sem id configurado no NocoDB")
			}
		}

		client := nocodb.NewClient(nocodb.Options{
			BaseURL:    cfg.NocoDB.URL,
			Token:      cfg.NocoDB.Token,
			TableIDs:   cfg.NocoDB.TableIDs,
			HTTPClient: &http.Client{Timeout: cfg.NocoDB.Timeout},
			PageSize:   cfg.NocoDB.PageSize,
			MaxRetries: cfg.NocoDB.MaxRetries,
		})
		return client, noop, nil

	case config.StoreDriverPostgres:
		conn, err := postgres.NewConnection(ctx, cfg.Database)
		if err != nil {
			return nil, noop, fmt.Errorf("erro ao conectar no postgres: %w", err)
		}
		return pgstore.NewStore(conn), conn.Close, nil

	case config.StoreDriverMemory:
		logrus.Warn("Usando armazenamento em memória, os dados serão perdidos ao reiniciar")
		return memory.New(
			memory.WithUniqueField(tablestore.TableInsights, "insight_key"),
			memory.WithUniqueField(tablestore.TableInsightsArchive, "insight_key"),
		), noop, nil
	}

	return nil, noop, fmt.Errorf("driver de armazenamento desconhecido: %s", cfg.Store.Driver)
}
