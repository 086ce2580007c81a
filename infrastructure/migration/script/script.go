package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/postgres"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database/tablestore"
	"github.com/vfg2006/ads-insight-sync/infrastructure/repository"
	"github.com/vfg2006/ads-insight-sync/internal/config"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
)

type column struct {
	Name string
	Type string
}

var snapshotColumns = []column{
	{repository.FieldInsightKey, "TEXT NOT NULL"},
	{repository.FieldOwnerID, "TEXT NOT NULL"},
	{repository.FieldAccountID, "TEXT NOT NULL"},
	{"campaign_id", "TEXT"},
	{"adset_id", "TEXT"},
	{"ad_id", "TEXT"},
	{repository.FieldLevel, "TEXT NOT NULL"},
	{repository.FieldDateStart, "DATE NOT NULL"},
	{"campaign_name", "TEXT"},
	{"adset_name", "TEXT"},
	{"ad_name", "TEXT"},
	{"objective", "TEXT"},
	{"status", "TEXT"},
	{"raw_status", "TEXT"},
	{"spend", "NUMERIC(14,2) DEFAULT 0"},
	{"impressions", "BIGINT DEFAULT 0"},
	{"clicks", "BIGINT DEFAULT 0"},
	{"reach", "BIGINT DEFAULT 0"},
	{"frequency", "NUMERIC(12,4) DEFAULT 0"},
	{"ctr", "NUMERIC(12,4) DEFAULT 0"},
	{"cpc", "NUMERIC(14,2) DEFAULT 0"},
	{"cpm", "NUMERIC(14,2) DEFAULT 0"},
	{"results", "BIGINT DEFAULT 0"},
	{"cost_per_result", "NUMERIC(14,2) DEFAULT 0"},
	{"result_label", "TEXT"},
	{"actions", "TEXT"},
	{"cost_per_action_type", "TEXT"},
	{"synced_at", "TIMESTAMPTZ"},
}

var catalogColumns = []column{
	{repository.FieldExternalID, "TEXT NOT NULL"},
	{repository.FieldOwnerID, "TEXT NOT NULL"},
	{repository.FieldAccountID, "TEXT NOT NULL"},
	{repository.FieldLevel, "TEXT NOT NULL"},
	{"name", "TEXT"},
	{"status", "TEXT"},
	{"raw_status", "TEXT"},
	{"objective", "TEXT"},
	{"campaign_id", "TEXT"},
	{"adset_id", "TEXT"},
	{"daily_budget", "NUMERIC(14,2) DEFAULT 0"},
	{"lifetime_budget", "NUMERIC(14,2) DEFAULT 0"},
	{"created_time", "TIMESTAMPTZ"},
	{"updated_time", "TIMESTAMPTZ"},
}

var accountColumns = []column{
	{repository.FieldOwnerID, "TEXT NOT NULL"},
	{repository.FieldExternalID, "TEXT NOT NULL UNIQUE"},
	{"name", "TEXT"},
	{"access_token", "TEXT"},
	{"status", "TEXT NOT NULL DEFAULT 'ACTIVE'"},
	{"timezone", "TEXT"},
}

var syncLogColumns = []column{
	{"run_id", "TEXT NOT NULL"},
	{"type", "TEXT NOT NULL"},
	{"started_at", "TIMESTAMPTZ NOT NULL"},
	{"finished_at", "TIMESTAMPTZ"},
	{"records_processed", "BIGINT DEFAULT 0"},
	{"status", "TEXT NOT NULL"},
	{"error_text", "TEXT"},
	{"accounts_succeeded", "INTEGER DEFAULT 0"},
	{"accounts_failed", "INTEGER DEFAULT 0"},
	{"accounts", "TEXT"},
}

func setupLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	logrus.Info("Iniciando script de migração...")
}

// withActionColumns acrescenta contagem e custo de cada ação nomeada.
func withActionColumns(columns []column) []column {
	out := make([]column, 0, len(columns)+2*len(domain.ActionNames))
	out = append(out, columns...)
	for _, name := range domain.ActionNames {
		out = append(out,
			column{repository.ActionCountField(name), "BIGINT DEFAULT 0"},
			column{repository.ActionCostField(name), "NUMERIC(14,2) DEFAULT 0"},
		)
	}
	return out
}

func createTable(table string, columns []column) string {
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, "id TEXT PRIMARY KEY")
	for _, c := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", c.Name, c.Type))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", table, strings.Join(defs, ",\n\t"))
}

// statements monta o DDL completo. Os dois destinos de snapshot têm índice
// único na chave natural; o catálogo é único por entidade e dono.
func statements() []string {
	snapshots := withActionColumns(snapshotColumns)

	stmts := []string{
		createTable(tablestore.TableInsights, snapshots),
		createTable(tablestore.TableInsightsArchive, snapshots),
		createTable(tablestore.TableAccounts, accountColumns),
		createTable(tablestore.TableSyncLogs, syncLogColumns),
	}

	for _, table := range []string{tablestore.TableInsights, tablestore.TableInsightsArchive} {
		stmts = append(stmts,
			fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s_insight_key_idx ON %s (insight_key)", table, table),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_account_date_idx ON %s (account_id, date_start)", table, table),
		)
	}

	for _, table := range []string{tablestore.TableCampaigns, tablestore.TableAdSets, tablestore.TableAds} {
		stmts = append(stmts,
			createTable(table, catalogColumns),
			fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s_external_owner_idx ON %s (external_id, owner_id)", table, table),
		)
	}

	stmts = append(stmts, "CREATE INDEX IF NOT EXISTS sync_logs_started_at_idx ON sync_logs (started_at DESC)")

	return stmts
}

func main() {
	setupLogger()

	stmts := statements()

	if len(os.Args) > 1 && os.Args[1] == "--dry-run" {
		for _, stmt := range stmts {
			fmt.Println(stmt + ";")
		}
		return
	}

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao carregar configuração")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	startTime := time.Now()

	conn, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar no banco de dados")
	}
	defer conn.Close()

	err = conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		for i, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("comando %d/%d: %w", i+1, len(stmts), err)
			}
		}
		return nil
	})
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao executar migração, transação revertida")
	}

	logrus.WithFields(logrus.Fields{
		"statements": len(stmts),
		"elapsed":    time.Since(startTime).String(),
	}).Info("Migração concluída com sucesso")
}
