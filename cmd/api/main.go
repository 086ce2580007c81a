package main

import (
	"context"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/database"
	"github.com/vfg2006/ads-insight-sync/infrastructure/integrator/meta"
	"github.com/vfg2006/ads-insight-sync/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/ads-insight-sync/infrastructure/repository"
	"github.com/vfg2006/ads-insight-sync/internal/api"
	"github.com/vfg2006/ads-insight-sync/internal/config"
	"github.com/vfg2006/ads-insight-sync/internal/scheduler"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/authenticating"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/insighting"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/normalizing"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/syncing"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/upserting"
	"github.com/vfg2006/ads-insight-sync/pkg/distlock"
)

func main() {
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Nível de log configurado para: %s", logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := database.NewTableStore(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao iniciar o armazenamento")
	}
	defer closeStore()

	logrus.WithField("driver", cfg.Store.Driver).Info("Armazenamento iniciado com sucesso")

	accountRepo := repository.NewAccountRepository(store)
	snapshotRepo := repository.NewSnapshotRepository(store)
	syncLogRepo := repository.NewSyncLogRepository(store)

	metaIntegrator := meta.New(metaclient.NewClient(cfg))

	syncService := syncing.NewService(cfg, syncing.Dependencies{
		Accounts:      accountRepo,
		Snapshots:     snapshotRepo,
		SyncLogs:      syncLogRepo,
		Fetcher:       metaIntegrator,
		Normalizer:    normalizing.NewService(cfg),
		BatchUpserter: upserting.NewCheckThenWrite(store, cfg),
		EventUpserter: upserting.NewOptimistic(store, cfg),
	})

	locker, closeLock, err := distlock.New(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao iniciar o lock distribuído")
	}
	defer closeLock()

	insightSyncService := scheduler.NewInsightSyncService(syncService, locker, cfg)
	if err := insightSyncService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de sincronização de insights")
	} else {
		logrus.Info("Agendador de sincronização de insights iniciado com sucesso")
	}

	server, err := api.New(
		cfg,
		syncService,
		insighting.NewService(accountRepo, snapshotRepo),
		authenticating.NewService(cfg),
		insightSyncService,
	)
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	_, file, _, _ := runtime.Caller(0)
	dir := path.Dir(file)
	os.Chdir(dir)

	if os.Getenv("APP_ENV") == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
		return
	}

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}
