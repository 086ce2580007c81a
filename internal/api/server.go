package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/internal/api/handler"
	"github.com/vfg2006/ads-insight-sync/internal/api/handler/router"
	"github.com/vfg2006/ads-insight-sync/internal/config"
	"github.com/vfg2006/ads-insight-sync/internal/scheduler"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/authenticating"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/insighting"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/syncing"
	"github.com/vfg2006/ads-insight-sync/pkg/middleware"
)

const shutdownTimeout = 15 * time.Second

type Server struct {
	httpServer *http.Server
}

func New(
	config *config.Config,
	syncService syncing.Syncer,
	snapshotReader insighting.SnapshotReader,
	authenticator authenticating.Authenticator,
	syncTrigger scheduler.FullSyncTrigger,
) (*Server, error) {
	rt := router.New(
		router.WithRoutes(handler.Healthcheck()...),
		router.WithRoutes(handler.Metrics()...),
		router.WithRoutes(handler.Sync(syncService, syncTrigger)...),
		router.WithRoutes(handler.Snapshots(snapshotReader)...),
	)

	logrus.WithField("routes", rt.Routes()).Debug("Rotas registradas")

	middlewares := []alice.Constructor{
		middleware.LogPanicMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.Cors(config.Server.AllowedOrigins),
		middleware.AuthMiddleware(authenticator),
	}

	srv := &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
			Handler:           alice.New(middlewares...).Then(rt),
			ReadHeaderTimeout: 2 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
	}

	return srv, nil
}

// Handler expõe a pilha completa de middlewares e rotas.
func (s Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serve até receber SIGINT/SIGTERM, o contexto ser cancelado ou o
// listener falhar. Nos dois primeiros casos desliga com prazo de shutdownTimeout.
func (s Server) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		logrus.WithField("address", s.httpServer.Addr).Info("Servidor iniciando")

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-serveErr:
		if ok {
			logrus.WithError(err).Error("Erro durante a execução do servidor")
			return err
		}
		return nil
	case <-signalCtx.Done():
		logrus.Info("Sinal de interrupção recebido ou contexto cancelado")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logrus.WithField("timeout", shutdownTimeout.String()).Info("Iniciando desligamento gracioso do servidor")

	if err := s.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Erro durante o desligamento do servidor")
		return err
	}

	return nil
}

func (s Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("erro ao desligar servidor HTTP: %w", err)
	}

	logrus.Info("Servidor HTTP desligado com sucesso")
	return nil
}
