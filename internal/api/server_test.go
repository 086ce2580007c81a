package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-insight-sync/internal/config"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	schedulermocks "github.com/vfg2006/ads-insight-sync/internal/scheduler/mocks"
	authmocks "github.com/vfg2006/ads-insight-sync/internal/usecases/authenticating/mocks"
	insightmocks "github.com/vfg2006/ads-insight-sync/internal/usecases/insighting/mocks"
	syncmocks "github.com/vfg2006/ads-insight-sync/internal/usecases/syncing/mocks"
	"github.com/vfg2006/ads-insight-sync/pkg/middleware"
	"go.uber.org/mock/gomock"
)

func TestServer_Handler(t *testing.T) {
	ctrl := gomock.NewController(t)
	syncer := syncmocks.NewMockSyncer(ctrl)
	trigger := schedulermocks.NewMockFullSyncTrigger(ctrl)
	reader := insightmocks.NewMockSnapshotReader(ctrl)
	auth := authmocks.NewMockAuthenticator(ctrl)

	cfg := &config.Config{Server: config.Server{Host: "localhost", Port: "0", AllowedOrigins: []string{"http://localhost:3000"}}}
	srv, err := New(cfg, syncer, reader, auth, trigger)
	require.NoError(t, err)

	handler := srv.Handler()

	t.Run("Healthcheck sem token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Rota protegida sem token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sync/status", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Rota protegida com token de administrador", func(t *testing.T) {
		auth.EXPECT().ValidateToken("tok").Return(&domain.Claims{UserID: 1, UserRoleID: middleware.RoleAdmin}, nil)
		trigger.EXPECT().TriggerManualSync().Return(true)

		req := httptest.NewRequest(http.MethodPost, "/v1/sync/full", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("Rota inexistente", func(t *testing.T) {
		auth.EXPECT().ValidateToken("tok").Return(&domain.Claims{UserID: 1, UserRoleID: middleware.RoleAdmin}, nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/nada", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
