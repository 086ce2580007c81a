package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-insight-sync/internal/api/handler/router"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	schedulermocks "github.com/vfg2006/ads-insight-sync/internal/scheduler/mocks"
	insightmocks "github.com/vfg2006/ads-insight-sync/internal/usecases/insighting/mocks"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/syncing"
	syncmocks "github.com/vfg2006/ads-insight-sync/internal/usecases/syncing/mocks"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/upserting"
	"github.com/vfg2006/ads-insight-sync/pkg/apiErrors"
	"github.com/vfg2006/ads-insight-sync/pkg/middleware"
	"go.uber.org/mock/gomock"
)

var (
	adminClaims  = &domain.Claims{UserID: 1, UserRoleID: middleware.RoleAdmin}
	clientClaims = &domain.Claims{UserID: 2, UserRoleID: middleware.RoleClient, OwnerID: "o1"}
)

type testAPI struct {
	syncer  *syncmocks.MockSyncer
	trigger *schedulermocks.MockFullSyncTrigger
	reader  *insightmocks.MockSnapshotReader
	router  router.Router
}

func newTestAPI(t *testing.T) *testAPI {
	ctrl := gomock.NewController(t)
	api := &testAPI{
		syncer:  syncmocks.NewMockSyncer(ctrl),
		trigger: schedulermocks.NewMockFullSyncTrigger(ctrl),
		reader:  insightmocks.NewMockSnapshotReader(ctrl),
	}
	api.router = router.New(
		router.WithRoutes(Healthcheck()...),
		router.WithRoutes(Metrics()...),
		router.WithRoutes(Sync(api.syncer, api.trigger)...),
		router.WithRoutes(Snapshots(api.reader)...),
	)
	return api
}

func (a *testAPI) do(method, path, body string, claims *domain.Claims) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if claims != nil {
		req = req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyUser, claims))
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiErrors.APIError {
	t.Helper()
	var body apiErrors.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPublicRoutes(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestTriggerFullSync(t *testing.T) {
	tests := []struct {
		name           string
		claims         *domain.Claims
		setup          func(api *testAPI)
		expectedStatus int
	}{
		{
			name:           "Administrador dispara a sincronização",
			claims:         adminClaims,
			setup:          func(api *testAPI) { api.trigger.EXPECT().TriggerManualSync().Return(true) },
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "Sincronização já em andamento",
			claims:         adminClaims,
			setup:          func(api *testAPI) { api.trigger.EXPECT().TriggerManualSync().Return(false) },
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "Cliente não pode disparar",
			claims:         clientClaims,
			setup:          func(*testAPI) {},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			tt.setup(api)

			rec := api.do(http.MethodPost, "/v1/sync/full", "", tt.claims)
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestRunAccountSync(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		path           string
		body           string
		claims         *domain.Claims
		setup          func(api *testAPI)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:   "Dono sincroniza a própria conta",
			path:   "/v1/owners/o1/accounts/123/sync",
			body:   `{"since":"2024-01-01","until":"2024-01-10"}`,
			claims: clientClaims,
			setup: func(api *testAPI) {
				api.syncer.EXPECT().RunHistoricalSync(gomock.Any(), domain.SyncRequest{
					OwnerID: "o1", AccountID: "123", Since: &since, Until: &until,
				}).Return(&domain.SyncLog{RunID: "r1", Status: domain.SyncStatusSuccess}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Cliente de outro dono",
			path:           "/v1/owners/o2/accounts/123/sync",
			body:           `{"since":"2024-01-01","until":"2024-01-10"}`,
			claims:         clientClaims,
			setup:          func(*testAPI) {},
			expectedStatus: http.StatusForbidden,
			expectedCode:   apiErrors.ErrInsufficientPrivilege,
		},
		{
			name:           "Data mal formatada",
			path:           "/v1/owners/o1/accounts/123/sync",
			body:           `{"since":"01/01/2024","until":"2024-01-10"}`,
			claims:         adminClaims,
			setup:          func(*testAPI) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apiErrors.ErrInvalidFormat,
		},
		{
			name:           "JSON inválido",
			path:           "/v1/owners/o1/accounts/123/sync",
			body:           `{`,
			claims:         adminClaims,
			setup:          func(*testAPI) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apiErrors.ErrInvalidFormat,
		},
		{
			name:   "Sem janela",
			path:   "/v1/owners/o1/accounts/123/sync",
			body:   `{}`,
			claims: adminClaims,
			setup: func(api *testAPI) {
				api.syncer.EXPECT().RunHistoricalSync(gomock.Any(), gomock.Any()).Return(nil, domain.ErrMissingWindow)
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   apiErrors.ErrMissingRequiredData,
		},
		{
			name:   "Conta inexistente",
			path:   "/v1/owners/o1/accounts/999/sync",
			body:   `{"since":"2024-01-01","until":"2024-01-10"}`,
			claims: adminClaims,
			setup: func(api *testAPI) {
				api.syncer.EXPECT().RunHistoricalSync(gomock.Any(), gomock.Any()).Return(nil, domain.ErrAccountNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   apiErrors.ErrAccountNotFound,
		},
		{
			name:   "Conta inativa",
			path:   "/v1/owners/o1/accounts/123/sync",
			body:   `{"since":"2024-01-01","until":"2024-01-10"}`,
			claims: adminClaims,
			setup: func(api *testAPI) {
				api.syncer.EXPECT().RunHistoricalSync(gomock.Any(), gomock.Any()).Return(nil, syncing.ErrAccountInactive)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   apiErrors.ErrAccountInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			tt.setup(api)

			rec := api.do(http.MethodPost, tt.path, tt.body, tt.claims)
			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, rec).Code)
			}
		})
	}
}

func TestIngestInsightEvent(t *testing.T) {
	body := `{"owner_id":"o1","account_id":"act_123","status":"ACTIVE","insight":{"level":"ad","campaign_id":"c1","adset_id":"s1","ad_id":"a1","date_start":"2024-01-10","spend":"5"}}`

	t.Run("Evento gravado", func(t *testing.T) {
		api := newTestAPI(t)
		api.syncer.EXPECT().IngestEvent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, event *domain.InsightEvent) (upserting.BatchResult, error) {
				assert.Equal(t, domain.LevelAd, event.Insight.Level)
				assert.Equal(t, "5", event.Insight.Spend)
				return upserting.BatchResult{Inserted: 1}, nil
			})

		rec := api.do(http.MethodPost, "/v1/insights/events", body, clientClaims)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"inserted":1`)
	})

	t.Run("Falha de escrita", func(t *testing.T) {
		api := newTestAPI(t)
		api.syncer.EXPECT().IngestEvent(gomock.Any(), gomock.Any()).Return(upserting.BatchResult{
			Failed: 1,
			Errors: []upserting.RecordError{{Key: "k", Err: errors.New("conflito")}},
		}, nil)

		rec := api.do(http.MethodPost, "/v1/insights/events", body, adminClaims)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, apiErrors.ErrDatabaseOperation, decodeError(t, rec).Code)
	})

	t.Run("Evento de outro dono", func(t *testing.T) {
		api := newTestAPI(t)
		rec := api.do(http.MethodPost, "/v1/insights/events", strings.Replace(body, `"o1"`, `"o2"`, 1), clientClaims)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Nível inválido", func(t *testing.T) {
		api := newTestAPI(t)
		api.syncer.EXPECT().IngestEvent(gomock.Any(), gomock.Any()).Return(upserting.BatchResult{}, domain.ErrInvalidEventLevel)

		rec := api.do(http.MethodPost, "/v1/insights/events", body, adminClaims)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Data fora do formato", func(t *testing.T) {
		api := newTestAPI(t)
		api.syncer.EXPECT().IngestEvent(gomock.Any(), gomock.Any()).Return(upserting.BatchResult{}, fmt.Errorf("%w: %q", domain.ErrInvalidEventDate, "10/01/2024"))

		rec := api.do(http.MethodPost, "/v1/insights/events", body, adminClaims)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetSyncStatus(t *testing.T) {
	t.Run("Status com execuções recentes", func(t *testing.T) {
		api := newTestAPI(t)
		api.syncer.EXPECT().RecentRuns(gomock.Any(), 3).Return([]*domain.SyncLog{{RunID: "r1"}}, nil)
		api.trigger.EXPECT().GetStatus().Return(map[string]any{"sync_running": false})

		rec := api.do(http.MethodGet, "/v1/sync/status?limit=3", "", adminClaims)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"run_id":"r1"`)
		assert.Contains(t, rec.Body.String(), `"sync_running":false`)
	})

	t.Run("Limite inválido", func(t *testing.T) {
		api := newTestAPI(t)
		rec := api.do(http.MethodGet, "/v1/sync/status?limit=abc", "", adminClaims)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Erro no armazenamento", func(t *testing.T) {
		api := newTestAPI(t)
		api.syncer.EXPECT().RecentRuns(gomock.Any(), defaultRecentRuns).Return(nil, errors.New("timeout"))

		rec := api.do(http.MethodGet, "/v1/sync/status", "", adminClaims)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestGetAccountSnapshots(t *testing.T) {
	t.Run("Filtros repassados ao serviço", func(t *testing.T) {
		api := newTestAPI(t)
		since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		api.reader.EXPECT().GetSnapshots(gomock.Any(), domain.SnapshotQuery{
			OwnerID: "o1", AccountID: "123", Since: &since, Level: domain.LevelAd, Archived: true,
		}).Return(&domain.SnapshotReport{OwnerID: "o1", AccountID: "123", Summary: domain.InsightSummary{Spend: 10}}, nil)

		rec := api.do(http.MethodGet, "/v1/owners/o1/accounts/123/snapshots?since=2024-01-01&level=ad&archived=true", "", clientClaims)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"spend":10`)
	})

	t.Run("Parâmetro archived inválido", func(t *testing.T) {
		api := newTestAPI(t)
		rec := api.do(http.MethodGet, "/v1/owners/o1/accounts/123/snapshots?archived=talvez", "", adminClaims)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Cliente de outro dono", func(t *testing.T) {
		api := newTestAPI(t)
		rec := api.do(http.MethodGet, "/v1/owners/o2/accounts/123/snapshots", "", clientClaims)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
