package handler

import (
	"net/http"

	"github.com/vfg2006/ads-insight-sync/internal/api/handler/router"
	"github.com/vfg2006/ads-insight-sync/internal/scheduler"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/insighting"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/syncing"
	"github.com/vfg2006/ads-insight-sync/pkg/metrics"
	"github.com/vfg2006/ads-insight-sync/pkg/middleware"
)

func Healthcheck() []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(),
		},
	}
}

func Metrics() []router.Route {
	return []router.Route{
		{
			Path:    "/metrics",
			Method:  http.MethodGet,
			Handler: metrics.Handler(),
		},
	}
}

func Sync(service syncing.Syncer, trigger scheduler.FullSyncTrigger) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/sync/full",
			Method:      http.MethodPost,
			Handler:     TriggerFullSync(trigger),
			Middlewares: []func(http.Handler) http.Handler{middleware.AdminOnly()},
		},
		{
			Path:        "/v1/sync/status",
			Method:      http.MethodGet,
			Handler:     GetSyncStatus(trigger, service),
			Middlewares: []func(http.Handler) http.Handler{middleware.AdminOrSupervisor()},
		},
		{
			Path:        "/v1/owners/:owner_id/accounts/:account_id/sync",
			Method:      http.MethodPost,
			Handler:     RunAccountSync(service),
			Middlewares: []func(http.Handler) http.Handler{middleware.AllRoles()},
		},
		{
			Path:        "/v1/insights/events",
			Method:      http.MethodPost,
			Handler:     IngestInsightEvent(service),
			Middlewares: []func(http.Handler) http.Handler{middleware.AllRoles()},
		},
	}
}

func Snapshots(service insighting.SnapshotReader) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/owners/:owner_id/accounts/:account_id/snapshots",
			Method:      http.MethodGet,
			Handler:     GetAccountSnapshots(service),
			Middlewares: []func(http.Handler) http.Handler{middleware.AllRoles()},
		},
	}
}
