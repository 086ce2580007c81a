package handler

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/insighting"
	"github.com/vfg2006/ads-insight-sync/pkg/apiErrors"
	"github.com/vfg2006/ads-insight-sync/pkg/log"
	"github.com/vfg2006/ads-insight-sync/pkg/middleware"
	"github.com/vfg2006/ads-insight-sync/pkg/utils"
)

func GetAccountSnapshots(service insighting.SnapshotReader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())
		params := httprouter.ParamsFromContext(r.Context())
		query := r.URL.Query()

		ownerID := params.ByName("owner_id")
		if !middleware.CanAccessOwner(r.Context(), ownerID) {
			apiErrors.WriteError(w, apiErrors.ErrInsufficientPrivilege, "Você não tem permissão para acessar este recurso", nil)
			return
		}

		since, err := utils.ParseDate(query.Get("since"))
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "since deve estar no formato YYYY-MM-DD", nil)
			return
		}
		until, err := utils.ParseDate(query.Get("until"))
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "until deve estar no formato YYYY-MM-DD", nil)
			return
		}

		archived := false
		if raw := query.Get("archived"); raw != "" {
			archived, err = strconv.ParseBool(raw)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "archived deve ser true ou false", nil)
				return
			}
		}

		report, err := service.GetSnapshots(r.Context(), domain.SnapshotQuery{
			OwnerID:   ownerID,
			AccountID: params.ByName("account_id"),
			Since:     since,
			Until:     until,
			Level:     domain.InsightLevel(query.Get("level")),
			Archived:  archived,
		})
		if err != nil {
			logger.WithFields(log.Fields{
				"owner_id":   ownerID,
				"account_id": params.ByName("account_id"),
				"error":      err.Error(),
			}).Warn("insights: erro ao ler snapshots")
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, report)
	})
}
