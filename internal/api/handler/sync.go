package handler

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	"github.com/vfg2006/ads-insight-sync/internal/scheduler"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/syncing"
	"github.com/vfg2006/ads-insight-sync/pkg/apiErrors"
	"github.com/vfg2006/ads-insight-sync/pkg/log"
	"github.com/vfg2006/ads-insight-sync/pkg/middleware"
	"github.com/vfg2006/ads-insight-sync/pkg/utils"
)

const defaultRecentRuns = 10

type syncWindowRequest struct {
	Since string `json:"since"`
	Until string `json:"until"`
}

// TriggerFullSync dispara a sincronização completa em segundo plano.
func TriggerFullSync(trigger scheduler.FullSyncTrigger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		if !trigger.TriggerManualSync() {
			logger.Info("sync: sincronização completa já em andamento")
			apiErrors.WriteError(w, apiErrors.ErrSyncInProgress, "Sincronização completa já em andamento", nil)
			return
		}

		logger.Info("sync: sincronização completa disparada manualmente")
		writeJSON(w, http.StatusAccepted, map[string]any{
			"message": "Sincronização completa iniciada",
		})
	})
}

// RunAccountSync executa a sincronização histórica de uma conta e devolve o
// log da execução.
func RunAccountSync(service syncing.Syncer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())
		params := httprouter.ParamsFromContext(r.Context())
		ownerID := params.ByName("owner_id")
		accountID := params.ByName("account_id")

		if !middleware.CanAccessOwner(r.Context(), ownerID) {
			apiErrors.WriteError(w, apiErrors.ErrInsufficientPrivilege, "Você não tem permissão para acessar este recurso", nil)
			return
		}

		var body syncWindowRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Corpo da requisição inválido", nil)
			return
		}

		since, err := utils.ParseDate(body.Since)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "since deve estar no formato YYYY-MM-DD", nil)
			return
		}
		until, err := utils.ParseDate(body.Until)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "until deve estar no formato YYYY-MM-DD", nil)
			return
		}

		logger.WithFields(log.Fields{
			"owner_id":   ownerID,
			"account_id": accountID,
			"since":      body.Since,
			"until":      body.Until,
		}).Info("sync: sincronização histórica solicitada")

		syncLog, err := service.RunHistoricalSync(r.Context(), domain.SyncRequest{
			OwnerID:   ownerID,
			AccountID: accountID,
			Since:     since,
			Until:     until,
		})
		if err != nil {
			logger.WithFields(log.Fields{
				"owner_id":   ownerID,
				"account_id": accountID,
				"error":      err.Error(),
			}).Warn("sync: sincronização histórica recusada")
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, syncLog)
	})
}

// IngestInsightEvent grava um insight avulso pelo caminho otimista.
func IngestInsightEvent(service syncing.Syncer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event domain.InsightEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Corpo da requisição inválido", nil)
			return
		}

		if !middleware.CanAccessOwner(r.Context(), event.OwnerID) {
			apiErrors.WriteError(w, apiErrors.ErrInsufficientPrivilege, "Você não tem permissão para acessar este recurso", nil)
			return
		}

		result, err := service.IngestEvent(r.Context(), &event)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		if result.Failed > 0 {
			details := make([]string, 0, len(result.Errors))
			for _, recordErr := range result.Errors {
				details = append(details, recordErr.Error())
			}
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Evento não gravado", details)
			return
		}

		writeJSON(w, http.StatusOK, result)
	})
}

// GetSyncStatus devolve o estado do agendador e as últimas execuções.
func GetSyncStatus(trigger scheduler.FullSyncTrigger, service syncing.Syncer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := defaultRecentRuns
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "limit deve ser um inteiro positivo", nil)
				return
			}
			limit = parsed
		}

		runs, err := service.RecentRuns(r.Context(), limit)
		if err != nil {
			log.ForContext(r.Context()).WithError(err).Error("sync: erro ao listar execuções")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao listar execuções", nil)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"scheduler":   trigger.GetStatus(),
			"recent_runs": runs,
		})
	})
}
