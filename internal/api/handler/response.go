package handler

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-insight-sync/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/syncing"
	"github.com/vfg2006/ads-insight-sync/pkg/apiErrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Warn("Erro ao escrever resposta")
	}
}

// writeServiceError traduz erros dos casos de uso para o código da API.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingAccount),
		errors.Is(err, domain.ErrMissingWindow),
		errors.Is(err, domain.ErrMissingEventData):
		apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrInvalidEventLevel),
		errors.Is(err, domain.ErrInvalidEventDate):
		apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrAccountNotFound):
		apiErrors.WriteError(w, apiErrors.ErrAccountNotFound, err.Error(), nil)
	case errors.Is(err, syncing.ErrAccountInactive):
		apiErrors.WriteError(w, apiErrors.ErrAccountInactive, err.Error(), nil)
	case errors.Is(err, metaclient.ErrInvalidCredential),
		errors.Is(err, metaclient.ErrRateLimited),
		errors.Is(err, metaclient.ErrTransient):
		apiErrors.WriteError(w, apiErrors.ErrExternalService, err.Error(), nil)
	default:
		apiErrors.WriteError(w, apiErrors.ErrInternalServer, err.Error(), nil)
	}
}
