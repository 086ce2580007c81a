package metaclient

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	metadomain "github.com/vfg2006/ads-insight-sync/infrastructure/integrator/meta/domain"
)

// ParseErrorResponse tenta parsear um erro da API do Meta
func ParseErrorResponse(body []byte) (*metadomain.ErrorResponse, error) {
	var errorResp metadomain.ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil {
		return nil, err
	}
	return &errorResp, nil
}

// HandleResponse lê o corpo e classifica respostas de erro em ErrRateLimited,
// ErrInvalidCredential, ErrTransient ou erro genérico.
func HandleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler resposta: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	errorResp, parseErr := ParseErrorResponse(body)

	if resp.StatusCode == http.StatusTooManyRequests || (parseErr == nil && errorResp.IsRateLimited()) {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRateLimited, resp.StatusCode, errorMessage(errorResp, body))
	}

	if (parseErr == nil && errorResp.IsTokenExpired()) || containsTokenExpirationMessage(string(body)) {
		logrus.WithField("status_code", resp.StatusCode).Warn("Token expirado ou inválido detectado pela API Meta")
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredential, errorMessage(errorResp, body))
	}

	if resp.StatusCode >= http.StatusInternalServerError || (parseErr == nil && errorResp.IsTransient()) {
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransient, resp.StatusCode, errorMessage(errorResp, body))
	}

	return nil, fmt.Errorf("erro na resposta da API. Status: %d, Corpo: %s", resp.StatusCode, errorMessage(errorResp, body))
}

func errorMessage(errorResp *metadomain.ErrorResponse, body []byte) string {
	if errorResp != nil && errorResp.Error.Message != "" {
		return fmt.Sprintf("%s (code %d)", errorResp.Error.Message, errorResp.Error.Code)
	}
	return string(body)
}

// containsTokenExpirationMessage verifica se a mensagem contém indicação de token expirado
func containsTokenExpirationMessage(message string) bool {
	return strings.Contains(message, "Error validating access token") ||
		strings.Contains(message, "Session has expired") ||
		strings.Contains(message, "The session has been invalidated")
}
