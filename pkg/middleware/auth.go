package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vfg2006/ads-insight-sync/internal/domain"
	"github.com/vfg2006/ads-insight-sync/internal/usecases/authenticating"
	"github.com/vfg2006/ads-insight-sync/pkg/apiErrors"
	"github.com/vfg2006/ads-insight-sync/pkg/log"
)

type contextKey string

const (
	ContextKeyUser contextKey = "user"
)

var errMissingBearer = errors.New("token Bearer ausente")

// Rotas abertas: sondas do orquestrador e o scrape do Prometheus.
var publicPaths = map[string]struct{}{
	"/healthcheck": {},
	"/metrics":     {},
}

func isPublic(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	_, ok := publicPaths[r.URL.Path]
	return ok
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return "", errMissingBearer
	}
	return strings.TrimSpace(token), nil
}

// AuthMiddleware valida o JWT e guarda as claims no contexto da requisição.
func AuthMiddleware(authService authenticating.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r) {
				next.ServeHTTP(w, r)
				return
			}

			token, err := bearerToken(r)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Cabeçalho Authorization com token Bearer é obrigatório", nil)
				return
			}

			claims, err := authService.ValidateToken(token)
			if err != nil {
				code := apiErrors.ErrInvalidToken
				if errors.Is(err, authenticating.ErrExpiredToken) {
					code = apiErrors.ErrExpiredToken
				}
				log.ForContext(r.Context()).WithFields(log.Fields{
					"path":  r.URL.Path,
					"error": err.Error(),
				}).Debug("Token rejeitado")
				apiErrors.WriteError(w, code, "Token inválido", nil)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*domain.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyUser).(*domain.Claims)
	return claims, ok && claims != nil
}
