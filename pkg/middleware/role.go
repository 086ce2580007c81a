package middleware

import (
	"context"
	"net/http"
	"slices"

	"github.com/vfg2006/ads-insight-sync/pkg/apiErrors"
	"github.com/vfg2006/ads-insight-sync/pkg/log"
)

const (
	RoleAdmin      = 1
	RoleSupervisor = 2
	RoleClient     = 3 // vinculado a um único dono (owner_id no token)
)

var roleNames = map[int]string{
	RoleAdmin:      "admin",
	RoleSupervisor: "supervisor",
	RoleClient:     "client",
}

func RoleName(role int) string {
	if name, ok := roleNames[role]; ok {
		return name
	}
	return "unknown"
}

// RoleMiddleware restringe a rota aos roles informados.
func RoleMiddleware(allowedRoles []int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userClaims, ok := ClaimsFromContext(r.Context())
			if !ok {
				log.ForContext(r.Context()).Warn("Tentativa de acesso sem autenticação")
				apiErrors.WriteError(w, apiErrors.ErrInvalidToken, "Usuário não autenticado", nil)
				return
			}

			if !slices.Contains(allowedRoles, userClaims.UserRoleID) {
				log.ForContext(r.Context()).WithFields(log.Fields{
					"user_id":   userClaims.UserID,
					"user_role": RoleName(userClaims.UserRoleID),
					"path":      r.URL.Path,
				}).Warn("Acesso negado pelo perfil do usuário")
				apiErrors.WriteError(w, apiErrors.ErrInsufficientPrivilege, "Você não tem permissão para acessar este recurso", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func AdminOnly() func(http.Handler) http.Handler {
	return RoleMiddleware([]int{RoleAdmin})
}

func AdminOrSupervisor() func(http.Handler) http.Handler {
	return RoleMiddleware([]int{RoleAdmin, RoleSupervisor})
}

func AllRoles() func(http.Handler) http.Handler {
	return RoleMiddleware([]int{RoleAdmin, RoleSupervisor, RoleClient})
}

// CanAccessOwner libera administradores para qualquer dono; os demais só
// enxergam o dono presente no token. Supervisor sem owner_id não enxerga nenhum.
func CanAccessOwner(ctx context.Context, ownerID string) bool {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return false
	}
	if claims.UserRoleID == RoleAdmin {
		return true
	}
	return claims.OwnerID != "" && claims.OwnerID == ownerID
}
