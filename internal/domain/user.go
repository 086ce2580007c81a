package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims carregadas no bearer token emitido pelo painel.
// OwnerID restringe o acesso de usuários que não são administradores.
type Claims struct {
	UserID     int    `json:"user_id"`
	UserName   string `json:"user_name"`
	UserRoleID int    `json:"role_id"`
	OwnerID    string `json:"owner_id,omitempty"`
	jwt.RegisteredClaims
}
