package authenticating

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vfg2006/ads-insight-sync/internal/config"
	"github.com/vfg2006/ads-insight-sync/internal/domain"
)

const defaultTokenTTL = 24 * time.Hour

// Authenticator valida os bearer tokens HS256 emitidos pelo painel. O motor
// não guarda usuários, só confia no segredo compartilhado.
//
//go:generate mockgen -source=service.go -destination=mocks/service.go -package=mocks
type Authenticator interface {
	ValidateToken(tokenString string) (*domain.Claims, error)
	GenerateToken(claims domain.Claims) (string, error)
}

type Service struct {
	secret []byte
	now    func() time.Time
}

func NewService(cfg *config.Config) Authenticator {
	return &Service{
		secret: []byte(cfg.Auth.Secret),
		now:    time.Now,
	}
}

// GenerateToken assina as claims informadas. Sem expiração explícita o token
// vale 24 horas.
func (s *Service) GenerateToken(claims domain.Claims) (string, error) {
	if len(s.secret) == 0 {
		return "", NewAuthError(ErrInvalidToken, "AUTH_006", "segredo de autenticação não configurado")
	}

	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(s.now().Add(defaultTokenTTL))
	}
	claims.IssuedAt = jwt.NewNumericDate(s.now())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(s.secret)
}

func (s *Service) ValidateToken(tokenString string) (*domain.Claims, error) {
	if len(s.secret) == 0 {
		return nil, NewAuthError(ErrInvalidToken, "AUTH_006", "segredo de autenticação não configurado")
	}

	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewAuthError(ErrExpiredToken, "AUTH_007", err.Error())
		}
		return nil, NewAuthError(ErrInvalidToken, "AUTH_006", err.Error())
	}

	if claims, ok := token.Claims.(*domain.Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
