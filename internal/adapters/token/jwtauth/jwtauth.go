// Package jwtauth emite y verifica tokens de sesión HS256.
package jwtauth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"vet-clinic-api/internal/ports/auth"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const defaultTTL = 24 * time.Hour

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret string) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    defaultTTL,
		now:    time.Now,
	}
}

var _ auth.TokenIssuer = (*Manager)(nil)
var _ auth.AuthVerifier = (*Manager)(nil)

func (m *Manager) Issue(claims auth.Claims) (string, error) {
	now := m.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"role":    claims.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(m.ttl).Unix(),
	})
	return tok.SignedString(m.secret)
}

func (m *Manager) Verify(_ context.Context, token string) (auth.Claims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return auth.Claims{}, ErrInvalidToken
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return auth.Claims{}, ErrInvalidToken
	}

	claims := auth.Claims{}
	if v, ok := mc["user_id"].(string); ok {
		claims.UserID = v
	}
	if v, ok := mc["email"].(string); ok {
		claims.Email = v
	}
	if v, ok := mc["role"].(string); ok {
		claims.Role = v
	}
	if claims.UserID == "" {
		return auth.Claims{}, ErrInvalidToken
	}
	return claims, nil
}
