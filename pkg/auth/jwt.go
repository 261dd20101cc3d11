// Package auth verifies bearer tokens issued by the identity provider and
// resolves them to an actor. Token issuance and authorization policy live
// outside this service; handlers only need to know who is acting.
package auth

import (
	"time"

	"github.com/freshstock/freshstock-backend/pkg/actor"
	"github.com/freshstock/freshstock-backend/pkg/config"
	"github.com/freshstock/freshstock-backend/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Manager handles JWT verification
type Manager struct {
	config *config.JWTConfig
}

// NewManager creates a new JWT manager
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{config: cfg}
}

// Verify parses and validates an access token and returns the acting user.
func (m *Manager) Verify(tokenString string) (*actor.Actor, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.TokenInvalid()
		}
		return []byte(m.config.Secret), nil
	}, jwt.WithIssuer(m.config.Issuer), jwt.WithValidMethods([]string{"HS256"}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.TokenExpired()
		}
		return nil, errors.TokenInvalid()
	}

	if !token.Valid {
		return nil, errors.TokenInvalid()
	}

	return &actor.Actor{
		ID:    claims.UserID,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

// Issue generates a signed access token for the given actor. Only used by
// test fixtures and local tooling; production tokens come from the identity
// provider.
func (m *Manager) Issue(a *actor.Actor) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   a.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		UserID: a.ID,
		Email:  a.Email,
		Name:   a.Name,
		Role:   a.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.Secret))
}
