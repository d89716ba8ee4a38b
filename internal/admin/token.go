package admin

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/taxiwatch/taxiwatch-backend/pkg/config"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
)

// Subject is the token subject for a settings-panel session.
const Subject = "settings"

// Claims are the admin token claims
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// ScopeExport allows exporting and archiving the watchlist.
const ScopeExport = "export"

// Token is an issued admin token
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
}

// TokenManager issues and validates admin tokens
type TokenManager struct {
	config *config.AdminConfig
	now    func() time.Time
}

// NewTokenManager creates a new token manager
func NewTokenManager(cfg *config.AdminConfig) *TokenManager {
	return &TokenManager{config: cfg, now: time.Now}
}

// Issue signs a new admin token
func (m *TokenManager) Issue() (*Token, error) {
	now := m.now()
	expiry := now.Add(m.config.TokenExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   Subject,
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Scope: ScopeExport,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.TokenSecret))
	if err != nil {
		return nil, err
	}

	return &Token{
		AccessToken: signed,
		ExpiresAt:   expiry,
		TokenType:   "Bearer",
	}, nil
}

// ValidateToken validates an admin token and returns its subject
func (m *TokenManager) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.TokenInvalid()
		}
		return []byte(m.config.TokenSecret), nil
	}, jwt.WithIssuer(m.config.Issuer), jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.TokenExpired()
		}
		return "", errors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Scope != ScopeExport {
		return "", errors.TokenInvalid()
	}

	return claims.Subject, nil
}
