package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oskaz/oskaz-api/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// SessionClaims is the slice of the identity provider's session token this
// service reads. The provider owns issuance; once the signature checks out
// the claims are trusted as-is.
type SessionClaims struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	jwt.RegisteredClaims
}

// UserInfo is the profile surfaced to clients.
type UserInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ParseSessionToken validates the token signature and returns typed claims.
func ParseSessionToken(cfg config.IdentityConfig, tokenString string) (*SessionClaims, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("identity jwt secret is required")
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.JWTSecret), nil
		},
		parserOpts...,
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}

// UserInfo maps the claims onto the client-facing profile.
func (c *SessionClaims) UserInfo() UserInfo {
	return UserInfo{
		Email:     strings.TrimSpace(c.Email),
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
	}
}

// MintSessionToken issues a signed session token. Production tokens come from
// the identity provider; this exists for local development and tests.
func MintSessionToken(cfg config.IdentityConfig, now time.Time, ttl time.Duration, claims SessionClaims) (string, error) {
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("identity jwt secret is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}
