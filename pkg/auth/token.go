package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken is returned when the bearer token is not a JWT.
var ErrOpaqueToken = errors.New("token is not a jwt")

// PeekClaims decodes the token payload without checking its signature.
func PeekClaims(token string) (*TokenClaims, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return nil, ErrOpaqueToken
	}
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// IsExpired reports whether token carries an exp claim in the past. Opaque or
// undecodable tokens are never considered expired here; the backend decides.
func IsExpired(token string, now time.Time) bool {
	claims, err := PeekClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(now)
}
