package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the subset of bearer token claims the client reads. The token
// is issued elsewhere; the client never verifies its signature.
type TokenClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
