package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the JWT payload carried by the admin console token.
// ColegioID scopes every request to the owning institution.
type JWTClaims struct {
	ColegioID string `json:"colegioId"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
