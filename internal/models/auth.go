package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens. The numeric user id
// travels in the registered subject claim.
type JWTClaims struct {
	UserID int64    `json:"-"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}
