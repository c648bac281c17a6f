package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the authenticated identity attached to each request.
// Tokens are issued by the identity provider in front of this service.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
