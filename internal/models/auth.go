package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload presented by operators.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	SchoolID string   `json:"school_id,omitempty"`
	jwt.RegisteredClaims
}
