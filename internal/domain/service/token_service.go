package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the custom claims of issued access tokens.
type Claims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues and validates bearer tokens for identities managed in-process.
type TokenService interface {
	// GenerateToken creates an access token for the subject.
	GenerateToken(uid, email string) (token string, expiresAt time.Time, err error)

	// ValidateToken checks the validity of a token string.
	ValidateToken(tokenString string) (*Claims, error)
}
