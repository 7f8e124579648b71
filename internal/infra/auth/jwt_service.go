// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"etuition/config"
	"etuition/internal/domain/service"
)

const (
	defaultAccessTTL = time.Hour
	tokenTypeAccess  = "access"
	tokenIssuer      = "etuition"
)

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	secret    []byte        // Secret key for signing access tokens.
	accessTTL time.Duration // Time-to-live for access tokens.
	now       func() time.Time
}

// NewJWTService is the constructor for jwtService, configured from identity.memory.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.Identity.Memory == nil || cfg.Identity.Memory.SecretKey == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	ttl := cfg.Identity.Memory.TokenTTL
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}

	return &jwtService{
		secret:    []byte(cfg.Identity.Memory.SecretKey),
		accessTTL: ttl,
		now:       time.Now,
	}, nil
}

// GenerateToken creates a signed HS256 access token for the subject.
func (s *jwtService) GenerateToken(uid, email string) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.accessTTL)

	claims := service.Claims{
		Email: email,
		Type:  tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to sign token")
	}

	return token, expiresAt, nil
}

// ValidateToken checks signature, expiry and token type.
func (s *jwtService) ValidateToken(tokenString string) (*service.Claims, error) {
	claims := &service.Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse token")
	}

	if claims.Type != tokenTypeAccess {
		return nil, errors.Errorf("unexpected token type: %s", claims.Type)
	}

	return claims, nil
}
