// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"golang.org/x/crypto/bcrypt"

	"etuition/config"
	"etuition/internal/domain/service"
)

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost int
}

// NewBcryptHasher is the constructor for bcryptHasher.
// Costs outside bcrypt's accepted range fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) service.PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &bcryptHasher{cost: cost}
}

// NewBcryptHasherFromConfig reads the cost from identity.memory.
func NewBcryptHasherFromConfig(cfg *config.Config) service.PasswordHasher {
	cost := 0
	if cfg.Identity.Memory != nil {
		cost = cfg.Identity.Memory.BcryptCost
	}

	return NewBcryptHasher(cost)
}

// Hash generates a salted hash from a plaintext password using bcrypt.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)

	return string(bytes), err
}

// Check compares a plaintext password with a bcrypt hash.
func (h *bcryptHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
