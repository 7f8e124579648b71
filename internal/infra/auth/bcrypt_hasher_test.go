package auth

import (
	"testing"

	"etuition/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndCheck(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, hasher.Check("secret123", hash))
	assert.False(t, hasher.Check("secret124", hash))
}

func TestBcryptHasher_InvalidCostFallsBack(t *testing.T) {
	hasher := NewBcryptHasher(99).(*bcryptHasher)
	assert.Equal(t, bcrypt.DefaultCost, hasher.cost)

	cfg := &config.Config{}
	fromCfg := NewBcryptHasherFromConfig(cfg).(*bcryptHasher)
	assert.Equal(t, bcrypt.DefaultCost, fromCfg.cost)

	cfg.Identity.Memory = &config.MemoryConfig{BcryptCost: bcrypt.MinCost}
	fromCfg = NewBcryptHasherFromConfig(cfg).(*bcryptHasher)
	assert.Equal(t, bcrypt.MinCost, fromCfg.cost)
}
