package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"identity": map[string]any{
			"provider": "memory",
			"firebase": map[string]any{
				"apiKey":          "",
				"credentialsPath": "",
			},
		},
		"backend": map[string]any{
			"baseUrl": "",
		},
		"notFound": map[string]any{
			"countdown": "5s",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "IDENTITY_PROVIDER", want: "identity.provider"},
		{envKey: "IDENTITY_FIREBASE_APIKEY", want: "identity.firebase.apiKey"},
		{envKey: "IDENTITY_FIREBASE_CREDENTIALSPATH", want: "identity.firebase.credentialsPath"},
		{envKey: "BACKEND_BASEURL", want: "backend.baseUrl"},
		{envKey: "NOTFOUND_COUNTDOWN", want: "notFound.countdown"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalizeEnvKey(tt.envKey, existing))
		})
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, "/login", cfg.Routes.Login)
	assert.Equal(t, "/register", cfg.Routes.Register)
	assert.Equal(t, "/", cfg.Routes.Home)
	assert.Equal(t, 5*time.Second, cfg.NotFound.Countdown)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "unknown", cfg.Role.Fallback)
	assert.Equal(t, IdentityProviderMemory, cfg.Identity.Provider)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing backend",
			mutate:  func(c *Config) { c.Backend.BaseURL = "" },
			wantErr: "backend.baseUrl is required",
		},
		{
			name: "firebase without api key",
			mutate: func(c *Config) {
				c.Identity.Provider = IdentityProviderFirebase
				c.Identity.Firebase = &FirebaseConfig{}
			},
			wantErr: "identity.firebase.apiKey is required",
		},
		{
			name: "memory without secret",
			mutate: func(c *Config) {
				c.Identity.Memory.SecretKey = ""
			},
			wantErr: "identity.memory.secretKey is required",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Identity.Provider = "ldap" },
			wantErr: "unknown identity provider: ldap",
		},
		{
			name:   "valid memory",
			mutate: func(c *Config) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Backend.BaseURL = "http://backend.test"
			cfg.Identity.Memory = &MemoryConfig{SecretKey: "secret"}
			cfg.ApplyDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)

				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
