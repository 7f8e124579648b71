package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"etuition/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))

	signature := base64.RawURLEncoding.EncodeToString([]byte("signature"))

	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "." + signature
}

func validClaims() map[string]any {
	return map[string]any{
		"iss":            "https://accounts.google.com",
		"sub":            "google-123",
		"aud":            "test_client_id",
		"exp":            time.Now().Add(time.Hour).Unix(),
		"iat":            time.Now().Unix(),
		"email":          "test@example.com",
		"email_verified": true,
		"name":           "Test User",
		"picture":        "https://example.com/p.png",
	}
}

func newVerifier() *idTokenVerifier {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewIDTokenVerifier("test_client_id", logger).(*idTokenVerifier)
}

func TestIDTokenVerifier_VerifyIDToken(t *testing.T) {
	user, err := newVerifier().VerifyIDToken(context.Background(), fakeIDToken(t, validClaims()))

	require.NoError(t, err)
	assert.Equal(t, "google-123", user.ID)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, "Test User", user.Name)
	assert.Equal(t, "https://example.com/p.png", user.AvatarURL)
	assert.Equal(t, entity.ProviderTypeGoogle, user.Provider)
}

func TestIDTokenVerifier_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c map[string]any)
		want   string
	}{
		{name: "issuer", mutate: func(c map[string]any) { c["iss"] = "evil.com" }, want: "invalid issuer"},
		{name: "audience", mutate: func(c map[string]any) { c["aud"] = "other" }, want: "invalid audience"},
		{name: "expired", mutate: func(c map[string]any) { c["exp"] = time.Now().Add(-time.Hour).Unix() }, want: "token expired"},
		{name: "unverified", mutate: func(c map[string]any) { c["email_verified"] = false }, want: "email not verified"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims()
			tt.mutate(claims)

			user, err := newVerifier().VerifyIDToken(context.Background(), fakeIDToken(t, claims))
			assert.Nil(t, user)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIDTokenVerifier_InvalidJWT(t *testing.T) {
	user, err := newVerifier().VerifyIDToken(context.Background(), "invalid_token_format")

	assert.Nil(t, user)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JWT format")
}

func TestIDTokenVerifier_MissingExpiry(t *testing.T) {
	claims := validClaims()
	delete(claims, "exp")

	user, err := newVerifier().VerifyIDToken(context.Background(), fakeIDToken(t, claims))

	assert.Nil(t, user)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}
