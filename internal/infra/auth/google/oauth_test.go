package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"etuition/config"
	"etuition/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testOAuthConfig() *config.GoogleOAuthConfig {
	return &config.GoogleOAuthConfig{
		ClientID:     "test_client_id",
		ClientSecret: "test_secret",
		RedirectURI:  "http://localhost:8080/auth/google/callback",
		Scopes:       "openid email profile",
	}
}

func TestOAuthService_BuildAuthorizationURL(t *testing.T) {
	svc := newOAuthService(testOAuthConfig(), oauth2.Endpoint{
		AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	})

	authURL, state := svc.BuildAuthorizationURL()
	require.NotEmpty(t, state)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	query := parsed.Query()

	assert.Equal(t, "accounts.google.com", parsed.Host)
	assert.Equal(t, "test_client_id", query.Get("client_id"))
	assert.Equal(t, "http://localhost:8080/auth/google/callback", query.Get("redirect_uri"))
	assert.Equal(t, "openid email profile", query.Get("scope"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, state, query.Get("state"))
}

func TestOAuthService_ValidateState(t *testing.T) {
	svc := newOAuthService(testOAuthConfig(), oauth2.Endpoint{})

	_, state := svc.BuildAuthorizationURL()

	assert.True(t, svc.ValidateState(state))
	assert.False(t, svc.ValidateState(state), "state is single use")
	assert.False(t, svc.ValidateState("unknown"))
}

func TestOAuthService_ValidateState_Expired(t *testing.T) {
	svc := newOAuthService(testOAuthConfig(), oauth2.Endpoint{})
	_, state := svc.BuildAuthorizationURL()

	svc.now = func() time.Time { return time.Now().Add(stateTTL + time.Minute) }

	assert.False(t, svc.ValidateState(state))
}

func TestOAuthService_ExchangeCode(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.PostForm.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"google-access","token_type":"Bearer","expires_in":3600,"id_token":"google-id-token"}`))
	}))
	defer tokenServer.Close()

	svc := newOAuthService(testOAuthConfig(), oauth2.Endpoint{
		AuthURL:  tokenServer.URL + "/auth",
		TokenURL: tokenServer.URL + "/token",
	})

	cred, err := svc.ExchangeCode(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, entity.ProviderTypeGoogle, cred.Provider)
	assert.Equal(t, "google-id-token", cred.IDToken)
	assert.Equal(t, "google-access", cred.AccessToken)
}

func TestOAuthService_ExchangeCode_NoIDToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"google-access","token_type":"Bearer"}`))
	}))
	defer tokenServer.Close()

	svc := newOAuthService(testOAuthConfig(), oauth2.Endpoint{TokenURL: tokenServer.URL})

	_, err := svc.ExchangeCode(context.Background(), "auth-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no id_token")
}

func TestOAuthService_GetProvider(t *testing.T) {
	svc := NewOAuthService(&config.Config{GoogleOAuth: testOAuthConfig()})

	assert.Equal(t, entity.ProviderTypeGoogle, svc.GetProvider())
}
