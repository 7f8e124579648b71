package service

import (
	"context"

	"etuition/internal/domain/entity"
)

// OAuthUser represents user information from OAuth providers
type OAuthUser struct {
	ID            string              // Provider-specific user ID (e.g., Google's 'sub' claim)
	Email         string              // User's email address
	Name          string              // User's display name
	Provider      entity.ProviderType // The OAuth provider
	AvatarURL     string              // URL to user's profile picture
	EmailVerified bool                // Whether the email is verified by the provider
}

// OAuthService drives the provider-hosted sign-in flow.
type OAuthService interface {
	// BuildAuthorizationURL returns the provider URL to redirect the browser to,
	// and the state value it carries.
	BuildAuthorizationURL() (authURL string, state string)

	// ValidateState consumes a state value issued by BuildAuthorizationURL.
	ValidateState(state string) bool

	// ExchangeCode exchanges the authorization code for a credential.
	ExchangeCode(ctx context.Context, code string) (entity.SocialCredential, error)

	// GetProvider returns the OAuth provider type
	GetProvider() entity.ProviderType
}

// IDTokenVerifier verifies OpenID Connect ID tokens issued by a social provider.
type IDTokenVerifier interface {
	// VerifyIDToken verifies an ID token and returns the user it identifies
	VerifyIDToken(ctx context.Context, idToken string) (*OAuthUser, error)

	// GetProvider returns the OAuth provider type
	GetProvider() entity.ProviderType
}
