// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"
)

// ProviderType names the sign-in method that produced an identity.
type ProviderType string

const (
	// ProviderTypePassword is email and password sign-in.
	ProviderTypePassword ProviderType = "password"
	// ProviderTypeGoogle is Google social sign-in.
	ProviderTypeGoogle ProviderType = "google.com"
)

// Identity is the signed-in principal as reported by the identity provider.
// Values handed out by the session store must be treated as read-only.
type Identity struct {
	UID          string       // Stable provider-side user ID.
	Email        string       // Primary email, used to key the role lookup.
	DisplayName  string       // Display name shown in the UI.
	PhotoURL     string       // Avatar URL, may be empty.
	AccessToken  string       // Bearer credential attached to backend requests.
	RefreshToken string       // Provider refresh token, never sent to the backend.
	Provider     ProviderType // Sign-in method.
	ExpiresAt    time.Time    // Expiry of AccessToken, zero when unknown.
}

// BearerToken returns the access token, or "" for a nil identity.
func (i *Identity) BearerToken() string {
	if i == nil {
		return ""
	}

	return i.AccessToken
}

// GetUID returns the UID, or "" for a nil identity.
func (i *Identity) GetUID() string {
	if i == nil {
		return ""
	}

	return i.UID
}

// NormalizedEmail returns the lowercased, trimmed email, or "" for a nil identity.
func (i *Identity) NormalizedEmail() string {
	if i == nil {
		return ""
	}

	return NormalizeEmail(i.Email)
}

// Clone returns a copy so callers cannot mutate shared state.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i

	return &c
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfileUpdate carries a partial profile change; nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

// IsEmpty reports whether the update changes nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.DisplayName == nil && p.PhotoURL == nil
}

// SocialCredential is the result of a provider-hosted sign-in flow.
type SocialCredential struct {
	Provider    ProviderType // Which social provider issued the credential.
	IDToken     string       // OpenID Connect ID token.
	AccessToken string       // OAuth access token, optional.
}
