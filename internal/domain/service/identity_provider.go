// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import (
	"context"

	"etuition/internal/domain/entity"
)

// IdentityObserver receives every identity change, including the initial state.
// A nil identity means signed out.
type IdentityObserver func(identity *entity.Identity)

// IdentityProvider abstracts the external authentication service.
// Operations only initiate state changes; the authoritative identity is the one
// delivered to observers.
type IdentityProvider interface {
	// CreateAccount registers a new email/password account and signs it in.
	CreateAccount(ctx context.Context, email, password string) (*entity.Identity, error)

	// SignIn signs in with existing email/password credentials.
	SignIn(ctx context.Context, email, password string) (*entity.Identity, error)

	// SignInWithSocial completes a provider-hosted sign-in with the credential it returned.
	SignInWithSocial(ctx context.Context, cred entity.SocialCredential) (*entity.Identity, error)

	// SignOut invalidates the current session.
	SignOut(ctx context.Context) error

	// UpdateProfile changes display metadata of the signed-in identity.
	UpdateProfile(ctx context.Context, update entity.ProfileUpdate) error

	// Subscribe registers an observer. The observer is called with the current
	// state before Subscribe returns and again on every change.
	Subscribe(observer IdentityObserver) (unsubscribe func())
}
