// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"etuition/internal/domain/entity"
)

// SessionStore owns the process-wide authentication session.
type SessionStore interface {
	// Current returns a snapshot of the session.
	Current() entity.Session

	// Watch registers fn for every session change. Watchers are called in
	// registration order, one change at a time, before Current and Wait report
	// the change. fn must not call back into the store synchronously.
	Watch(fn func(entity.Session)) (cancel func())

	// Wait blocks until cond holds for the current session or ctx is done.
	Wait(ctx context.Context, cond func(entity.Session) bool) (entity.Session, error)

	RegisterWithEmail(ctx context.Context, email, password string) (*entity.Identity, error)
	SignInWithEmail(ctx context.Context, email, password string) (*entity.Identity, error)
	SignInWithSocialProvider(ctx context.Context, cred entity.SocialCredential) (*entity.Identity, error)

	// UpdateProfile requires a signed-in identity.
	UpdateProfile(ctx context.Context, update entity.ProfileUpdate) error

	SignOut(ctx context.Context) error

	// Close releases the provider subscription.
	Close() error
}
