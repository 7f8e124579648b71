package usecase

import (
	"context"

	"etuition/internal/domain/entity"
)

// RoleState is the role of the current identity as last resolved.
type RoleState struct {
	Value     entity.Role
	IsLoading bool
	// Err is the last lookup failure; Value holds the fallback role then.
	Err error
}

// RoleResolver derives the role of the signed-in identity from the backend.
type RoleResolver interface {
	// ResolveRole returns the cached state and starts a lookup when needed.
	ResolveRole(ctx context.Context) RoleState

	// AwaitRole blocks until the lookup for the current identity has settled.
	AwaitRole(ctx context.Context) (RoleState, error)

	// Refresh drops the cached role of the current identity and looks it up again.
	Refresh(ctx context.Context) RoleState

	Close() error
}
