package service

import (
	"context"

	"etuition/internal/domain/entity"
)

// RoleFetcher looks up the role of an identity at the backend.
type RoleFetcher interface {
	// FetchRole returns the normalized role for the email.
	FetchRole(ctx context.Context, email string) (entity.Role, error)
}
