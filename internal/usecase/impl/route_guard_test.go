package impl

import (
	"testing"

	"etuition/internal/domain/entity"
	"etuition/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func TestDecideIdentity(t *testing.T) {
	identity := &entity.Identity{UID: "u1", Email: "a@example.com"}
	location := entity.Location{Path: "/dashboard/student"}

	tests := []struct {
		name    string
		session entity.Session
		want    entity.Decision
	}{
		{
			name:    "loading",
			session: entity.Session{IsLoading: true},
			want:    entity.Decision{Kind: entity.DecisionLoading},
		},
		{
			name:    "loading with identity",
			session: entity.Session{Identity: identity, IsLoading: true},
			want:    entity.Decision{Kind: entity.DecisionLoading},
		},
		{
			name:    "signed in",
			session: entity.Session{Identity: identity},
			want:    entity.Decision{Kind: entity.DecisionRender},
		},
		{
			name:    "signed out redirects with the attempted location",
			session: entity.Session{},
			want: entity.Decision{
				Kind:   entity.DecisionRedirect,
				Target: "/register",
				State:  map[string]string{entity.StateKeyFrom: "/dashboard/student"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideIdentity(tt.session, location, "/register"))
		})
	}
}

func TestDecideRole(t *testing.T) {
	signedIn := entity.Session{Identity: &entity.Identity{UID: "u1", Email: "a@example.com"}}
	location := entity.Location{Path: "/dashboard/admin"}

	tests := []struct {
		name     string
		session  entity.Session
		role     usecase.RoleState
		required entity.Role
		want     entity.DecisionKind
	}{
		{
			name:     "session loading",
			session:  entity.Session{IsLoading: true},
			role:     usecase.RoleState{Value: entity.RoleUnknown},
			required: entity.RoleAdmin,
			want:     entity.DecisionLoading,
		},
		{
			name:     "role pending",
			session:  signedIn,
			role:     usecase.RoleState{Value: entity.RoleUnknown, IsLoading: true},
			required: entity.RoleAdmin,
			want:     entity.DecisionLoading,
		},
		{
			name:     "role matches ignoring case",
			session:  signedIn,
			role:     usecase.RoleState{Value: entity.Role("Admin")},
			required: entity.RoleAdmin,
			want:     entity.DecisionRender,
		},
		{
			name:     "role mismatch is forbidden",
			session:  signedIn,
			role:     usecase.RoleState{Value: entity.RoleStudent},
			required: entity.RoleAdmin,
			want:     entity.DecisionForbidden,
		},
		{
			name:     "fallback after failed lookup is forbidden",
			session:  signedIn,
			role:     usecase.RoleState{Value: entity.RoleUnknown},
			required: entity.RoleStudent,
			want:     entity.DecisionForbidden,
		},
		{
			name:     "signed out redirects",
			session:  entity.Session{},
			role:     usecase.RoleState{Value: entity.RoleUnknown},
			required: entity.RoleAdmin,
			want:     entity.DecisionRedirect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecideRole(tt.session, tt.role, tt.required, location, "/login")
			assert.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestDecideRole_RedirectMatchesIdentityGuard(t *testing.T) {
	location := entity.Location{Path: "/dashboard/admin"}

	got := DecideRole(entity.Session{}, usecase.RoleState{Value: entity.RoleUnknown}, entity.RoleAdmin, location, "/login")

	assert.Equal(t, DecideIdentity(entity.Session{}, location, "/login"), got)
}
