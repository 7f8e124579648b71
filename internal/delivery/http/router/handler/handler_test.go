package handler

import (
	"net/http"
	"testing"

	"etuition/internal/domain/entity"
	domainerrors "etuition/internal/domain/errors"
	"etuition/internal/infra/apiclient"
	"etuition/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeFrom(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "/dashboard/student", want: "/dashboard/student"},
		{in: "/dashboard?tab=1", want: "/dashboard?tab=1"},
		{in: "", want: ""},
		{in: "dashboard", want: ""},
		{in: "//evil.example.com", want: ""},
		{in: "/\\evil.example.com", want: ""},
		{in: "https://evil.example.com", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, safeFrom(tt.in))
		})
	}
}

func TestNewSessionView(t *testing.T) {
	session := entity.Session{Identity: &entity.Identity{
		UID:          "u1",
		Email:        "sam@example.com",
		DisplayName:  "Sam",
		AccessToken:  "access",
		RefreshToken: "refresh",
		Provider:     entity.ProviderTypePassword,
	}}
	role := usecase.RoleState{Value: entity.RoleUnknown, Err: errors.New("backend down")}

	v := newSessionView(session, role)

	assert.True(t, v.SignedIn)
	require.NotNil(t, v.Identity)
	assert.Equal(t, "sam@example.com", v.Identity.Email)
	assert.Equal(t, "password", v.Identity.Provider)
	assert.Equal(t, "unknown", v.Role.Value)
	assert.Equal(t, "backend down", v.Role.Error)

	v = newSessionView(entity.Session{IsLoading: true}, usecase.RoleState{Value: entity.RoleUnknown})
	assert.False(t, v.SignedIn)
	assert.True(t, v.IsLoading)
	assert.Nil(t, v.Identity)
	assert.Empty(t, v.Role.Error)
}

func TestBackendError(t *testing.T) {
	authErr := domainerrors.NewAuthorizationError(http.StatusUnauthorized, errors.New("rejected"))
	assert.Same(t, authErr, backendError(authErr))

	notFound := backendError(&apiclient.ResponseError{StatusCode: http.StatusNotFound})
	appErr, ok := asAppError(notFound)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPCode())

	down := backendError(errors.New("dial tcp: refused"))
	appErr, ok = asAppError(down)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPCode())
	assert.Contains(t, appErr.Details(), "dial tcp")
}
