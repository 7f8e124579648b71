package handler

import (
	"net/http"

	"etuition/internal/delivery/http/response"
	"etuition/internal/domain/entity"
	domainerrors "etuition/internal/domain/errors"
	"etuition/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// IdentityView is the JSON form of the signed-in identity. Tokens are never
// exposed.
type IdentityView struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
	Provider    string `json:"provider"`
}

// RoleView is the JSON form of usecase.RoleState.
type RoleView struct {
	Value     string `json:"value"`
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`
}

// SessionView is the JSON form of the session.
type SessionView struct {
	SignedIn  bool          `json:"signedIn"`
	IsLoading bool          `json:"isLoading"`
	Identity  *IdentityView `json:"identity,omitempty"`
	Role      RoleView      `json:"role"`
}

// SessionHandler exposes the session and role state as JSON.
type SessionHandler struct {
	store usecase.SessionStore
	roles usecase.RoleResolver
}

// NewSessionHandler is the constructor for SessionHandler, injected by Fx.
func NewSessionHandler(store usecase.SessionStore, roles usecase.RoleResolver) *SessionHandler {
	return &SessionHandler{store: store, roles: roles}
}

// Session returns the current session and role.
func (h *SessionHandler) Session(c echo.Context) error {
	role := h.roles.ResolveRole(c.Request().Context())

	return response.Success(c, http.StatusOK, newSessionView(h.store.Current(), role), "")
}

// RefreshRole drops the cached role and looks it up again. With wait=true it
// answers once the lookup has settled.
func (h *SessionHandler) RefreshRole(c echo.Context) error {
	ctx := c.Request().Context()
	session := h.store.Current()
	if !session.SignedIn() {
		return domainerrors.NewIdentityError(domainerrors.KindNotSignedIn, nil)
	}

	role := h.roles.Refresh(ctx)
	if c.QueryParam("wait") == "true" {
		var err error
		if role, err = h.roles.AwaitRole(ctx); err != nil {
			return errors.WithStack(err)
		}
	}

	return response.Success(c, http.StatusOK, newSessionView(session, role).Role, "Role refreshed")
}

func newSessionView(session entity.Session, role usecase.RoleState) SessionView {
	v := SessionView{
		SignedIn:  session.SignedIn(),
		IsLoading: session.IsLoading,
		Role: RoleView{
			Value:     role.Value.String(),
			IsLoading: role.IsLoading,
		},
	}
	if role.Err != nil {
		v.Role.Error = role.Err.Error()
	}
	if identity := session.Identity; identity != nil {
		v.Identity = &IdentityView{
			UID:         identity.UID,
			Email:       identity.Email,
			DisplayName: identity.DisplayName,
			PhotoURL:    identity.PhotoURL,
			Provider:    string(identity.Provider),
		}
	}

	return v
}
