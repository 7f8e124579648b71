// Package handler contains the HTTP handlers of the front server.
package handler

import (
	"net/http"
	"strings"

	deliverycontext "etuition/internal/delivery/context"
	"etuition/internal/delivery/http/response"
	"etuition/internal/delivery/http/view"
	"etuition/internal/domain/entity"
	domainerrors "etuition/internal/domain/errors"
	"etuition/internal/infra/apiclient"
	"etuition/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}

// Favicon answers browsers that ignore the layout's empty icon link.
func Favicon(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// newPage prefers the session the guard decided on over a fresh snapshot.
func newPage(c echo.Context, store usecase.SessionStore, title string) view.Page {
	session, ok := deliverycontext.GetSession(c)
	if !ok {
		session = store.Current()
	}
	page := view.Page{Title: title, Session: session}
	if role, ok := deliverycontext.GetRole(c); ok {
		page.Role = role.Value
	}

	return page
}

// renderForm re-renders a form with the user-facing message of an AppError.
// Other errors go to the error handler.
func renderForm(c echo.Context, name string, page view.Page, err error) error {
	appErr, ok := asAppError(err)
	if !ok {
		return err
	}
	page.Error = appErr.Message()
	if details := appErr.Details(); appErr.ErrorCode() == domainerrors.ErrValidationFailed.ErrorCode() && details != "" {
		page.Error += ": " + details
	}

	return c.Render(appErr.HTTPCode(), name, page)
}

func asAppError(err error) (domainerrors.AppError, bool) {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}

	return nil, false
}

// backendError maps a failed backend call to an AppError. Rejected
// credentials pass through so the error handler can follow the forced logout.
func backendError(err error) error {
	var authErr *domainerrors.AuthorizationError
	if errors.As(err, &authErr) {
		return err
	}

	var respErr *apiclient.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return errors.WithStack(domainerrors.ErrNotFound.WithDetails(err.Error()))
	}

	return errors.WithStack(domainerrors.ErrBackendUnavailable.WithDetails(err.Error()))
}

// safeFrom accepts only local paths as a post-login destination.
func safeFrom(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return ""
	}

	return from
}

func signedInSettled(s entity.Session) bool {
	return s.SignedIn() && !s.IsLoading
}

func signedOutSettled(s entity.Session) bool {
	return !s.SignedIn() && !s.IsLoading
}
