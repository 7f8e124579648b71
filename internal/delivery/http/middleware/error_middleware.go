package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"etuition/config"
	deliverycontext "etuition/internal/delivery/context"
	"etuition/internal/delivery/http/response"
	"etuition/internal/delivery/http/view"
	domainerrors "etuition/internal/domain/errors"
	"etuition/internal/domain/service"
	"etuition/internal/usecase"
	"etuition/internal/usecase/impl"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// APIPrefix marks the routes answered with JSON errors.
const APIPrefix = "/api/"

// ErrorMiddleware error handling middleware
type ErrorMiddleware struct {
	store     usecase.SessionStore
	navigator service.Navigator
	countdown *impl.CountdownRunner
	home      string
	logger    *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(
	store usecase.SessionStore,
	navigator service.Navigator,
	countdown *impl.CountdownRunner,
	cfg *config.Config,
	logger *slog.Logger,
) *ErrorMiddleware {
	return &ErrorMiddleware{
		store:     store,
		navigator: navigator,
		countdown: countdown,
		home:      cfg.Routes.Home,
		logger:    logger,
	}
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		m.loggerFor(c).Warn("Error after response was committed", slog.Any("error", err))

		return
	}

	if strings.HasPrefix(c.Request().URL.Path, APIPrefix) {
		m.handleJSON(err, c)

		return
	}

	if renderErr := m.handlePage(err, c); renderErr != nil {
		m.loggerFor(c).Error("Failed to render error page",
			slog.Any("error", renderErr),
			slog.Any("cause", err),
		)
		_ = c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func (m *ErrorMiddleware) handlePage(err error, c echo.Context) error {
	// The forced logout already navigated to the login route.
	var authErr *domainerrors.AuthorizationError
	if errors.As(err, &authErr) {
		return c.Redirect(http.StatusSeeOther, m.navigator.Current().Path)
	}

	page := view.Page{Session: m.store.Current()}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code == http.StatusNotFound {
		if !isPageRequest(c.Request()) {
			return c.NoContent(http.StatusNotFound)
		}

		return m.notFound(c, page)
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPCode() >= http.StatusInternalServerError {
			m.loggerFor(c).Error("Request failed", slog.Any("error", err))
		}
		page.Title = http.StatusText(appErr.HTTPCode())
		page.Error = appErr.Message()

		return c.Render(appErr.HTTPCode(), view.PageError, page)
	}

	if httpErr != nil {
		page.Title = http.StatusText(httpErr.Code)
		page.Error = fmt.Sprint(httpErr.Message)

		return c.Render(httpErr.Code, view.PageError, page)
	}

	m.loggerFor(c).Error("Unhandled error",
		slog.Any("error", err),
		slog.String("path", c.Request().URL.Path),
		slog.String("method", c.Request().Method),
	)
	page.Title = "Error"
	page.Error = domainerrors.ErrInternalError.Message()

	return c.Render(http.StatusInternalServerError, view.PageError, page)
}

// notFound mounts a countdown on the unmatched location. It navigates home
// once it elapses unless the navigator moves elsewhere first.
func (m *ErrorMiddleware) notFound(c echo.Context, page view.Page) error {
	m.navigator.Navigate(c.Request().URL.Path, nil)
	m.countdown.Mount()

	page.Title = "Not found"
	page.Data = view.NotFoundData{Seconds: m.countdown.Seconds(), Home: m.home}

	return c.Render(http.StatusNotFound, view.PageNotFound, page)
}

func (m *ErrorMiddleware) handleJSON(err error, c echo.Context) {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		_ = response.Error(c, appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), appErr.Details())

		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := fmt.Sprint(httpErr.Message)
		_ = response.Error(c, httpErr.Code, "HTTP_ERROR", message, message)

		return
	}

	m.loggerFor(c).Error("Unhandled error",
		slog.Any("error", err),
		slog.String("path", c.Request().URL.Path),
		slog.String("method", c.Request().Method),
	)
	_ = response.Error(c, http.StatusInternalServerError,
		domainerrors.ErrInternalError.ErrorCode(), domainerrors.ErrInternalError.Message(), err.Error())
}

func (m *ErrorMiddleware) loggerFor(c echo.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger)
}

// isPageRequest reports whether the browser is loading a document, as opposed
// to a subresource such as /favicon.ico. Only page loads move the history.
func isPageRequest(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}

	return strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
