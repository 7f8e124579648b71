package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"etuition/config"
	deliverycontext "etuition/internal/delivery/context"
	"etuition/internal/delivery/http/view"
	"etuition/internal/domain/entity"
	domainerrors "etuition/internal/domain/errors"
	"etuition/internal/domain/service"
	"etuition/internal/infra/metrics"
	"etuition/internal/usecase"
	"etuition/internal/usecase/impl"

	"github.com/labstack/echo/v4"
)

// BackPath is the route behind the forbidden view's "go back" action.
const BackPath = "/navigate/back"

// GuardMiddleware gates page routes on the session and the resolved role.
type GuardMiddleware struct {
	store     usecase.SessionStore
	roles     usecase.RoleResolver
	navigator service.Navigator
	routes    config.RoutesConfig
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewGuardMiddleware is the constructor for GuardMiddleware.
func NewGuardMiddleware(
	store usecase.SessionStore,
	roles usecase.RoleResolver,
	navigator service.Navigator,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *slog.Logger,
) *GuardMiddleware {
	return &GuardMiddleware{
		store:     store,
		roles:     roles,
		navigator: navigator,
		routes:    cfg.Routes,
		metrics:   m,
		logger:    logger,
	}
}

// RequireIdentity renders the route only for a signed-in session. Signed-out
// visitors are sent to the register route with the attempted path as "from".
func (m *GuardMiddleware) RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session := m.store.Current()
		decision := impl.DecideIdentity(session, location(c), m.routes.Register)

		return m.apply(c, "identity", decision, session, usecase.RoleState{}, next)
	}
}

// RequireRole renders the route only when the resolved role matches required.
// A mismatch renders the forbidden view in place.
func (m *GuardMiddleware) RequireRole(required entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := m.store.Current()
			role := m.roles.ResolveRole(c.Request().Context())
			decision := impl.DecideRole(session, role, required, location(c), m.routes.Register)

			return m.apply(c, "role", decision, session, role, next)
		}
	}
}

func (m *GuardMiddleware) apply(
	c echo.Context,
	guard string,
	decision entity.Decision,
	session entity.Session,
	role usecase.RoleState,
	next echo.HandlerFunc,
) error {
	if m.metrics != nil {
		m.metrics.GuardDecisions.WithLabelValues(guard, decision.Kind.String()).Inc()
	}

	switch decision.Kind {
	case entity.DecisionLoading:
		c.Response().Header().Set("Refresh", "1")

		return c.Render(http.StatusOK, view.PageLoading, view.Page{Session: session})

	case entity.DecisionRedirect:
		m.navigator.Navigate(decision.Target, decision.State)

		return c.Redirect(http.StatusSeeOther, redirectURL(decision))

	case entity.DecisionForbidden:
		logger := deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger)
		logger.Info("Role guard denied access",
			slog.String("path", c.Request().URL.Path),
			slog.String("role", role.Value.String()),
		)

		return c.Render(domainerrors.ErrForbidden.HTTPCode(), view.PageForbidden, view.Page{
			Title:   "Forbidden",
			Session: session,
			Role:    role.Value,
			Error:   domainerrors.ErrForbidden.Message(),
			Data:    view.ForbiddenData{Back: BackPath, Home: m.routes.Home},
		})

	default:
		deliverycontext.SetSession(c, session)
		if guard == "role" {
			deliverycontext.SetRole(c, role)
		}

		return next(c)
	}
}

func location(c echo.Context) entity.Location {
	return entity.Location{Path: c.Request().URL.Path}
}

func redirectURL(decision entity.Decision) string {
	from, ok := decision.State[entity.StateKeyFrom]
	if !ok || from == "" {
		return decision.Target
	}

	return decision.Target + "?" + url.Values{entity.StateKeyFrom: {from}}.Encode()
}
