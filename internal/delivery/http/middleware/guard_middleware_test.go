package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"etuition/config"
	deliverycontext "etuition/internal/delivery/context"
	"etuition/internal/delivery/http/view"
	"etuition/internal/domain/entity"
	"etuition/internal/infra/metrics"
	"etuition/internal/infra/navigation"
	"etuition/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	usecase.SessionStore
	session entity.Session
}

func (s *stubStore) Current() entity.Session {
	return s.session
}

type stubRoles struct {
	usecase.RoleResolver
	state usecase.RoleState
}

func (s *stubRoles) ResolveRole(context.Context) usecase.RoleState {
	return s.state
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Backend.BaseURL = "http://backend.test"
	cfg.ApplyDefaults()

	return cfg
}

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	renderer, err := view.New()
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = renderer

	return e
}

func signedIn(email string) entity.Session {
	return entity.Session{Identity: &entity.Identity{UID: "uid", Email: email, AccessToken: "token"}}
}

// serve sends the request the way a browser loads a page.
func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	return serveAccept(e, method, target, "text/html,application/xhtml+xml,*/*;q=0.8")
}

func serveAccept(e *echo.Echo, method, target, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(echo.HeaderAccept, accept)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "protected content")
}

type guardFixture struct {
	e       *echo.Echo
	history *navigation.History
	metrics *metrics.Metrics
}

func newGuardFixture(t *testing.T, session entity.Session, role usecase.RoleState) guardFixture {
	t.Helper()
	f := guardFixture{
		e:       newEcho(t),
		history: navigation.NewHistory("/"),
		metrics: metrics.New(),
	}
	guard := NewGuardMiddleware(
		&stubStore{session: session},
		&stubRoles{state: role},
		f.history,
		testConfig(),
		f.metrics,
		discardLogger(),
	)

	f.e.GET("/dashboard/student", okHandler, guard.RequireIdentity)
	f.e.GET("/dashboard/admin", okHandler, guard.RequireRole(entity.RoleAdmin))
	f.e.GET("/dashboard/whoami", func(c echo.Context) error {
		session, ok := deliverycontext.GetSession(c)
		require.True(t, ok)
		role, ok := deliverycontext.GetRole(c)
		require.True(t, ok)

		return c.String(http.StatusOK, session.Email()+" "+role.Value.String())
	}, guard.RequireRole(entity.RoleAdmin))

	return f
}

func TestGuard_UnauthenticatedRedirectsToRegister(t *testing.T) {
	f := newGuardFixture(t, entity.Session{}, usecase.RoleState{Value: entity.RoleUnknown})

	rec := serve(f.e, http.MethodGet, "/dashboard/student")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/register?from=%2Fdashboard%2Fstudent", rec.Header().Get(echo.HeaderLocation))

	current := f.history.Current()
	assert.Equal(t, "/register", current.Path)
	assert.Equal(t, map[string]string{entity.StateKeyFrom: "/dashboard/student"}, current.State)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.GuardDecisions.WithLabelValues("identity", "redirect")), 0)
}

func TestGuard_SessionLoadingRendersLoadingView(t *testing.T) {
	f := newGuardFixture(t, entity.Session{IsLoading: true}, usecase.RoleState{})

	rec := serve(f.e, http.MethodGet, "/dashboard/student")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Refresh"))
	assert.Contains(t, rec.Body.String(), "Loading...")
	assert.NotContains(t, rec.Body.String(), "protected content")
	assert.Equal(t, "/", f.history.Current().Path)
}

func TestGuard_SignedInRendersChildren(t *testing.T) {
	f := newGuardFixture(t, signedIn("student@example.com"), usecase.RoleState{Value: entity.RoleStudent})

	rec := serve(f.e, http.MethodGet, "/dashboard/student")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "protected content", rec.Body.String())
}

func TestGuard_RoleDecisions(t *testing.T) {
	tests := []struct {
		name       string
		role       usecase.RoleState
		wantStatus int
		wantBody   string
		wantKind   string
	}{
		{
			name:       "role pending",
			role:       usecase.RoleState{Value: entity.RoleUnknown, IsLoading: true},
			wantStatus: http.StatusOK,
			wantBody:   "Loading...",
			wantKind:   "loading",
		},
		{
			name:       "student on admin route",
			role:       usecase.RoleState{Value: entity.RoleStudent},
			wantStatus: http.StatusForbidden,
			wantBody:   "Access denied",
			wantKind:   "forbidden",
		},
		{
			name:       "admin regardless of casing",
			role:       usecase.RoleState{Value: entity.Role("Admin")},
			wantStatus: http.StatusOK,
			wantBody:   "protected content",
			wantKind:   "render",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGuardFixture(t, signedIn("user@example.com"), tt.role)
			f.history.Navigate("/dashboard/admin", nil)

			rec := serve(f.e, http.MethodGet, "/dashboard/admin")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.Equal(t, "/dashboard/admin", f.history.Current().Path)
			assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.GuardDecisions.WithLabelValues("role", tt.wantKind)), 0)
		})
	}
}

func TestGuard_ForbiddenViewOffersBackAndHome(t *testing.T) {
	f := newGuardFixture(t, signedIn("student@example.com"), usecase.RoleState{Value: entity.RoleStudent})

	rec := serve(f.e, http.MethodGet, "/dashboard/admin")

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/navigate/back"`)
	assert.Contains(t, rec.Body.String(), `href="/"`)
}

func TestGuard_RoleUnauthenticatedRedirects(t *testing.T) {
	f := newGuardFixture(t, entity.Session{}, usecase.RoleState{Value: entity.RoleUnknown})

	rec := serve(f.e, http.MethodGet, "/dashboard/admin")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/register?from=%2Fdashboard%2Fadmin", rec.Header().Get(echo.HeaderLocation))
}

func TestGuard_StoresDecisionInputs(t *testing.T) {
	f := newGuardFixture(t, signedIn("Admin@Example.com"), usecase.RoleState{Value: entity.RoleAdmin})

	rec := serve(f.e, http.MethodGet, "/dashboard/whoami")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin@example.com admin", rec.Body.String())
}
