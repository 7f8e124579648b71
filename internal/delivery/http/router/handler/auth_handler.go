package handler

import (
	"log/slog"
	"net/http"

	"etuition/config"
	deliverycontext "etuition/internal/delivery/context"
	"etuition/internal/delivery/http/view"
	"etuition/internal/domain/entity"
	domainerrors "etuition/internal/domain/errors"
	"etuition/internal/domain/service"
	"etuition/internal/infra/backend"
	"etuition/internal/infra/metrics"
	"etuition/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// fromCookie carries the attempted location across the Google redirect.
const fromCookie = "etuition_from"

// LoginInput is the login form.
type LoginInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	From     string `form:"from"`
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Name     string `form:"name" validate:"required,max=80"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Phone    string `form:"phone" validate:"omitempty,max=32"`
	PhotoURL string `form:"photoURL" validate:"omitempty,url"`
	Role     string `form:"role" validate:"required,oneof=student tutor"`
	From     string `form:"from"`
}

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	Store     usecase.SessionStore
	Roles     usecase.RoleResolver
	OAuth     service.OAuthService
	API       *backend.API
	Navigator service.Navigator
	Config    *config.Config
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// AuthHandler serves the sign-in, registration and sign-out flows.
type AuthHandler struct {
	store     usecase.SessionStore
	roles     usecase.RoleResolver
	oauth     service.OAuthService
	api       *backend.API
	navigator service.Navigator
	cfg       *config.Config
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		store:     params.Store,
		roles:     params.Roles,
		oauth:     params.OAuth,
		api:       params.API,
		navigator: params.Navigator,
		cfg:       params.Config,
		metrics:   params.Metrics,
		logger:    params.Logger,
	}
}

// ShowLogin renders the login form.
func (h *AuthHandler) ShowLogin(c echo.Context) error {
	page := newPage(c, h.store, "Log in")
	page.From = safeFrom(c.QueryParam("from"))

	return c.Render(http.StatusOK, view.PageLogin, page)
}

// Login signs in with email and password and continues to the attempted
// location, or to the dashboard of the resolved role.
func (h *AuthHandler) Login(c echo.Context) error {
	page := newPage(c, h.store, "Log in")

	var input LoginInput
	if err := c.Bind(&input); err != nil {
		return renderForm(c, view.PageLogin, page, domainerrors.ErrValidationFailed)
	}
	page.From = safeFrom(input.From)
	if err := c.Validate(&input); err != nil {
		return renderForm(c, view.PageLogin, page, err)
	}

	_, err := h.store.SignInWithEmail(c.Request().Context(), input.Email, input.Password)
	h.count("sign_in", err)
	if err != nil {
		return renderForm(c, view.PageLogin, page, err)
	}

	return h.continueSignedIn(c, input.From)
}

// ShowRegister renders the registration form.
func (h *AuthHandler) ShowRegister(c echo.Context) error {
	page := newPage(c, h.store, "Register")
	page.From = safeFrom(c.QueryParam("from"))

	return c.Render(http.StatusOK, view.PageRegister, page)
}

// Register creates the account, sets its display name and photo, stores the
// user record with the chosen role at the backend and signs in.
func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	page := newPage(c, h.store, "Register")

	var input RegisterInput
	if err := c.Bind(&input); err != nil {
		return renderForm(c, view.PageRegister, page, domainerrors.ErrValidationFailed)
	}
	page.From = safeFrom(input.From)
	if err := c.Validate(&input); err != nil {
		return renderForm(c, view.PageRegister, page, err)
	}

	identity, err := h.store.RegisterWithEmail(ctx, input.Email, input.Password)
	h.count("register", err)
	if err != nil {
		return renderForm(c, view.PageRegister, page, err)
	}
	if _, err := h.store.Wait(ctx, signedInSettled); err != nil {
		return errors.WithStack(err)
	}

	update := entity.ProfileUpdate{DisplayName: &input.Name}
	if input.PhotoURL != "" {
		update.PhotoURL = &input.PhotoURL
	}
	err = h.store.UpdateProfile(ctx, update)
	h.count("update_profile", err)
	if err != nil {
		h.loggerFor(c).Warn("Failed to set profile after registration", slog.Any("error", err))
	}

	if _, err := h.api.SaveUser(ctx, backend.UserRecord{
		Name:        input.Name,
		Email:       identity.Email,
		Phone:       input.Phone,
		Role:        input.Role,
		FirebaseUID: identity.UID,
		PhotoURL:    input.PhotoURL,
	}); err != nil {
		return backendError(err)
	}

	// The eager lookup may have run before the record existed.
	h.roles.Refresh(ctx)

	return h.continueSignedIn(c, input.From)
}

// Logout signs out and returns home.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.store.SignOut(ctx)
	h.count("sign_out", err)
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := h.store.Wait(ctx, signedOutSettled); err != nil {
		return errors.WithStack(err)
	}

	h.navigator.Navigate(h.cfg.Routes.Home, nil)

	return c.Redirect(http.StatusSeeOther, h.cfg.Routes.Home)
}

// GoogleLogin starts the Google authorization-code flow.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	if !h.socialEnabled() {
		return domainerrors.ErrSocialSignInUnavailable
	}

	authURL, _ := h.oauth.BuildAuthorizationURL()
	if from := safeFrom(c.QueryParam("from")); from != "" {
		c.SetCookie(&http.Cookie{
			Name:     fromCookie,
			Value:    from,
			Path:     "/auth/google",
			MaxAge:   600,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	return c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// GoogleCallback completes the Google flow. A first sign-in stores the user
// record with the student role.
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	if !h.socialEnabled() {
		return domainerrors.ErrSocialSignInUnavailable
	}
	ctx := c.Request().Context()
	page := newPage(c, h.store, "Log in")

	if reason := c.QueryParam("error"); reason != "" {
		err := domainerrors.NewIdentityError(domainerrors.KindSocialSignInFailed, errors.New(reason))
		h.count("social_sign_in", err)

		return renderForm(c, view.PageLogin, page, err)
	}
	if !h.oauth.ValidateState(c.QueryParam("state")) {
		return domainerrors.ErrOAuthStateInvalid
	}

	cred, err := h.oauth.ExchangeCode(ctx, c.QueryParam("code"))
	if err != nil {
		err = domainerrors.NewIdentityError(domainerrors.KindSocialSignInFailed, err)
		h.count("social_sign_in", err)

		return renderForm(c, view.PageLogin, page, err)
	}

	identity, err := h.store.SignInWithSocialProvider(ctx, cred)
	h.count("social_sign_in", err)
	if err != nil {
		return renderForm(c, view.PageLogin, page, err)
	}
	if _, err := h.store.Wait(ctx, signedInSettled); err != nil {
		return errors.WithStack(err)
	}

	if _, err := h.api.SaveUser(ctx, backend.UserRecord{
		Name:        identity.DisplayName,
		Email:       identity.Email,
		Role:        entity.RoleStudent.String(),
		FirebaseUID: identity.UID,
		PhotoURL:    identity.PhotoURL,
	}); err != nil {
		return backendError(err)
	}
	h.roles.Refresh(ctx)

	from := ""
	if cookie, err := c.Cookie(fromCookie); err == nil {
		from = cookie.Value
		c.SetCookie(&http.Cookie{Name: fromCookie, Path: "/auth/google", MaxAge: -1})
	}

	return h.continueSignedIn(c, from)
}

// continueSignedIn waits for the observer to report the identity before
// deciding where to go, so the guards of the next page see it.
func (h *AuthHandler) continueSignedIn(c echo.Context, from string) error {
	ctx := c.Request().Context()
	if _, err := h.store.Wait(ctx, signedInSettled); err != nil {
		return errors.WithStack(err)
	}

	target := safeFrom(from)
	if target == "" {
		role, err := h.roles.AwaitRole(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		target = role.Value.DashboardPath()
	}

	h.navigator.Navigate(target, nil)

	return c.Redirect(http.StatusSeeOther, target)
}

func (h *AuthHandler) socialEnabled() bool {
	return h.oauth != nil && h.cfg.GoogleOAuth != nil && h.cfg.GoogleOAuth.ClientID != ""
}

func (h *AuthHandler) count(operation string, err error) {
	if h.metrics == nil {
		return
	}
	result := "success"
	if err != nil {
		result = string(domainerrors.KindUnknown)
		var identityErr *domainerrors.IdentityError
		if errors.As(err, &identityErr) {
			result = string(identityErr.Kind)
		}
	}
	h.metrics.IdentityOperations.WithLabelValues(operation, result).Inc()
}

func (h *AuthHandler) loggerFor(c echo.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger)
}

