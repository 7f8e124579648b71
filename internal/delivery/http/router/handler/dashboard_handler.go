package handler

import (
	"log/slog"
	"net/http"

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
)

const profileUpdatedFlash = "Profile updated"

// ProfileInput is the profile settings form.
type ProfileInput struct {
	DisplayName string `form:"displayName" validate:"required,max=80"`
	PhotoURL    string `form:"photoURL" validate:"omitempty,url"`
}

// DashboardHandler serves the guarded dashboard pages.
type DashboardHandler struct {
	store     usecase.SessionStore
	roles     usecase.RoleResolver
	api       *backend.API
	navigator service.Navigator
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewDashboardHandler is the constructor for DashboardHandler, injected by Fx.
func NewDashboardHandler(
	store usecase.SessionStore,
	roles usecase.RoleResolver,
	api *backend.API,
	navigator service.Navigator,
	m *metrics.Metrics,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		store:     store,
		roles:     roles,
		api:       api,
		navigator: navigator,
		metrics:   m,
		logger:    logger,
	}
}

// Dashboard sends the visitor to the dashboard of their role.
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	role, err := h.roles.AwaitRole(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	target := role.Value.DashboardPath()
	h.navigator.Navigate(target, nil)

	return c.Redirect(http.StatusSeeOther, target)
}

// Student lists the tuition posts of the signed-in student.
func (h *DashboardHandler) Student(c echo.Context) error {
	page := newPage(c, h.store, "My tuitions")

	posts, err := h.api.TuitionPostsByEmail(c.Request().Context(), page.Session.Email())
	if err != nil {
		return backendError(err)
	}
	page.Data = posts

	return c.Render(http.StatusOK, view.PageStudentDashboard, page)
}

// Tutor lists the applications of the signed-in tutor.
func (h *DashboardHandler) Tutor(c echo.Context) error {
	page := newPage(c, h.store, "My applications")

	applications, err := h.api.TutorApplications(c.Request().Context(), page.Session.Email())
	if err != nil {
		return backendError(err)
	}
	page.Data = applications

	return c.Render(http.StatusOK, view.PageTutorDashboard, page)
}

// Admin lists every user.
func (h *DashboardHandler) Admin(c echo.Context) error {
	page := newPage(c, h.store, "User management")

	users, err := h.api.ListUsers(c.Request().Context())
	if err != nil {
		return backendError(err)
	}
	page.Data = users

	return c.Render(http.StatusOK, view.PageAdminDashboard, page)
}

// Profile renders the profile settings of the signed-in identity.
func (h *DashboardHandler) Profile(c echo.Context) error {
	page := h.profilePage(c)
	if c.QueryParam("updated") != "" {
		page.Flash = profileUpdatedFlash
	}

	return c.Render(http.StatusOK, view.PageProfile, page)
}

// UpdateProfile changes the display name and photo of the signed-in identity.
func (h *DashboardHandler) UpdateProfile(c echo.Context) error {
	page := h.profilePage(c)

	var input ProfileInput
	if err := c.Bind(&input); err != nil {
		return renderForm(c, view.PageProfile, page, domainerrors.ErrValidationFailed)
	}
	if err := c.Validate(&input); err != nil {
		return renderForm(c, view.PageProfile, page, err)
	}

	err := h.store.UpdateProfile(c.Request().Context(), entity.ProfileUpdate{
		DisplayName: &input.DisplayName,
		PhotoURL:    &input.PhotoURL,
	})
	if h.metrics != nil {
		result := "success"
		if err != nil {
			result = "error"
		}
		h.metrics.IdentityOperations.WithLabelValues("update_profile", result).Inc()
	}
	if err != nil {
		return renderForm(c, view.PageProfile, page, err)
	}

	return c.Redirect(http.StatusSeeOther, "/dashboard/profile?updated=1")
}

// Pay starts the checkout of an application and sends the browser to the
// checkout provider.
func (h *DashboardHandler) Pay(c echo.Context) error {
	ctx := c.Request().Context()

	application, err := h.api.GetApplication(ctx, c.Param("applicationId"))
	if err != nil {
		return backendError(err)
	}

	checkoutURL, err := h.api.CreateCheckoutSession(ctx, backend.CheckoutRequest{
		ExpectedSalary: application.ExpectedSalary,
		TuitionID:      application.TuitionID,
		TutorEmail:     application.TutorEmail,
		TutorName:      application.TutorName,
	})
	if err != nil {
		return backendError(err)
	}

	deliverycontext.GetLoggerOrDefault(ctx, h.logger).Info("Redirecting to checkout",
		slog.String("application_id", application.ID),
	)

	return c.Redirect(http.StatusSeeOther, checkoutURL)
}

func (h *DashboardHandler) profilePage(c echo.Context) view.Page {
	page := newPage(c, h.store, "Profile settings")
	if page.Role == "" {
		page.Role = h.roles.ResolveRole(c.Request().Context()).Value
	}

	return page
}
