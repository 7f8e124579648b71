package handler

import (
	"log/slog"
	"net/http"

	deliverycontext "etuition/internal/delivery/context"
	"etuition/internal/delivery/http/view"
	"etuition/internal/infra/backend"
	"etuition/internal/usecase"

	"github.com/labstack/echo/v4"
)

// HomeHandler serves the public landing page.
type HomeHandler struct {
	store  usecase.SessionStore
	api    *backend.API
	logger *slog.Logger
}

// NewHomeHandler is the constructor for HomeHandler, injected by Fx.
func NewHomeHandler(store usecase.SessionStore, api *backend.API, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{store: store, api: api, logger: logger}
}

// Home lists the approved tuitions. The page still renders when the backend
// is unreachable.
func (h *HomeHandler) Home(c echo.Context) error {
	page := newPage(c, h.store, "")

	posts, err := h.api.ListApprovedTuitions(c.Request().Context())
	if err != nil {
		deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).
			Warn("Failed to list approved tuitions", slog.Any("error", err))
		page.Error = "Tuitions are unavailable right now"
	}
	page.Data = posts

	return c.Render(http.StatusOK, view.PageHome, page)
}
