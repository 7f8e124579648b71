package handler

import (
	"net/http"
	"net/url"

	"etuition/internal/domain/entity"
	"etuition/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// NavigationHandler serves the history actions of the terminal views.
type NavigationHandler struct {
	navigator service.Navigator
}

// NewNavigationHandler is the constructor for NavigationHandler, injected by Fx.
func NewNavigationHandler(navigator service.Navigator) *NavigationHandler {
	return &NavigationHandler{navigator: navigator}
}

// Back pops the history and redirects to the previous location. At the first
// entry it stays in place.
func (h *NavigationHandler) Back(c echo.Context) error {
	h.navigator.Back()
	current := h.navigator.Current()

	target := current.Path
	if from := current.State[entity.StateKeyFrom]; from != "" {
		target += "?" + url.Values{entity.StateKeyFrom: {from}}.Encode()
	}

	return c.Redirect(http.StatusSeeOther, target)
}
