package middleware

import (
	"net/http"

	"etuition/internal/domain/entity"
	"etuition/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// NavigationMiddleware mirrors page visits into the navigator history.
type NavigationMiddleware struct {
	navigator service.Navigator
}

// NewNavigationMiddleware is the constructor for NavigationMiddleware.
func NewNavigationMiddleware(navigator service.Navigator) *NavigationMiddleware {
	return &NavigationMiddleware{navigator: navigator}
}

// Track records a GET of a page as a navigation. A "from" query parameter
// becomes the navigation state.
func (m *NavigationMiddleware) Track(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method == http.MethodGet {
			var state map[string]string
			if from := c.QueryParam(entity.StateKeyFrom); from != "" {
				state = map[string]string{entity.StateKeyFrom: from}
			}
			m.navigator.Navigate(c.Request().URL.Path, state)
		}

		return next(c)
	}
}
