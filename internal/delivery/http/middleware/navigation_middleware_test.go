package middleware

import (
	"net/http"
	"testing"

	"etuition/internal/domain/entity"
	"etuition/internal/infra/navigation"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestNavigationMiddleware_Track(t *testing.T) {
	history := navigation.NewHistory("/")
	nav := NewNavigationMiddleware(history)

	e := echo.New()
	e.GET("/login", okHandler, nav.Track)
	e.POST("/login", okHandler, nav.Track)

	serve(e, http.MethodGet, "/login?from=%2Fdashboard%2Fadmin")

	current := history.Current()
	assert.Equal(t, "/login", current.Path)
	assert.Equal(t, map[string]string{entity.StateKeyFrom: "/dashboard/admin"}, current.State)
	assert.Equal(t, 2, history.Len())

	serve(e, http.MethodPost, "/login")
	serve(e, http.MethodGet, "/login")

	assert.Equal(t, 2, history.Len())
}
