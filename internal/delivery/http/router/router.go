// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"etuition/config"
	"etuition/internal/delivery/http/middleware"
	"etuition/internal/delivery/http/router/handler"
	"etuition/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	Config               *config.Config
	AuthHandler          *handler.AuthHandler
	DashboardHandler     *handler.DashboardHandler
	HomeHandler          *handler.HomeHandler
	NavigationHandler    *handler.NavigationHandler
	SessionHandler       *handler.SessionHandler
	GuardMiddleware      *middleware.GuardMiddleware
	NavigationMiddleware *middleware.NavigationMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	routes            config.RoutesConfig
	authHandler       *handler.AuthHandler
	dashboardHandler  *handler.DashboardHandler
	homeHandler       *handler.HomeHandler
	navigationHandler *handler.NavigationHandler
	sessionHandler    *handler.SessionHandler
	guard             *middleware.GuardMiddleware
	navigation        *middleware.NavigationMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		routes:            params.Config.Routes,
		authHandler:       params.AuthHandler,
		dashboardHandler:  params.DashboardHandler,
		homeHandler:       params.HomeHandler,
		navigationHandler: params.NavigationHandler,
		sessionHandler:    params.SessionHandler,
		guard:             params.GuardMiddleware,
		navigation:        params.NavigationMiddleware,
	}
}

// RegisterRoutes sets up all the routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)
	e.GET("/favicon.ico", handler.Favicon)

	// History actions are not pages themselves
	e.GET(middleware.BackPath, r.navigationHandler.Back)

	track := r.navigation.Track

	// Public pages
	e.GET(r.routes.Home, r.homeHandler.Home, track)
	e.GET(r.routes.Login, r.authHandler.ShowLogin, track)
	e.POST(r.routes.Login, r.authHandler.Login)
	e.GET(r.routes.Register, r.authHandler.ShowRegister, track)
	e.POST(r.routes.Register, r.authHandler.Register)
	e.POST("/logout", r.authHandler.Logout)

	// Google sign-in
	authGroup := e.Group("/auth/google")
	{
		authGroup.GET("", r.authHandler.GoogleLogin)
		authGroup.GET("/callback", r.authHandler.GoogleCallback)
	}

	// Dashboard pages require a signed-in identity, role dashboards a role
	dashboardGroup := e.Group("/dashboard", track)
	{
		dashboardGroup.GET("", r.dashboardHandler.Dashboard, r.guard.RequireIdentity)
		dashboardGroup.GET("/profile", r.dashboardHandler.Profile, r.guard.RequireIdentity)
		dashboardGroup.POST("/profile", r.dashboardHandler.UpdateProfile, r.guard.RequireIdentity)
		dashboardGroup.GET("/student", r.dashboardHandler.Student, r.guard.RequireRole(entity.RoleStudent))
		dashboardGroup.POST("/payment/:applicationId", r.dashboardHandler.Pay, r.guard.RequireRole(entity.RoleStudent))
		dashboardGroup.GET("/tutor", r.dashboardHandler.Tutor, r.guard.RequireRole(entity.RoleTutor))
		dashboardGroup.GET("/admin", r.dashboardHandler.Admin, r.guard.RequireRole(entity.RoleAdmin))
	}

	// Session state for scripts
	apiGroup := e.Group("/api")
	{
		apiGroup.GET("/session", r.sessionHandler.Session)
		apiGroup.POST("/role/refresh", r.sessionHandler.RefreshRole)
	}
}
