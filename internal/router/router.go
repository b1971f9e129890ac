package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-bus-reservation/internal/handler"
	"github.com/iliyamo/campus-bus-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the student auth routes and applies the
// necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Token-less operations: register, the login captcha, login itself
	// and the refresh endpoints.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.GET("/captcha", a.Captcha)
	g.POST("/login", a.Login)
	// Rotating refresh: revokes the presented token and returns a new pair.
	g.POST("/refresh", a.Refresh)
	// Access-only refresh: returns a new access token, refresh unchanged.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a refresh token in the body or a bearer token for
	// all-sessions revocation, so it does not sit behind the JWT
	// middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("STUDENT", "ADMIN"))
	auth.GET("/me", a.Me)
}
