package router

// This file registers the transport-office routes.  Admin auth is
// separate from student auth (own table, own uniqueness rules), and
// every mutating route carries a per-capability permission check on
// top of the ADMIN role.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-bus-reservation/internal/handler"
	"github.com/iliyamo/campus-bus-reservation/internal/middleware"
	"github.com/iliyamo/campus-bus-reservation/internal/repository"
)

// RegisterAdminAuth registers the unauthenticated admin auth routes
// plus the authenticated self-inspection endpoint.
func RegisterAdminAuth(e *echo.Echo, a *handler.AdminAuthHandler, jwtSecret string) {
	g := e.Group("/v1/admin/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)
	auth.GET("/permissions", a.Permissions)
}

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.  All
// routes require a valid JWT and the ADMIN role; mutating routes also
// require the matching capability from admin_permissions.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, admins *repository.AdminRepo, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// Read endpoints: the overview and the schedule/route listings are
	// open to any admin; the full booking list needs the view
	// capability because it exposes student contact details.
	g.GET("/overview", h.Overview)
	g.GET("/routes", h.ListRoutes)
	g.GET("/schedules", h.ListSchedules)
	g.GET("/bookings", h.AllBookings,
		middleware.RequirePermission(admins, middleware.PermViewAllBookings))

	// Schedule CRUD, one capability per verb.
	g.POST("/schedules", h.CreateSchedule,
		middleware.RequirePermission(admins, middleware.PermCreateSchedules))
	g.PUT("/schedules/:id", h.EditSchedule,
		middleware.RequirePermission(admins, middleware.PermEditSchedules))
	g.DELETE("/schedules/:id", h.DeleteSchedule,
		middleware.RequirePermission(admins, middleware.PermDeleteSchedules))
}
