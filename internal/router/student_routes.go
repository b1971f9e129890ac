package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-bus-reservation/internal/handler"
	"github.com/iliyamo/campus-bus-reservation/internal/middleware"
)

// RegisterStudent registers student-scoped endpoints under /v1.  All
// routes require a valid JWT and the STUDENT role.  Students can view
// the dashboard, inspect open seats on a schedule, book and cancel
// seats and fetch their tickets.  Extra middleware (rate limiting,
// response caching for the read endpoints) is supplied by the caller
// so the wiring stays in one place.
func RegisterStudent(e *echo.Echo, h *handler.StudentHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("STUDENT"),
	}
	mw = append(mw, extra...)
	g := e.Group("/v1", mw...)

	g.GET("/dashboard", h.Dashboard)
	g.GET("/schedules/:id/seats", h.ScheduleSeats)
	g.POST("/bookings", h.ConfirmBooking)
	g.DELETE("/bookings/:id", h.CancelBooking)
	g.GET("/bookings/:id/ticket", h.Ticket)
	g.GET("/bookings/:id/ticket.pdf", h.TicketPDF)
}
