package handler

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-bus-reservation/internal/model"
	"github.com/iliyamo/campus-bus-reservation/internal/repository"
)

// AdminHandler groups the repositories behind the transport-office
// endpoints: the overview, schedule CRUD and the full booking listing.
// Per-capability authorization happens in middleware.RequirePermission;
// handlers only implement the operations.
type AdminHandler struct {
	Schedules *repository.ScheduleRepo
	Buses     *repository.BusRepo
	Routes    *repository.RouteRepo
	Bookings  *repository.BookingRepo
	Admins    *repository.AdminRepo
}

// NewAdminHandler constructs an AdminHandler.  All dependencies must
// be non-nil.
func NewAdminHandler(schedules *repository.ScheduleRepo, buses *repository.BusRepo, routes *repository.RouteRepo, bookings *repository.BookingRepo, admins *repository.AdminRepo) *AdminHandler {
	if schedules == nil || buses == nil || routes == nil || bookings == nil || admins == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Schedules: schedules, Buses: buses, Routes: routes, Bookings: bookings, Admins: admins}
}

// Overview handles GET /v1/admin/overview: upcoming schedules with
// their confirmed-booking counts.
func (h *AdminHandler) Overview(c echo.Context) error {
	rows, err := h.Schedules.Overview(c.Request().Context(), today())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load overview failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"schedules": rows})
}

// ListRoutes handles GET /v1/admin/routes so the schedule form can
// offer the seeded routes.
func (h *AdminHandler) ListRoutes(c echo.Context) error {
	routes, err := h.Routes.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load routes failed"})
	}
	out := make([]echo.Map, 0, len(routes))
	for _, r := range routes {
		out = append(out, echo.Map{
			"id":           r.ID,
			"route_name":   r.RouteName,
			"start_point":  r.StartPoint,
			"end_point":    r.EndPoint,
			"duration_min": r.DurationMin,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"routes": out})
}

// ListSchedules handles GET /v1/admin/schedules: every schedule, past
// and future, for the editing screen.
func (h *AdminHandler) ListSchedules(c echo.Context) error {
	rows, err := h.Schedules.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load schedules failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"schedules": rows})
}

type scheduleReq struct {
	BusNumber     string `json:"bus_number"`
	DepartureDate string `json:"departure_date"` // YYYY-MM-DD
	DepartureTime string `json:"departure_time"` // HH:MM or HH:MM:SS
	TotalSeats    int    `json:"total_seats"`
}

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)
)

// checkScheduleReq validates the shared create/edit payload and
// resolves the bus.  On failure it returns the HTTP status and message
// to send; errMsg is empty on success.
func (h *AdminHandler) checkScheduleReq(c echo.Context, req *scheduleReq) (bus model.Bus, status int, errMsg string) {
	req.BusNumber = strings.TrimSpace(req.BusNumber)
	req.DepartureDate = strings.TrimSpace(req.DepartureDate)
	req.DepartureTime = strings.TrimSpace(req.DepartureTime)
	if req.BusNumber == "" || req.DepartureDate == "" || req.DepartureTime == "" || req.TotalSeats == 0 {
		return bus, http.StatusBadRequest, "bus_number, departure_date, departure_time and total_seats are required"
	}
	if !datePattern.MatchString(req.DepartureDate) {
		return bus, http.StatusBadRequest, "departure_date must be YYYY-MM-DD"
	}
	if !timePattern.MatchString(req.DepartureTime) {
		return bus, http.StatusBadRequest, "departure_time must be HH:MM"
	}
	if req.TotalSeats < 1 {
		return bus, http.StatusBadRequest, "total_seats must be positive"
	}
	bus, err := h.Buses.GetByNumber(c.Request().Context(), req.BusNumber)
	if err != nil {
		if errors.Is(err, repository.ErrBusNotFound) {
			return bus, http.StatusNotFound, "bus not found"
		}
		return bus, http.StatusInternalServerError, "database error"
	}
	if req.TotalSeats > bus.Capacity {
		return bus, http.StatusBadRequest, fmt.Sprintf("total_seats exceeds bus capacity (%d)", bus.Capacity)
	}
	return bus, http.StatusOK, ""
}

// CreateSchedule handles POST /v1/admin/schedules.  The bus is looked
// up by fleet number and the seat total is capped at its capacity.
func (h *AdminHandler) CreateSchedule(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req scheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	bus, status, errMsg := h.checkScheduleReq(c, &req)
	if errMsg != "" {
		return c.JSON(status, echo.Map{"error": errMsg})
	}

	ctx := c.Request().Context()
	s := model.Schedule{
		BusID:          bus.ID,
		DepartureDate:  req.DepartureDate,
		DepartureTime:  req.DepartureTime,
		AvailableSeats: req.TotalSeats,
		CreatedByAdmin: adminID,
	}
	if err := h.Schedules.Create(ctx, &s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create schedule failed"})
	}
	h.Admins.LogActivity(ctx, adminID, "create", "schedules", s.ID,
		fmt.Sprintf("created schedule for bus %s on %s %s", bus.BusNumber, s.DepartureDate, s.DepartureTime))

	return c.JSON(http.StatusCreated, echo.Map{
		"schedule_id":     s.ID,
		"bus_number":      bus.BusNumber,
		"departure_date":  s.DepartureDate,
		"departure_time":  s.DepartureTime,
		"available_seats": s.AvailableSeats,
	})
}

// EditSchedule handles PUT /v1/admin/schedules/:id.  The repository
// recomputes available seats from the confirmed-booking count under
// lock, so the handler only validates input and maps errors.
func (h *AdminHandler) EditSchedule(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scheduleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	var req scheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	bus, status, errMsg := h.checkScheduleReq(c, &req)
	if errMsg != "" {
		return c.JSON(status, echo.Map{"error": errMsg})
	}

	ctx := c.Request().Context()
	available, err := h.Schedules.Edit(ctx, scheduleID, bus.ID, req.DepartureDate, req.DepartureTime, req.TotalSeats, adminID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrScheduleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "total_seats is below the confirmed bookings on this schedule"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "edit schedule failed"})
	}
	h.Admins.LogActivity(ctx, adminID, "update", "schedules", scheduleID,
		fmt.Sprintf("edited schedule: bus %s, %s %s, %d seats", bus.BusNumber, req.DepartureDate, req.DepartureTime, req.TotalSeats))

	return c.JSON(http.StatusOK, echo.Map{
		"schedule_id":     scheduleID,
		"bus_number":      bus.BusNumber,
		"departure_date":  req.DepartureDate,
		"departure_time":  req.DepartureTime,
		"available_seats": available,
	})
}

// DeleteSchedule handles DELETE /v1/admin/schedules/:id.  Confirmed
// bookings on the schedule are cancelled in the same transaction; the
// response reports how many.
func (h *AdminHandler) DeleteSchedule(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scheduleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}

	ctx := c.Request().Context()
	cancelled, err := h.Schedules.Delete(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete schedule failed"})
	}
	h.Admins.LogActivity(ctx, adminID, "delete", "schedules", scheduleID,
		fmt.Sprintf("deleted schedule, %d bookings cancelled", cancelled))

	return c.JSON(http.StatusOK, echo.Map{
		"schedule_id":        scheduleID,
		"cancelled_bookings": cancelled,
	})
}

// AllBookings handles GET /v1/admin/bookings: every confirmed booking
// with student and departure context, sorted by departure.
func (h *AdminHandler) AllBookings(c echo.Context) error {
	rows, err := h.Bookings.ListAllConfirmed(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": rows})
}
