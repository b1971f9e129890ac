package handler

import (
	"context"      // detached context for best-effort event publishing
	"database/sql" // sentinel errors returned from repository
	"errors"       // errors.Is comparisons
	"log"          // best-effort publish failures
	"net/http"     // HTTP status codes
	"time"         // timestamps in events

	"github.com/google/uuid"      // booking references
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/campus-bus-reservation/internal/config"
	"github.com/iliyamo/campus-bus-reservation/internal/model"
	"github.com/iliyamo/campus-bus-reservation/internal/queue"
	"github.com/iliyamo/campus-bus-reservation/internal/repository"
	queue_publisher "github.com/iliyamo/campus-bus-reservation/internal/service"
	"github.com/iliyamo/campus-bus-reservation/internal/ticket"
)

// StudentHandler groups the repositories behind the student-facing
// endpoints: the dashboard, the seat picker, booking and cancellation,
// and tickets.  All methods assume JWT authentication and the STUDENT
// role were enforced by middleware; they return 401 only when the user
// ID cannot be extracted from the context.
type StudentHandler struct {
	Cfg       config.Config
	Users     *repository.UserRepo
	Schedules *repository.ScheduleRepo
	Bookings  *repository.BookingRepo
}

// NewStudentHandler constructs a StudentHandler.  All dependencies
// must be non-nil.
func NewStudentHandler(cfg config.Config, users *repository.UserRepo, schedules *repository.ScheduleRepo, bookings *repository.BookingRepo) *StudentHandler {
	if users == nil || schedules == nil || bookings == nil {
		panic("nil repository passed to NewStudentHandler")
	}
	return &StudentHandler{Cfg: cfg, Users: users, Schedules: schedules, Bookings: bookings}
}

// Dashboard handles GET /v1/dashboard: upcoming bookable schedules
// plus the caller's active bookings, both from today onward.
func (h *StudentHandler) Dashboard(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	from := today()

	schedules, err := h.Schedules.ListUpcoming(ctx, from)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load schedules failed"})
	}
	mine, err := h.Bookings.ListActiveByUser(ctx, userID, from)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"schedules":   schedules,
		"my_bookings": mine,
	})
}

// ScheduleSeats handles GET /v1/schedules/:id/seats.  It returns the
// open seat numbers ([1, capacity] minus confirmed bookings) so the
// client can render a picker.  If the caller already holds a confirmed
// booking on the schedule the response is 409: one seat per student
// per departure.
func (h *StudentHandler) ScheduleSeats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scheduleID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	ctx := c.Request().Context()

	detail, err := h.Schedules.GetDetail(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	already, err := h.Bookings.HasConfirmed(ctx, userID, scheduleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if already {
		return c.JSON(http.StatusConflict, echo.Map{"error": "already booked on this schedule"})
	}
	if detail.AvailableSeats <= 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "schedule is sold out"})
	}

	booked, err := h.Bookings.BookedSeatNumbers(ctx, scheduleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	taken := make(map[int]bool, len(booked))
	for _, n := range booked {
		taken[n] = true
	}
	available := make([]int, 0, detail.Capacity-len(booked))
	for n := 1; n <= detail.Capacity; n++ {
		if !taken[n] {
			available = append(available, n)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"schedule":        detail,
		"available_seats": available,
		"booked_seats":    booked,
	})
}

type confirmReq struct {
	ScheduleID uint64 `json:"schedule_id"`
	SeatNumber int    `json:"seat_number"`
}

// ConfirmBooking handles POST /v1/bookings.  The seat claim itself is
// one transaction inside the repository; this handler only validates
// input, maps sentinel errors to statuses and publishes the confirmed
// event after commit.
func (h *StudentHandler) ConfirmBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ScheduleID == 0 || req.SeatNumber == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule_id and seat_number are required"})
	}

	ctx := c.Request().Context()
	reference := uuid.NewString()

	b, err := h.Bookings.Confirm(ctx, userID, req.ScheduleID, req.SeatNumber, reference)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrScheduleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		case errors.Is(err, repository.ErrSeatOutOfRange):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat number out of range"})
		case errors.Is(err, repository.ErrSeatTaken):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat already booked"})
		case errors.Is(err, repository.ErrAlreadyBooked):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already booked on this schedule"})
		case errors.Is(err, repository.ErrNoSeats):
			return c.JSON(http.StatusConflict, echo.Map{"error": "no seats available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}

	h.publishConfirmed(userID, b)

	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":   b.ID,
		"reference":    b.Reference,
		"schedule_id":  b.ScheduleID,
		"seat_number":  b.SeatNumber,
		"status":       b.Status,
		"booking_time": b.BookingTime.UTC().Format(time.RFC3339),
	})
}

// publishConfirmed emits the booking.confirmed event in the background.
// The booking is already committed; a broker outage only costs the
// audit line, never the booking.
func (h *StudentHandler) publishConfirmed(userID uint64, b *model.Booking) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		ev := queue.BookingConfirmedEvent{
			BookingID:   b.ID,
			Reference:   b.Reference,
			UserID:      userID,
			ScheduleID:  b.ScheduleID,
			SeatNumber:  b.SeatNumber,
			ConfirmedAt: b.BookingTime.UTC().Format(time.RFC3339),
		}
		// Enrich with student and departure context when available.
		if u, err := h.Users.GetByID(ctx, userID); err == nil {
			ev.StudentID = u.StudentID
		}
		if d, err := h.Schedules.GetDetail(ctx, b.ScheduleID); err == nil {
			ev.RouteName = d.RouteName
			ev.BusNumber = d.BusNumber
			ev.DepartureDate = d.DepartureDate
			ev.DepartureTime = d.DepartureTime
		}
		if err := queue_publisher.PublishBookingConfirmed(ctx, ev); err != nil {
			log.Printf("booking %d: publish confirmed event failed: %v", b.ID, err)
		}
	}()
}

// CancelBooking handles DELETE /v1/bookings/:id.  Cancellation is
// rejected until the configured hold period has elapsed since booking;
// the repository enforces ownership, state and the hold window inside
// one transaction.
func (h *StudentHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	b, err := h.Bookings.Cancel(c.Request().Context(), bookingID, userID, h.Cfg.HoldPeriod)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not confirmed"})
		case errors.Is(err, repository.ErrHoldPeriod):
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "booking cannot be cancelled yet",
				"hold":  h.Cfg.HoldPeriod.String(),
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ev := queue.BookingCancelledEvent{
			BookingID:   b.ID,
			Reference:   b.Reference,
			UserID:      userID,
			ScheduleID:  b.ScheduleID,
			SeatNumber:  b.SeatNumber,
			CancelledAt: nowUTC().Format(time.RFC3339),
		}
		if err := queue_publisher.PublishBookingCancelled(ctx, ev); err != nil {
			log.Printf("booking %d: publish cancelled event failed: %v", b.ID, err)
		}
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"booking_id": b.ID,
		"status":     b.Status,
	})
}

// Ticket handles GET /v1/bookings/:id/ticket and returns the ticket as
// JSON.  A missing, foreign or cancelled booking is a plain 404.
func (h *StudentHandler) Ticket(c echo.Context) error {
	t, status, errMsg := h.loadTicket(c)
	if errMsg != "" {
		return c.JSON(status, echo.Map{"error": errMsg})
	}
	return c.JSON(http.StatusOK, t)
}

// TicketPDF handles GET /v1/bookings/:id/ticket.pdf and streams the
// printable rendition of the same ticket.
func (h *StudentHandler) TicketPDF(c echo.Context) error {
	t, status, errMsg := h.loadTicket(c)
	if errMsg != "" {
		return c.JSON(status, echo.Map{"error": errMsg})
	}
	pdfBytes, filename, err := ticket.BuildPDF(t)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "render ticket failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "application/pdf", pdfBytes)
}

// loadTicket resolves the :id parameter and fetches the caller's
// ticket.  On failure it returns the HTTP status and message to send.
func (h *StudentHandler) loadTicket(c echo.Context) (repository.TicketDetail, int, string) {
	userID, err := getUserID(c)
	if err != nil {
		return repository.TicketDetail{}, http.StatusUnauthorized, "unauthorized"
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return repository.TicketDetail{}, http.StatusBadRequest, "invalid booking id"
	}
	t, err := h.Bookings.Ticket(c.Request().Context(), bookingID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.TicketDetail{}, http.StatusNotFound, "ticket not found"
		}
		return repository.TicketDetail{}, http.StatusInternalServerError, "database error"
	}
	return t, http.StatusOK, ""
}
