// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a seat booking is successfully
// confirmed.  It carries enough context for downstream consumers to log,
// notify or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID     uint64 `json:"booking_id"`
	Reference     string `json:"reference"`
	UserID        uint64 `json:"user_id"`
	StudentID     string `json:"student_id"`
	ScheduleID    uint64 `json:"schedule_id"`
	RouteName     string `json:"route_name"`
	BusNumber     string `json:"bus_number"`
	SeatNumber    int    `json:"seat_number"`
	DepartureDate string `json:"departure_date"`
	DepartureTime string `json:"departure_time"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a student releases a seat.
// Admin-initiated cancellations (schedule deletion) are not published
// individually; the deletion event in the activity log covers them.
type BookingCancelledEvent struct {
	BookingID   uint64 `json:"booking_id"`
	Reference   string `json:"reference"`
	UserID      uint64 `json:"user_id"`
	ScheduleID  uint64 `json:"schedule_id"`
	SeatNumber  int    `json:"seat_number"`
	CancelledAt string `json:"cancelled_at"`
}
