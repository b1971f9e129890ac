// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// each to the right HTTP status: validation problems become 400,
// missing rows 404, ownership violations 403 and state conflicts 409.
// Anything else is treated as a backend failure and surfaced as a
// generic 500 message.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, such as cancelling another student's
// booking. Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as shrinking a schedule below its number of
// confirmed bookings or cancelling a booking twice. Handlers translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrScheduleNotFound indicates the referenced schedule does not exist.
var ErrScheduleNotFound = errors.New("schedule not found")

// ErrBusNotFound indicates the referenced bus does not exist.
var ErrBusNotFound = errors.New("bus not found")

// ErrSeatOutOfRange is returned when the requested seat number falls
// outside [1, bus capacity]. This is a validation failure (400), not a
// conflict: the seat can never exist on this bus.
var ErrSeatOutOfRange = errors.New("seat number out of range")

// ErrSeatTaken is returned when another confirmed booking already holds
// the requested (schedule, seat) pair.
var ErrSeatTaken = errors.New("seat already booked")

// ErrAlreadyBooked is returned when the student already holds a
// confirmed booking on the schedule. One seat per student per departure.
var ErrAlreadyBooked = errors.New("already booked on this schedule")

// ErrNoSeats is returned when the schedule's available-seat counter is
// exhausted. The conditional decrement inside the booking transaction
// is the only place that detects this, so two racing requests can never
// both succeed on the last seat.
var ErrNoSeats = errors.New("no seats available")

// ErrHoldPeriod is returned when a cancellation arrives before the
// configured minimum hold period has elapsed since booking.
var ErrHoldPeriod = errors.New("booking still within hold period")
