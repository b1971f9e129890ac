package model

import "time"

// Booking statuses stored in bookings.status.
const (
    BookingConfirmed = "confirmed"
    BookingCancelled = "cancelled"
)

// Booking is a student's claim on one seat of one schedule, stored in the
// `bookings` table.
//
// Invariants: at most one confirmed booking per (schedule, seat) pair and
// at most one confirmed booking per (user, schedule) pair.  Both are
// guarded inside the booking transaction.
//
// Fields:
//  ID          – primary key identifier.
//  Reference   – opaque UUID printed on tickets.
//  UserID      – student who booked.
//  ScheduleID  – departure being booked.
//  SeatNumber  – seat in [1, bus capacity].
//  Status      – "confirmed" or "cancelled".
//  BookingTime – when the seat was claimed; cancellation is rejected
//                until the configured hold period has elapsed.
type Booking struct {
    ID          uint64    // bookings.id
    Reference   string    // bookings.reference
    UserID      uint64    // bookings.user_id
    ScheduleID  uint64    // bookings.schedule_id
    SeatNumber  int       // bookings.seat_number
    Status      string    // bookings.status
    BookingTime time.Time // bookings.booking_time
}
