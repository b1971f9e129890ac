package model

import "time"

// Schedule is one bus departure instance in the `schedules` table: a bus
// leaving on a specific date and time with a seat inventory.
//
// Invariant: AvailableSeats == bus capacity − count(confirmed bookings on
// this schedule).  Both sides of that equation are only ever changed
// inside a single transaction (see repository.BookingRepo), so the
// counter can never drift from the booking set.
//
// Fields:
//  ID             – primary key identifier.
//  BusID          – bus performing the departure.
//  DepartureDate  – calendar date of departure ("2006-01-02", UTC).
//  DepartureTime  – wall-clock departure time ("15:04:05").
//  AvailableSeats – seats still open for booking.
//  Status         – lifecycle state ("active"); past departures simply
//                   stop appearing in date-filtered listings.
//  CreatedByAdmin – admin who created the schedule.
//  UpdatedByAdmin – admin who last edited it (nullable).
type Schedule struct {
    ID             uint64    // schedules.id
    BusID          uint64    // schedules.bus_id
    DepartureDate  string    // schedules.departure_date
    DepartureTime  string    // schedules.departure_time
    AvailableSeats int       // schedules.available_seats
    Status         string    // schedules.status
    CreatedByAdmin uint64    // schedules.created_by_admin
    UpdatedByAdmin *uint64   // schedules.updated_by_admin (nullable)
    CreatedAt      time.Time // schedules.created_at
    UpdatedAt      time.Time // schedules.updated_at
}
