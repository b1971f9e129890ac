package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/campus-bus-reservation/internal/model"
)

// BookingRepo manages persistence for seat bookings.  Confirm and
// Cancel are the two invariant-bearing operations of the whole service:
// each one mutates the booking set and the schedule's available-seat
// counter as a single transaction, so the counter always equals
// capacity minus the confirmed bookings no matter how requests
// interleave or where a crash lands.
type BookingRepo struct {
    db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying sql.DB for callers that need to compose
// transactions across repositories.
func (r *BookingRepo) DB() *sql.DB {
    return r.db
}

// BookedSeatNumbers returns the confirmed seat numbers on a schedule in
// ascending order.  The seat-picker view subtracts these from
// [1, capacity].
func (r *BookingRepo) BookedSeatNumbers(ctx context.Context, scheduleID uint64) ([]int, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT seat_number FROM bookings WHERE schedule_id=? AND status='confirmed' ORDER BY seat_number",
        scheduleID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []int{}
    for rows.Next() {
        var n int
        if err := rows.Scan(&n); err != nil {
            return nil, err
        }
        out = append(out, n)
    }
    return out, rows.Err()
}

// HasConfirmed reports whether the user already holds a confirmed
// booking on the schedule.  Used by the seat-picker to short-circuit
// before offering seats; Confirm re-checks under lock.
func (r *BookingRepo) HasConfirmed(ctx context.Context, userID, scheduleID uint64) (bool, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM bookings WHERE user_id=? AND schedule_id=? AND status='confirmed'",
        userID, scheduleID).Scan(&n)
    return n > 0, err
}

// Confirm claims a seat on a schedule for a user.  The entire operation
// is one transaction:
//
//   1. lock the schedule row and read its counter and bus capacity;
//   2. bounds-check the seat number against the capacity;
//   3. verify neither uniqueness invariant is violated — no confirmed
//      booking on (schedule, seat) and none on (user, schedule);
//   4. decrement available_seats with an "available_seats > 0" guard,
//      treating zero affected rows as sold out;
//   5. insert the confirmed booking row.
//
// Any failure rolls the whole unit back, so a crash can never leave a
// booking without its decrement or vice versa.  Sentinels: ErrScheduleNotFound,
// ErrSeatOutOfRange, ErrSeatTaken, ErrAlreadyBooked, ErrNoSeats.
func (r *BookingRepo) Confirm(ctx context.Context, userID, scheduleID uint64, seatNumber int, reference string) (*model.Booking, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var available, capacity int
    err = tx.QueryRowContext(ctx,
        `SELECT s.available_seats, b.capacity
         FROM schedules s JOIN buses b ON b.id = s.bus_id
         WHERE s.id = ? FOR UPDATE`, scheduleID).Scan(&available, &capacity)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, ErrScheduleNotFound
        }
        return nil, err
    }
    if seatNumber < 1 || seatNumber > capacity {
        return nil, ErrSeatOutOfRange
    }

    var taken int
    if err := tx.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM bookings WHERE schedule_id=? AND seat_number=? AND status='confirmed'",
        scheduleID, seatNumber).Scan(&taken); err != nil {
        return nil, err
    }
    if taken > 0 {
        return nil, ErrSeatTaken
    }
    var mine int
    if err := tx.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM bookings WHERE user_id=? AND schedule_id=? AND status='confirmed'",
        userID, scheduleID).Scan(&mine); err != nil {
        return nil, err
    }
    if mine > 0 {
        return nil, ErrAlreadyBooked
    }

    res, err := tx.ExecContext(ctx,
        "UPDATE schedules SET available_seats = available_seats - 1 WHERE id=? AND available_seats > 0",
        scheduleID)
    if err != nil {
        return nil, err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return nil, ErrNoSeats
    }

    ins, err := tx.ExecContext(ctx,
        "INSERT INTO bookings (reference, user_id, schedule_id, seat_number, status) VALUES (?,?,?,?, 'confirmed')",
        reference, userID, scheduleID, seatNumber)
    if err != nil {
        return nil, err
    }
    id, err := ins.LastInsertId()
    if err != nil {
        return nil, err
    }
    b := &model.Booking{
        ID:         uint64(id),
        Reference:  reference,
        UserID:     userID,
        ScheduleID: scheduleID,
        SeatNumber: seatNumber,
        Status:     model.BookingConfirmed,
    }
    if err := tx.QueryRowContext(ctx,
        "SELECT booking_time FROM bookings WHERE id=?", b.ID).Scan(&b.BookingTime); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return b, nil
}

// Cancel releases a seat after the hold period.  Mirrors Confirm in
// reverse inside one transaction: the booking is locked and validated
// (existence, ownership, still confirmed, hold period elapsed), flipped
// to cancelled, and the schedule counter is incremented with an
// "available_seats < capacity" guard so it can never exceed the bus
// capacity.  Sentinels: sql.ErrNoRows, ErrForbidden, ErrConflict,
// ErrHoldPeriod.
func (r *BookingRepo) Cancel(ctx context.Context, bookingID, userID uint64, holdPeriod time.Duration) (*model.Booking, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var b model.Booking
    err = tx.QueryRowContext(ctx,
        `SELECT id, reference, user_id, schedule_id, seat_number, status, booking_time
         FROM bookings WHERE id=? FOR UPDATE`, bookingID).Scan(
        &b.ID, &b.Reference, &b.UserID, &b.ScheduleID, &b.SeatNumber, &b.Status, &b.BookingTime)
    if err != nil {
        return nil, err // sql.ErrNoRows -> 404 in the handler
    }
    if b.UserID != userID {
        return nil, ErrForbidden
    }
    if b.Status != model.BookingConfirmed {
        return nil, ErrConflict
    }
    if time.Now().UTC().Sub(b.BookingTime.UTC()) < holdPeriod {
        return nil, ErrHoldPeriod
    }

    if _, err := tx.ExecContext(ctx,
        "UPDATE bookings SET status='cancelled' WHERE id=?", b.ID); err != nil {
        return nil, err
    }
    // The capacity guard keeps the counter inside [0, capacity] even if
    // an admin edit shrank the schedule while this booking was active.
    if _, err := tx.ExecContext(ctx,
        `UPDATE schedules s JOIN buses bu ON bu.id = s.bus_id
         SET s.available_seats = s.available_seats + 1
         WHERE s.id = ? AND s.available_seats < bu.capacity`, b.ScheduleID); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    b.Status = model.BookingCancelled
    return &b, nil
}

// BookingDetail is a booking flattened with its departure context for
// the student dashboard.
type BookingDetail struct {
    BookingID     uint64 `json:"booking_id"`
    Reference     string `json:"reference"`
    SeatNumber    int    `json:"seat_number"`
    Status        string `json:"status"`
    BookingTime   string `json:"booking_time"`
    DepartureDate string `json:"departure_date"`
    DepartureTime string `json:"departure_time"`
    BusNumber     string `json:"bus_number"`
    RouteName     string `json:"route_name"`
}

const bookingJoin = `FROM bookings bk
    JOIN schedules s ON s.id = bk.schedule_id
    JOIN buses b ON b.id = s.bus_id
    JOIN routes r ON r.id = b.route_id`

// ListActiveByUser returns the user's confirmed bookings on departures
// from the given date onward, ordered by departure.
func (r *BookingRepo) ListActiveByUser(ctx context.Context, userID uint64, fromDate string) ([]BookingDetail, error) {
    const q = `SELECT bk.id, bk.reference, bk.seat_number, bk.status,
                      DATE_FORMAT(bk.booking_time, '%Y-%m-%dT%H:%i:%sZ'),
                      DATE_FORMAT(s.departure_date, '%Y-%m-%d'), s.departure_time,
                      b.bus_number, r.route_name ` + bookingJoin + `
               WHERE bk.user_id = ? AND bk.status = 'confirmed' AND s.departure_date >= ?
               ORDER BY s.departure_date, s.departure_time`
    rows, err := r.db.QueryContext(ctx, q, userID, fromDate)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []BookingDetail{}
    for rows.Next() {
        var d BookingDetail
        if err := rows.Scan(&d.BookingID, &d.Reference, &d.SeatNumber, &d.Status, &d.BookingTime,
            &d.DepartureDate, &d.DepartureTime, &d.BusNumber, &d.RouteName); err != nil {
            return nil, err
        }
        out = append(out, d)
    }
    return out, rows.Err()
}

// AdminBookingRow is one confirmed booking with student and departure
// context for the transport office's full listing.
type AdminBookingRow struct {
    BookingID     uint64 `json:"booking_id"`
    StudentID     string `json:"student_id"`
    StudentName   string `json:"name"`
    SeatNumber    int    `json:"seat_number"`
    DepartureDate string `json:"departure_date"`
    DepartureTime string `json:"departure_time"`
    BusNumber     string `json:"bus_number"`
    RouteName     string `json:"route_name"`
}

// ListAllConfirmed returns every confirmed booking joined with student
// and departure information, sorted by departure (the ORDER BY replaces
// the original's in-memory sort).
func (r *BookingRepo) ListAllConfirmed(ctx context.Context) ([]AdminBookingRow, error) {
    const q = `SELECT bk.id, u.student_id, u.name, bk.seat_number,
                      DATE_FORMAT(s.departure_date, '%Y-%m-%d'), s.departure_time,
                      b.bus_number, r.route_name ` + bookingJoin + `
               JOIN users u ON u.id = bk.user_id
               WHERE bk.status = 'confirmed'
               ORDER BY s.departure_date, s.departure_time`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []AdminBookingRow{}
    for rows.Next() {
        var a AdminBookingRow
        if err := rows.Scan(&a.BookingID, &a.StudentID, &a.StudentName, &a.SeatNumber,
            &a.DepartureDate, &a.DepartureTime, &a.BusNumber, &a.RouteName); err != nil {
            return nil, err
        }
        out = append(out, a)
    }
    return out, rows.Err()
}

// TicketDetail carries everything printed on a ticket: passenger,
// seat, departure and route in one row.
type TicketDetail struct {
    BookingID     uint64 `json:"booking_id"`
    Reference     string `json:"reference"`
    StudentID     string `json:"student_id"`
    Name          string `json:"name"`
    Email         string `json:"email"`
    Phone         string `json:"phone"`
    SeatNumber    int    `json:"seat_number"`
    BusNumber     string `json:"bus_number"`
    RouteName     string `json:"route_name"`
    StartPoint    string `json:"start_point"`
    EndPoint      string `json:"end_point"`
    DepartureDate string `json:"departure_date"`
    DepartureTime string `json:"departure_time"`
    BookingTime   string `json:"booking_time"`
}

// Ticket loads the full detail for one confirmed booking owned by the
// user.  A missing, foreign or cancelled booking all surface as
// sql.ErrNoRows: the ticket simply does not exist for this caller.
func (r *BookingRepo) Ticket(ctx context.Context, bookingID, userID uint64) (TicketDetail, error) {
    const q = `SELECT bk.id, bk.reference, u.student_id, u.name, u.email, u.phone, bk.seat_number,
                      b.bus_number, r.route_name, r.start_point, r.end_point,
                      DATE_FORMAT(s.departure_date, '%Y-%m-%d'), s.departure_time,
                      DATE_FORMAT(bk.booking_time, '%Y-%m-%dT%H:%i:%sZ') ` + bookingJoin + `
               JOIN users u ON u.id = bk.user_id
               WHERE bk.id = ? AND bk.user_id = ? AND bk.status = 'confirmed'`
    var t TicketDetail
    err := r.db.QueryRowContext(ctx, q, bookingID, userID).Scan(
        &t.BookingID, &t.Reference, &t.StudentID, &t.Name, &t.Email, &t.Phone, &t.SeatNumber,
        &t.BusNumber, &t.RouteName, &t.StartPoint, &t.EndPoint,
        &t.DepartureDate, &t.DepartureTime, &t.BookingTime)
    return t, err
}
