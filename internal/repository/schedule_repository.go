package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/campus-bus-reservation/internal/model"
)

// ScheduleRepo manages persistence for departure schedules.  Listings
// join buses and routes so handlers never issue follow-up lookups, and
// every mutation that could disturb the available-seat invariant runs
// inside a transaction.
//
// NOTE: departure_date is selected via DATE_FORMAT so it always scans
// into a plain "YYYY-MM-DD" string regardless of driver settings, and
// departure_time (a TIME column) scans as "HH:MM:SS".
type ScheduleRepo struct {
    db *sql.DB
}

func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *ScheduleRepo) DB() *sql.DB {
    return r.db
}

// UpcomingSchedule is a schedule row flattened with its bus and route
// for the student dashboard.
type UpcomingSchedule struct {
    ScheduleID     uint64 `json:"schedule_id"`
    DepartureDate  string `json:"departure_date"`
    DepartureTime  string `json:"departure_time"`
    AvailableSeats int    `json:"available_seats"`
    BusNumber      string `json:"bus_number"`
    Capacity       int    `json:"capacity"`
    RouteName      string `json:"route_name"`
    StartPoint     string `json:"start_point"`
    EndPoint       string `json:"end_point"`
}

// OverviewRow extends UpcomingSchedule with the confirmed-booking count
// for the admin panel.  The count comes from a single GROUP BY instead
// of one COUNT query per schedule.
type OverviewRow struct {
    ScheduleID     uint64 `json:"schedule_id"`
    DepartureDate  string `json:"departure_date"`
    DepartureTime  string `json:"departure_time"`
    AvailableSeats int    `json:"available_seats"`
    BusNumber      string `json:"bus_number"`
    RouteName      string `json:"route_name"`
    BookedSeats    int    `json:"booked_seats"`
}

const scheduleJoin = `FROM schedules s
    JOIN buses b ON b.id = s.bus_id
    JOIN routes r ON r.id = b.route_id`

// ListUpcoming returns bookable schedules: departure on or after the
// given date ("YYYY-MM-DD") with at least one open seat, ordered by
// departure.
func (r *ScheduleRepo) ListUpcoming(ctx context.Context, fromDate string) ([]UpcomingSchedule, error) {
    const q = `SELECT s.id, DATE_FORMAT(s.departure_date, '%Y-%m-%d'), s.departure_time,
                      s.available_seats, b.bus_number, b.capacity,
                      r.route_name, r.start_point, r.end_point ` + scheduleJoin + `
               WHERE s.departure_date >= ? AND s.available_seats > 0 AND s.status = 'active'
               ORDER BY s.departure_date, s.departure_time`
    return r.scanUpcoming(ctx, q, fromDate)
}

// ListAll returns every schedule with bus and route context for the
// admin editing screen, ordered by departure.
func (r *ScheduleRepo) ListAll(ctx context.Context) ([]UpcomingSchedule, error) {
    const q = `SELECT s.id, DATE_FORMAT(s.departure_date, '%Y-%m-%d'), s.departure_time,
                      s.available_seats, b.bus_number, b.capacity,
                      r.route_name, r.start_point, r.end_point ` + scheduleJoin + `
               ORDER BY s.departure_date, s.departure_time`
    return r.scanUpcoming(ctx, q)
}

func (r *ScheduleRepo) scanUpcoming(ctx context.Context, q string, args ...any) ([]UpcomingSchedule, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []UpcomingSchedule{}
    for rows.Next() {
        var s UpcomingSchedule
        if err := rows.Scan(&s.ScheduleID, &s.DepartureDate, &s.DepartureTime,
            &s.AvailableSeats, &s.BusNumber, &s.Capacity,
            &s.RouteName, &s.StartPoint, &s.EndPoint); err != nil {
            return nil, err
        }
        out = append(out, s)
    }
    return out, rows.Err()
}

// Overview returns upcoming schedules with confirmed-booking counts for
// the admin panel.
func (r *ScheduleRepo) Overview(ctx context.Context, fromDate string) ([]OverviewRow, error) {
    const q = `SELECT s.id, DATE_FORMAT(s.departure_date, '%Y-%m-%d'), s.departure_time,
                      s.available_seats, b.bus_number, r.route_name,
                      COUNT(bk.id) ` + scheduleJoin + `
               LEFT JOIN bookings bk ON bk.schedule_id = s.id AND bk.status = 'confirmed'
               WHERE s.departure_date >= ?
               GROUP BY s.id, s.departure_date, s.departure_time, s.available_seats, b.bus_number, r.route_name
               ORDER BY s.departure_date, s.departure_time`
    rows, err := r.db.QueryContext(ctx, q, fromDate)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []OverviewRow{}
    for rows.Next() {
        var o OverviewRow
        if err := rows.Scan(&o.ScheduleID, &o.DepartureDate, &o.DepartureTime,
            &o.AvailableSeats, &o.BusNumber, &o.RouteName, &o.BookedSeats); err != nil {
            return nil, err
        }
        out = append(out, o)
    }
    return out, rows.Err()
}

// GetDetail loads one schedule with bus and route context.  Returns
// ErrScheduleNotFound when the row is missing.
func (r *ScheduleRepo) GetDetail(ctx context.Context, scheduleID uint64) (UpcomingSchedule, error) {
    const q = `SELECT s.id, DATE_FORMAT(s.departure_date, '%Y-%m-%d'), s.departure_time,
                      s.available_seats, b.bus_number, b.capacity,
                      r.route_name, r.start_point, r.end_point ` + scheduleJoin + `
               WHERE s.id = ?`
    var s UpcomingSchedule
    err := r.db.QueryRowContext(ctx, q, scheduleID).Scan(
        &s.ScheduleID, &s.DepartureDate, &s.DepartureTime,
        &s.AvailableSeats, &s.BusNumber, &s.Capacity,
        &s.RouteName, &s.StartPoint, &s.EndPoint)
    if err == sql.ErrNoRows {
        return s, ErrScheduleNotFound
    }
    return s, err
}

// Create inserts a new schedule.  The seat count was already validated
// against the bus capacity by the handler; available_seats starts at
// the admin-supplied total because no bookings exist yet.
func (r *ScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO schedules (bus_id, departure_date, departure_time, available_seats, status, created_by_admin)
         VALUES (?,?,?,?, 'active', ?)`,
        s.BusID, s.DepartureDate, s.DepartureTime, s.AvailableSeats, s.CreatedByAdmin)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    s.Status = "active"
    return nil
}

// Edit re-targets a schedule's bus, departure and seat total in one
// transaction.  The schedule's confirmed bookings are counted under
// lock and the stored available count is recomputed as
// totalSeats − confirmed, so an edit can never leave the counter out of
// step with the booking set.  Shrinking below the confirmed count is
// rejected with ErrConflict.
func (r *ScheduleRepo) Edit(ctx context.Context, scheduleID, busID uint64, date, timeOfDay string, totalSeats int, adminID uint64) (int, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    var id uint64
    if err := tx.QueryRowContext(ctx,
        "SELECT id FROM schedules WHERE id=? FOR UPDATE", scheduleID).Scan(&id); err != nil {
        if err == sql.ErrNoRows {
            return 0, ErrScheduleNotFound
        }
        return 0, err
    }
    var confirmed int
    if err := tx.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM bookings WHERE schedule_id=? AND status='confirmed'",
        scheduleID).Scan(&confirmed); err != nil {
        return 0, err
    }
    if confirmed > totalSeats {
        return 0, ErrConflict
    }
    available := totalSeats - confirmed
    if _, err := tx.ExecContext(ctx,
        `UPDATE schedules SET bus_id=?, departure_date=?, departure_time=?, available_seats=?, updated_by_admin=?
         WHERE id=?`,
        busID, date, timeOfDay, available, adminID, scheduleID); err != nil {
        return 0, err
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return available, nil
}

// Delete removes a schedule.  Confirmed bookings on it are cancelled in
// the same transaction so no booking row ever points at a missing
// departure.  Returns ErrScheduleNotFound when nothing was deleted.
func (r *ScheduleRepo) Delete(ctx context.Context, scheduleID uint64) (cancelled int64, err error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    res, err := tx.ExecContext(ctx,
        "UPDATE bookings SET status='cancelled' WHERE schedule_id=? AND status='confirmed'", scheduleID)
    if err != nil {
        return 0, err
    }
    cancelled, _ = res.RowsAffected()
    del, err := tx.ExecContext(ctx, "DELETE FROM schedules WHERE id=?", scheduleID)
    if err != nil {
        return 0, err
    }
    if n, _ := del.RowsAffected(); n == 0 {
        return 0, ErrScheduleNotFound
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return cancelled, nil
}
