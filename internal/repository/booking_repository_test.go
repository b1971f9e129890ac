package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/campus-bus-reservation/internal/model"
)

const (
	lockScheduleSQL  = `SELECT s\.available_seats, b\.capacity`
	countSeatSQL     = `SELECT COUNT\(\*\) FROM bookings WHERE schedule_id=\? AND seat_number=\?`
	countUserSQL     = `SELECT COUNT\(\*\) FROM bookings WHERE user_id=\? AND schedule_id=\?`
	decrementSQL     = `UPDATE schedules SET available_seats = available_seats - 1`
	insertBookingSQL = `INSERT INTO bookings`
	bookingTimeSQL   = `SELECT booking_time FROM bookings WHERE id=\?`
	lockBookingSQL   = `SELECT id, reference, user_id, schedule_id, seat_number, status, booking_time`
	cancelSQL        = `UPDATE bookings SET status='cancelled' WHERE id=\?`
	incrementSQL     = `UPDATE schedules s JOIN buses bu`
)

func newBookingMock(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBookingRepo(db), mock
}

func TestConfirmBooksSeatInOneTransaction(t *testing.T) {
	repo, mock := newBookingMock(t)
	booked := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(lockScheduleSQL).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"available_seats", "capacity"}).AddRow(10, 40))
	mock.ExpectQuery(countSeatSQL).WithArgs(uint64(5), 12).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(countUserSQL).WithArgs(uint64(9), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(decrementSQL).WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertBookingSQL).WithArgs("ref-1", uint64(9), uint64(5), 12).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectQuery(bookingTimeSQL).WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"booking_time"}).AddRow(booked))
	mock.ExpectCommit()

	b, err := repo.Confirm(context.Background(), 9, 5, 12, "ref-1")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if b.ID != 77 || b.SeatNumber != 12 || b.Status != model.BookingConfirmed {
		t.Fatalf("unexpected booking: %+v", b)
	}
	if !b.BookingTime.Equal(booked) {
		t.Fatalf("booking time not read back: %v", b.BookingTime)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfirmRejectsSeatOutOfRange(t *testing.T) {
	repo, mock := newBookingMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockScheduleSQL).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"available_seats", "capacity"}).AddRow(10, 40))
	mock.ExpectRollback()

	if _, err := repo.Confirm(context.Background(), 9, 5, 41, "ref"); !errors.Is(err, ErrSeatOutOfRange) {
		t.Fatalf("seat 41 on a 40-seat bus: got %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(lockScheduleSQL).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"available_seats", "capacity"}).AddRow(10, 40))
	mock.ExpectRollback()

	if _, err := repo.Confirm(context.Background(), 9, 5, 0, "ref"); !errors.Is(err, ErrSeatOutOfRange) {
		t.Fatalf("seat 0 accepted: got %v", err)
	}
}

func TestConfirmRejectsTakenSeat(t *testing.T) {
	repo, mock := newBookingMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockScheduleSQL).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"available_seats", "capacity"}).AddRow(10, 40))
	mock.ExpectQuery(countSeatSQL).WithArgs(uint64(5), 12).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	if _, err := repo.Confirm(context.Background(), 9, 5, 12, "ref"); !errors.Is(err, ErrSeatTaken) {
		t.Fatalf("want ErrSeatTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfirmRejectsSecondBookingBySameUser(t *testing.T) {
	repo, mock := newBookingMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockScheduleSQL).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"available_seats", "capacity"}).AddRow(10, 40))
	mock.ExpectQuery(countSeatSQL).WithArgs(uint64(5), 12).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(countUserSQL).WithArgs(uint64(9), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	if _, err := repo.Confirm(context.Background(), 9, 5, 12, "ref"); !errors.Is(err, ErrAlreadyBooked) {
		t.Fatalf("want ErrAlreadyBooked, got %v", err)
	}
}

func TestConfirmSoldOutRollsBack(t *testing.T) {
	repo, mock := newBookingMock(t)

	// The counter guard is the last word: even when the earlier checks
	// pass, zero affected rows on the decrement aborts the booking.
	mock.ExpectBegin()
	mock.ExpectQuery(lockScheduleSQL).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"available_seats", "capacity"}).AddRow(0, 40))
	mock.ExpectQuery(countSeatSQL).WithArgs(uint64(5), 12).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(countUserSQL).WithArgs(uint64(9), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(decrementSQL).WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if _, err := repo.Confirm(context.Background(), 9, 5, 12, "ref"); !errors.Is(err, ErrNoSeats) {
		t.Fatalf("want ErrNoSeats, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfirmMissingSchedule(t *testing.T) {
	repo, mock := newBookingMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockScheduleSQL).WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"available_seats", "capacity"}))
	mock.ExpectRollback()

	if _, err := repo.Confirm(context.Background(), 9, 99, 1, "ref"); !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("want ErrScheduleNotFound, got %v", err)
	}
}

func bookingRow(userID uint64, status string, bookedAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "reference", "user_id", "schedule_id", "seat_number", "status", "booking_time"}).
		AddRow(77, "ref-1", userID, 5, 12, status, bookedAt)
}

func TestCancelReleasesSeatAfterHold(t *testing.T) {
	repo, mock := newBookingMock(t)
	bookedAt := time.Now().UTC().Add(-10 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(lockBookingSQL).WithArgs(uint64(77)).
		WillReturnRows(bookingRow(9, model.BookingConfirmed, bookedAt))
	mock.ExpectExec(cancelSQL).WithArgs(uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(incrementSQL).WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	b, err := repo.Cancel(context.Background(), 77, 9, 2*time.Minute)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if b.Status != model.BookingCancelled {
		t.Fatalf("status not flipped: %q", b.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelWithinHoldPeriodRejected(t *testing.T) {
	repo, mock := newBookingMock(t)
	bookedAt := time.Now().UTC().Add(-30 * time.Second)

	mock.ExpectBegin()
	mock.ExpectQuery(lockBookingSQL).WithArgs(uint64(77)).
		WillReturnRows(bookingRow(9, model.BookingConfirmed, bookedAt))
	mock.ExpectRollback()

	if _, err := repo.Cancel(context.Background(), 77, 9, 2*time.Minute); !errors.Is(err, ErrHoldPeriod) {
		t.Fatalf("want ErrHoldPeriod, got %v", err)
	}
}

func TestCancelForeignBookingForbidden(t *testing.T) {
	repo, mock := newBookingMock(t)
	bookedAt := time.Now().UTC().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(lockBookingSQL).WithArgs(uint64(77)).
		WillReturnRows(bookingRow(21, model.BookingConfirmed, bookedAt))
	mock.ExpectRollback()

	if _, err := repo.Cancel(context.Background(), 77, 9, 0); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestCancelAlreadyCancelledConflicts(t *testing.T) {
	repo, mock := newBookingMock(t)
	bookedAt := time.Now().UTC().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(lockBookingSQL).WithArgs(uint64(77)).
		WillReturnRows(bookingRow(9, model.BookingCancelled, bookedAt))
	mock.ExpectRollback()

	if _, err := repo.Cancel(context.Background(), 77, 9, 0); !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestBookedSeatNumbers(t *testing.T) {
	repo, mock := newBookingMock(t)

	mock.ExpectQuery(`SELECT seat_number FROM bookings`).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(3).AddRow(7).AddRow(12))

	got, err := repo.BookedSeatNumbers(context.Background(), 5)
	if err != nil {
		t.Fatalf("booked seats: %v", err)
	}
	want := []int{3, 7, 12}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
