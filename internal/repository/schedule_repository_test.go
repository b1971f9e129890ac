package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/campus-bus-reservation/internal/model"
)

func newScheduleMock(t *testing.T) (*ScheduleRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewScheduleRepo(db), mock
}

func TestEditRecomputesAvailableSeats(t *testing.T) {
	repo, mock := newScheduleMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM schedules WHERE id=\? FOR UPDATE`).WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE schedule_id=\?`).WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(14))
	mock.ExpectExec(`UPDATE schedules SET bus_id=\?, departure_date=\?, departure_time=\?, available_seats=\?`).
		WithArgs(uint64(2), "2026-09-10", "08:30:00", 26, uint64(1), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// 40 total seats with 14 confirmed bookings leaves 26 available.
	available, err := repo.Edit(context.Background(), 3, 2, "2026-09-10", "08:30:00", 40, 1)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if available != 26 {
		t.Fatalf("available = %d, want 26", available)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEditRejectsShrinkBelowConfirmed(t *testing.T) {
	repo, mock := newScheduleMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM schedules WHERE id=\? FOR UPDATE`).WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE schedule_id=\?`).WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(30))
	mock.ExpectRollback()

	if _, err := repo.Edit(context.Background(), 3, 2, "2026-09-10", "08:30:00", 20, 1); !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestEditMissingSchedule(t *testing.T) {
	repo, mock := newScheduleMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM schedules WHERE id=\? FOR UPDATE`).WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	if _, err := repo.Edit(context.Background(), 99, 2, "2026-09-10", "08:30:00", 20, 1); !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("want ErrScheduleNotFound, got %v", err)
	}
}

func TestDeleteCancelsBookingsFirst(t *testing.T) {
	repo, mock := newScheduleMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bookings SET status='cancelled' WHERE schedule_id=\?`).WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(`DELETE FROM schedules WHERE id=\?`).WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	cancelled, err := repo.Delete(context.Background(), 3)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if cancelled != 5 {
		t.Fatalf("cancelled = %d, want 5", cancelled)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteMissingSchedule(t *testing.T) {
	repo, mock := newScheduleMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bookings SET status='cancelled' WHERE schedule_id=\?`).WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM schedules WHERE id=\?`).WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if _, err := repo.Delete(context.Background(), 99); !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("want ErrScheduleNotFound, got %v", err)
	}
}

func TestCreateSetsIDAndStatus(t *testing.T) {
	repo, mock := newScheduleMock(t)

	mock.ExpectExec(`INSERT INTO schedules`).
		WithArgs(uint64(2), "2026-09-10", "08:30:00", 40, uint64(1)).
		WillReturnResult(sqlmock.NewResult(11, 1))

	s := model.Schedule{BusID: 2, DepartureDate: "2026-09-10", DepartureTime: "08:30:00", AvailableSeats: 40, CreatedByAdmin: 1}
	if err := repo.Create(context.Background(), &s); err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ID != 11 || s.Status != "active" {
		t.Fatalf("unexpected schedule: %+v", s)
	}
}
