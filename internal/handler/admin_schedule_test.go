package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-bus-reservation/internal/repository"
)

func newAdminMock(t *testing.T) (*AdminHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	h := NewAdminHandler(
		repository.NewScheduleRepo(db),
		repository.NewBusRepo(db),
		repository.NewRouteRepo(db),
		repository.NewBookingRepo(db),
		repository.NewAdminRepo(db))
	return h, mock
}

func postAsAdmin(e *echo.Echo, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(1))
	c.Set("role", "ADMIN")
	return c, rec
}

func busRows(id uint64, number string, capacity int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "bus_number", "capacity", "route_id"}).
		AddRow(id, number, capacity, 1)
}

func TestCreateScheduleHappyPath(t *testing.T) {
	h, mock := newAdminMock(t)
	e := echo.New()

	mock.ExpectQuery(`SELECT id, bus_number, capacity, route_id FROM buses WHERE bus_number=\?`).
		WithArgs("KA-01").
		WillReturnRows(busRows(2, "KA-01", 40))
	mock.ExpectExec(`INSERT INTO schedules`).
		WithArgs(uint64(2), "2026-09-10", "08:30", 40, uint64(1)).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(`INSERT INTO admin_activity_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := postAsAdmin(e, "/v1/admin/schedules",
		`{"bus_number":"KA-01","departure_date":"2026-09-10","departure_time":"08:30","total_seats":40}`)
	if err := h.CreateSchedule(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateScheduleRejectsOverCapacity(t *testing.T) {
	h, mock := newAdminMock(t)
	e := echo.New()

	mock.ExpectQuery(`SELECT id, bus_number, capacity, route_id FROM buses WHERE bus_number=\?`).
		WithArgs("KA-01").
		WillReturnRows(busRows(2, "KA-01", 40))

	c, rec := postAsAdmin(e, "/v1/admin/schedules",
		`{"bus_number":"KA-01","departure_date":"2026-09-10","departure_time":"08:30","total_seats":60}`)
	if err := h.CreateSchedule(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateScheduleUnknownBus(t *testing.T) {
	h, mock := newAdminMock(t)
	e := echo.New()

	mock.ExpectQuery(`SELECT id, bus_number, capacity, route_id FROM buses WHERE bus_number=\?`).
		WithArgs("NOPE-99").
		WillReturnRows(sqlmock.NewRows([]string{"id", "bus_number", "capacity", "route_id"}))

	c, rec := postAsAdmin(e, "/v1/admin/schedules",
		`{"bus_number":"NOPE-99","departure_date":"2026-09-10","departure_time":"08:30","total_seats":40}`)
	if err := h.CreateSchedule(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCreateScheduleBadDateFormat(t *testing.T) {
	h, _ := newAdminMock(t)
	e := echo.New()

	c, rec := postAsAdmin(e, "/v1/admin/schedules",
		`{"bus_number":"KA-01","departure_date":"10-09-2026","departure_time":"08:30","total_seats":40}`)
	if err := h.CreateSchedule(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
