package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-bus-reservation/internal/captcha"
	"github.com/iliyamo/campus-bus-reservation/internal/config"
	"github.com/iliyamo/campus-bus-reservation/internal/repository"
	"github.com/iliyamo/campus-bus-reservation/internal/utils"
)

func testCfg() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
		BcryptCost:     4, // fastest cost, fine for tests
		HoldPeriod:     2 * time.Minute,
		EmailDomain:    "@student.gitam.edu",
	}
}

func newAuthMock(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, captcha.Store) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	cs := captcha.New(nil)
	h := NewAuthHandler(testCfg(), repository.NewUserRepo(db), repository.NewTokenRepo(db), cs)
	return h, mock, cs
}

func postJSON(e *echo.Echo, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// issueSolvedCaptcha issues a challenge and computes its answer from
// the question text.
func issueSolvedCaptcha(t *testing.T, cs captcha.Store, c echo.Context) (string, string) {
	t.Helper()
	ch, err := cs.Issue(c.Request().Context())
	if err != nil {
		t.Fatalf("issue captcha: %v", err)
	}
	parts := strings.Split(ch.Question, " + ")
	if len(parts) != 2 {
		t.Fatalf("bad question %q", ch.Question)
	}
	a, err1 := strconv.Atoi(parts[0])
	b, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		t.Fatalf("bad question %q", ch.Question)
	}
	return ch.ID, strconv.Itoa(a + b)
}

func TestLoginHappyPath(t *testing.T) {
	h, mock, cs := newAuthMock(t)
	e := echo.New()

	hash, err := utils.HashPassword("Secret1!", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	now := time.Now()
	mock.ExpectQuery(`SELECT id,student_id,year,name,email,phone,password_hash,created_at,updated_at FROM users WHERE student_id=\?`).
		WithArgs("2025123456").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "year", "name", "email", "phone", "password_hash", "created_at", "updated_at"}).
			AddRow(9, "2025123456", 1, "John", "john@student.gitam.edu", "9876543210", hash, now, now))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := postJSON(e, "/v1/auth/login", `{}`)
	capID, answer := issueSolvedCaptcha(t, cs, c)

	c, rec = postJSON(e, "/v1/auth/login",
		`{"student_id":"2025123456","year":1,"password":"Secret1!","captcha_id":"`+capID+`","captcha_answer":"`+answer+`"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		User struct {
			ID   uint64 `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
		Refresh struct {
			Token string `json:"token"`
		} `json:"refresh"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.ID != 9 || resp.User.Role != "STUDENT" {
		t.Fatalf("unexpected user part: %+v", resp.User)
	}
	if resp.Access.Token == "" || resp.Refresh.Token == "" {
		t.Fatalf("missing tokens in response")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoginWrongCaptchaNeverTouchesCredentials(t *testing.T) {
	h, mock, cs := newAuthMock(t)
	e := echo.New()

	c, _ := postJSON(e, "/v1/auth/login", `{}`)
	capID, _ := issueSolvedCaptcha(t, cs, c)

	c, rec := postJSON(e, "/v1/auth/login",
		`{"student_id":"2025123456","year":1,"password":"Secret1!","captcha_id":"`+capID+`","captcha_answer":"999"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	// No user lookup may have happened: the captcha gate comes first.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db was touched: %v", err)
	}
}

func TestLoginMissingCaptchaRejected(t *testing.T) {
	h, _, _ := newAuthMock(t)
	e := echo.New()

	c, rec := postJSON(e, "/v1/auth/login", `{"student_id":"2025123456","year":1,"password":"Secret1!"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _, _ := newAuthMock(t)
	e := echo.New()

	cases := []struct {
		name string
		body string
	}{
		{"bad student id", `{"student_id":"123","year":1,"name":"J","email":"j@student.gitam.edu","phone":"9876543210","password":"Secret1!"}`},
		{"wrong email domain", `{"student_id":"2025123456","year":1,"name":"J","email":"j@gmail.com","phone":"9876543210","password":"Secret1!"}`},
		{"bad phone", `{"student_id":"2025123456","year":1,"name":"J","email":"j@student.gitam.edu","phone":"12345","password":"Secret1!"}`},
		{"weak password", `{"student_id":"2025123456","year":1,"name":"J","email":"j@student.gitam.edu","phone":"9876543210","password":"weakpass"}`},
		{"missing fields", `{"student_id":"2025123456","year":1}`},
	}
	for _, tc := range cases {
		c, rec := postJSON(e, "/v1/auth/register", tc.body)
		if err := h.Register(c); err != nil {
			t.Fatalf("%s: handler error: %v", tc.name, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}
}

func TestRegisterDuplicateStudent(t *testing.T) {
	h, mock, _ := newAuthMock(t)
	e := echo.New()

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(errDuplicateKey{})

	c, rec := postJSON(e, "/v1/auth/register",
		`{"student_id":"2025123456","year":1,"name":"J","email":"j@student.gitam.edu","phone":"9876543210","password":"Secret1!"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

// errDuplicateKey mimics the MySQL duplicate-entry error text the
// repository sniffs for.
type errDuplicateKey struct{}

func (errDuplicateKey) Error() string {
	return "Error 1062 (23000): Duplicate entry '2025123456' for key 'users.student_id'"
}
