package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-bus-reservation/internal/captcha"
	"github.com/iliyamo/campus-bus-reservation/internal/config"
	"github.com/iliyamo/campus-bus-reservation/internal/model"
	"github.com/iliyamo/campus-bus-reservation/internal/repository"
	"github.com/iliyamo/campus-bus-reservation/internal/utils"
	"github.com/iliyamo/campus-bus-reservation/internal/validate"
)

// AdminAuthHandler bundles dependencies for transport-office auth
// endpoints.  Admin accounts live in their own table with their own
// uniqueness rules, but token issuing and the login captcha reuse the
// same machinery as the student flow, with role ADMIN.
type AdminAuthHandler struct {
	Cfg      config.Config
	Admins   *repository.AdminRepo
	Tokens   *repository.TokenRepo
	Captchas captcha.Store
}

func NewAdminAuthHandler(cfg config.Config, a *repository.AdminRepo, t *repository.TokenRepo, cs captcha.Store) *AdminAuthHandler {
	return &AdminAuthHandler{Cfg: cfg, Admins: a, Tokens: t, Captchas: cs}
}

type adminRegisterReq struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}
type adminLoginReq struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
}

type adminPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
type adminAuthResp struct {
	Admin   adminPart `json:"admin"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Register creates an admin account with the default permission set
// (create/edit/view on, destructive capabilities off).  No tokens are
// returned; a new admin logs in explicitly.
func (h *AdminAuthHandler) Register(c echo.Context) error {
	var req adminRegisterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username, name, email and password are required"})
	}
	if !validate.Password(req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be 8+ chars with an uppercase letter, a digit and a special character"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a := model.Admin{Username: req.Username, Name: req.Name, Email: req.Email, Phone: strings.TrimSpace(req.Phone)}
	id, err := h.Admins.CreateWithPermissions(ctx, &a, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrAdminExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username or email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create admin failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"admin": adminPart{ID: id, Username: a.Username, Name: a.Name, Email: a.Email, Role: "ADMIN"},
	})
}

// Login verifies the captcha, then the admin credentials, and returns
// a token pair with the ADMIN role claim.  On success the login is
// mirrored into the activity log and admin_sessions; both writes are
// best-effort.
func (h *AdminAuthHandler) Login(c echo.Context) error {
	var req adminLoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}
	if strings.TrimSpace(req.CaptchaID) == "" || strings.TrimSpace(req.CaptchaAnswer) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "captcha required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err := h.Captchas.Verify(ctx, req.CaptchaID, req.CaptchaAnswer)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "captcha check failed"})
	}
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "incorrect captcha"})
	}

	a, err := h.Admins.GetByUsername(ctx, req.Username)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(a.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, a.ID, "ADMIN", h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, a.ID, "ADMIN", utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	h.Admins.LogActivity(ctx, a.ID, "login", "admins", a.ID, "admin logged in")
	h.Admins.RecordSession(ctx, a.ID)

	return c.JSON(http.StatusOK, adminAuthResp{
		Admin:   adminPart{ID: a.ID, Username: a.Username, Name: a.Name, Email: a.Email, Role: "ADMIN"},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}

// Permissions returns the caller's own capability record so the admin
// UI can hide actions the account cannot perform.
func (h *AdminAuthHandler) Permissions(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Admins.GetPermissions(ctx, adminID)
	if err != nil {
		if err == sql.ErrNoRows {
			// No record means no capabilities; report the all-false set.
			p = model.Permissions{AdminID: adminID}
		} else {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"admin_id":             p.AdminID,
		"can_create_schedules": p.CanCreateSchedules,
		"can_edit_schedules":   p.CanEditSchedules,
		"can_delete_schedules": p.CanDeleteSchedules,
		"can_view_all_bookings": p.CanViewAllBookings,
		"can_cancel_bookings":   p.CanCancelBookings,
		"can_manage_admins":     p.CanManageAdmins,
	})
}
