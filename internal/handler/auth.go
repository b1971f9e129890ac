package handler

import (
	"context"      // provides context with cancellation for DB calls
	"database/sql" // SQL database interactions
	"errors"       // sentinel response messages
	"net/http"     // HTTP status codes and primitives
	"strconv"      // string-to-int conversion
	"strings"      // string manipulation utilities
	"time"         // timeouts for DB calls

	"github.com/golang-jwt/jwt/v5" // JSON Web Token library for parsing access tokens
	"github.com/labstack/echo/v4"  // Echo framework for HTTP routing

	"github.com/iliyamo/campus-bus-reservation/internal/captcha"    // login challenge store
	"github.com/iliyamo/campus-bus-reservation/internal/config"     // app configuration
	"github.com/iliyamo/campus-bus-reservation/internal/model"      // persistence models
	"github.com/iliyamo/campus-bus-reservation/internal/repository" // DB repositories
	"github.com/iliyamo/campus-bus-reservation/internal/utils"      // helper functions (hashing, token issuing)
	"github.com/iliyamo/campus-bus-reservation/internal/validate"   // registration input rules
)

// AuthHandler bundles dependencies for student auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Captchas captcha.Store
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, cs captcha.Store) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Captchas: cs}
}

// ----- DTOs -----

type registerReq struct {
	StudentID string `json:"student_id"`
	Year      int    `json:"year"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}
type loginReq struct {
	StudentID     string `json:"student_id"`
	Year          int    `json:"year"`
	Password      string `json:"password"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type studentPart struct {
	ID        uint64 `json:"id"`
	StudentID string `json:"student_id"`
	Year      int    `json:"year"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}
type authResp struct {
	User    studentPart `json:"user"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

// Captcha issues a fresh arithmetic challenge for the login form.
// Clients send the returned captcha_id and their answer with the login
// request; each challenge is single-use and expires after a few
// minutes.
func (h *AuthHandler) Captcha(c echo.Context) error {
	ch, err := h.Captchas.Issue(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue captcha failed"})
	}
	return c.JSON(http.StatusOK, ch)
}

// Register: validate the campus rules, create the student and return
// tokens immediately.  Validation failures name the offending field so
// the form can highlight it.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if req.StudentID == "" || req.Name == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "all fields are required"})
	}
	if !validate.StudentID(req.Year, req.StudentID) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student id for the selected year"})
	}
	if !validate.Email(req.Email, h.Cfg.EmailDomain) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email must end with " + h.Cfg.EmailDomain})
	}
	if !validate.Phone(req.Phone) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone must be 10 digits"})
	}
	if !validate.Password(req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be 8+ chars with an uppercase letter, a digit and a special character"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := model.User{StudentID: req.StudentID, Year: req.Year, Name: req.Name, Email: req.Email, Phone: req.Phone}
	uid, err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrStudentExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "student id or email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	access, refresh, err := h.issuePair(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, authResp{
		User:    studentPart{ID: uid, StudentID: u.StudentID, Year: u.Year, Name: u.Name, Email: u.Email, Role: "STUDENT"},
		Access:  access,
		Refresh: refresh, // raw back to client
	})
}

// Login: check the ID format, verify the captcha, then the
// credentials, and return a new token pair.  A malformed ID or wrong
// captcha is 400 while wrong credentials are 401, and the captcha is
// consumed either way so every attempt costs a fresh challenge.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	if req.StudentID == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_id/password required"})
	}
	if !validate.StudentID(req.Year, req.StudentID) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid student id for the selected year"})
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

	u, err := h.Users.GetByStudentID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, refresh, err := h.issuePair(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, authResp{
		User:    studentPart{ID: u.ID, StudentID: u.StudentID, Year: u.Year, Name: u.Name, Email: u.Email, Role: "STUDENT"},
		Access:  access,
		Refresh: refresh,
	})
}

// Error strings double as response messages for the token-issuing
// steps shared by register, login and refresh.
var (
	errIssueAccess  = errors.New("issue access failed")
	errIssueRefresh = errors.New("issue refresh failed")
	errSaveRefresh  = errors.New("save refresh failed")
)

// issuePair mints an access/refresh pair for a student and stores the
// refresh hash.  The error strings double as response messages.
func (h *AuthHandler) issuePair(ctx context.Context, uid uint64) (tokenPart, tokenPart, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, "STUDENT", h.Cfg.AccessTTLMin)
	if err != nil {
		return tokenPart{}, tokenPart{}, errIssueAccess
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return tokenPart{}, tokenPart{}, errIssueRefresh
	}
	if err := h.Tokens.StoreRefresh(ctx, uid, "STUDENT", utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return tokenPart{}, tokenPart{}, errSaveRefresh
	}
	return tokenPart{Token: access.Token, Expires: access.Exp},
		tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, nil
}

// Refresh: validate by hash, revoke old, issue new (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	raw := strings.TrimSpace(req.RefreshToken)
	hash := utils.HashRefreshRaw(raw)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, role, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil || role != "STUDENT" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	access, refresh, err := h.issuePair(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, authResp{
		User:    studentPart{ID: u.ID, StudentID: u.StudentID, Year: u.Year, Name: u.Name, Email: u.Email, Role: "STUDENT"},
		Access:  access,
		Refresh: refresh,
	})
}

// RefreshAccess: validate a refresh token and return a new access token
// WITHOUT rotating the refresh token, for clients that only need a
// fresh short-lived access token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, role, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout supports two modes: revoking one specific refresh token (body
// carries refresh_token) or revoking every session of the caller (a
// valid bearer token and no body token).  The Authorization header is
// parsed here directly so this endpoint works without the JWT
// middleware.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid uint64
	var role string
	hasBearer := false
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		raw := strings.TrimPrefix(auth, "Bearer ")
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, echo.ErrUnauthorized
			}
			return []byte(h.Cfg.JWTSecret), nil
		})
		if err == nil && tok.Valid {
			if claims, ok := tok.Claims.(jwt.MapClaims); ok {
				role, _ = claims["role"].(string)
				switch sub := claims["sub"].(type) {
				case float64:
					uid = uint64(sub)
					hasBearer = true
				case string:
					if parsed, err := strconv.ParseUint(sub, 10, 64); err == nil {
						uid = parsed
						hasBearer = true
					}
				}
			}
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// All-sessions logout: bearer present, no specific token named.
	if hasBearer && refreshToken == "" {
		if uid == 0 || role == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		if err := h.Tokens.RevokeAllForUser(ctx, uid, role); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	// Single-session logout by refresh token.
	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"role":    c.Get("role"),
	})
}
