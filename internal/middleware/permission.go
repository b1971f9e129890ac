package middleware

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/campus-bus-reservation/internal/model"
    "github.com/iliyamo/campus-bus-reservation/internal/repository"
)

// Capability names accepted by RequirePermission.  They mirror the
// boolean columns of admin_permissions.
const (
    PermCreateSchedules = "create_schedules"
    PermEditSchedules   = "edit_schedules"
    PermDeleteSchedules = "delete_schedules"
    PermViewAllBookings = "view_all_bookings"
    PermCancelBookings  = "cancel_bookings"
    PermManageAdmins    = "manage_admins"
)

// RequirePermission checks the caller's admin_permissions record for
// the named capability.  It runs after JWTAuth and RequireRole("ADMIN"),
// so the subject in context is an admin ID.  A missing permissions row
// is treated as all capabilities denied rather than an error: an admin
// without a record cannot mutate anything.
func RequirePermission(admins *repository.AdminRepo, capability string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            adminID, ok := subjectID(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            perms, err := admins.GetPermissions(c.Request().Context(), adminID)
            if err != nil {
                // No row (or a backend fault) denies the capability;
                // the distinction is not worth leaking to the caller.
                return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
            }
            if !hasCapability(perms, capability) {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "permission denied"})
            }
            return next(c)
        }
    }
}

func hasCapability(p model.Permissions, capability string) bool {
    switch capability {
    case PermCreateSchedules:
        return p.CanCreateSchedules
    case PermEditSchedules:
        return p.CanEditSchedules
    case PermDeleteSchedules:
        return p.CanDeleteSchedules
    case PermViewAllBookings:
        return p.CanViewAllBookings
    case PermCancelBookings:
        return p.CanCancelBookings
    case PermManageAdmins:
        return p.CanManageAdmins
    }
    return false
}

// subjectID extracts the numeric subject stored by JWTAuth.  JWT
// numeric claims decode as float64; tokens minted by older builds may
// carry strings.
func subjectID(c echo.Context) (uint64, bool) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, true
    case float64:
        return uint64(t), true
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, true
        }
    }
    return 0, false
}
