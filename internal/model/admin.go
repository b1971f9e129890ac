package model

import "time"

// Admin represents a transport-office account in the `admins` table.
// Admins manage routes, buses and departure schedules and can review
// bookings.  Authorization for individual actions is controlled by the
// linked Permissions record, not by the account itself.
type Admin struct {
    ID           uint64    // admins.id
    Username     string    // admins.username
    Name         string    // admins.name
    Email        string    // admins.email
    Phone        string    // admins.phone
    PasswordHash string    // admins.password_hash
    CreatedAt    time.Time // admins.created_at
}

// Permissions is the 1:1 capability record in `admin_permissions`.
// New admins receive the default set (create/edit/view on, the
// destructive flags off) and the flags are checked per request by
// middleware.RequirePermission.
type Permissions struct {
    AdminID            uint64 // admin_permissions.admin_id
    CanCreateSchedules bool   // admin_permissions.can_create_schedules
    CanEditSchedules   bool   // admin_permissions.can_edit_schedules
    CanDeleteSchedules bool   // admin_permissions.can_delete_schedules
    CanViewAllBookings bool   // admin_permissions.can_view_all_bookings
    CanCancelBookings  bool   // admin_permissions.can_cancel_bookings
    CanManageAdmins    bool   // admin_permissions.can_manage_admins
}

// Activity is an append-only row in `admin_activity_log`.  Writes are
// best-effort: a failed log insert never fails the admin action.
type Activity struct {
    ID          uint64    // admin_activity_log.id
    AdminID     uint64    // admin_activity_log.admin_id
    ActionType  string    // admin_activity_log.action_type (login/create/update/delete)
    TableName   string    // admin_activity_log.table_name
    RecordID    uint64    // admin_activity_log.record_id
    Description string    // admin_activity_log.description
    CreatedAt   time.Time // admin_activity_log.created_at
}

// AdminSession is an informational row in `admin_sessions` recorded on
// each admin login.  The JWT layer is the source of truth for auth;
// this table only mirrors the original audit behaviour.
type AdminSession struct {
    ID        uint64    // admin_sessions.id
    AdminID   uint64    // admin_sessions.admin_id
    IsActive  bool      // admin_sessions.is_active
    CreatedAt time.Time // admin_sessions.created_at
}
