package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"

	"github.com/iliyamo/campus-bus-reservation/internal/model"
	"github.com/iliyamo/campus-bus-reservation/internal/utils"
)

// AdminRepo persists transport-office accounts and their capability
// records. It also owns the append-only activity log and the
// informational admin_sessions table; writes to both are best-effort
// and never fail the surrounding operation.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

// ErrAdminExists signals a duplicate username or email at registration.
var ErrAdminExists = errors.New("admin username or email already exists")

// CreateWithPermissions inserts the admin and its default permission row
// in one transaction. Defaults mirror the seeding the transport office
// uses: create/edit/view on, the destructive capabilities off until a
// managing admin grants them.
func (r *AdminRepo) CreateWithPermissions(ctx context.Context, a *model.Admin, password string, cost int) (uint64, error) {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.Username = strings.TrimSpace(a.Username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
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
		"INSERT INTO admins (username, name, email, phone, password_hash) VALUES (?,?,?,?,?)",
		a.Username, a.Name, a.Email, a.Phone, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrAdminExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = uint64(id)
	const permQ = `INSERT INTO admin_permissions
        (admin_id, can_create_schedules, can_edit_schedules, can_delete_schedules,
         can_view_all_bookings, can_cancel_bookings, can_manage_admins)
        VALUES (?, TRUE, TRUE, FALSE, TRUE, FALSE, FALSE)`
	if _, err := tx.ExecContext(ctx, permQ, a.ID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return a.ID, nil
}

// GetByUsername fetches an admin by login name.
func (r *AdminRepo) GetByUsername(ctx context.Context, username string) (model.Admin, error) {
	var a model.Admin
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,name,email,phone,password_hash,created_at FROM admins WHERE username=? LIMIT 1",
		strings.TrimSpace(username)).Scan(&a.ID, &a.Username, &a.Name, &a.Email, &a.Phone, &a.PasswordHash, &a.CreatedAt)
	return a, err
}

// GetPermissions loads the capability flags for an admin. Missing rows
// surface as sql.ErrNoRows, which the permission middleware treats the
// same as an all-false record.
func (r *AdminRepo) GetPermissions(ctx context.Context, adminID uint64) (model.Permissions, error) {
	var p model.Permissions
	const q = `SELECT admin_id, can_create_schedules, can_edit_schedules, can_delete_schedules,
                      can_view_all_bookings, can_cancel_bookings, can_manage_admins
               FROM admin_permissions WHERE admin_id=? LIMIT 1`
	err := r.DB.QueryRowContext(ctx, q, adminID).Scan(
		&p.AdminID, &p.CanCreateSchedules, &p.CanEditSchedules, &p.CanDeleteSchedules,
		&p.CanViewAllBookings, &p.CanCancelBookings, &p.CanManageAdmins,
	)
	return p, err
}

// LogActivity appends a row to admin_activity_log. Failures are logged
// and swallowed: the audit trail is informational and must never break
// the admin action it describes.
func (r *AdminRepo) LogActivity(ctx context.Context, adminID uint64, actionType, tableName string, recordID uint64, description string) {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO admin_activity_log (admin_id, action_type, table_name, record_id, description) VALUES (?,?,?,?,?)",
		adminID, actionType, tableName, recordID, description)
	if err != nil {
		log.Printf("admin-activity: write failed (admin=%d action=%s): %v", adminID, actionType, err)
	}
}

// RecordSession inserts an admin_sessions row on login. Best-effort for
// the same reason as LogActivity.
func (r *AdminRepo) RecordSession(ctx context.Context, adminID uint64) {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO admin_sessions (admin_id, is_active) VALUES (?, TRUE)", adminID)
	if err != nil {
		log.Printf("admin-session: write failed (admin=%d): %v", adminID, err)
	}
}
