package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/campus-bus-reservation/internal/model"
	"github.com/iliyamo/campus-bus-reservation/internal/utils"
)

// UserRepo persists student accounts in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ErrStudentExists signals a duplicate student_id or email at registration.
var ErrStudentExists = errors.New("student id or email already exists")

// Create hashes the password, inserts the student and returns the new ID.
// A MySQL duplicate-key error (1062) on student_id or email is reported
// as ErrStudentExists so the handler can answer 409.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.StudentID = strings.TrimSpace(u.StudentID)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (student_id, year, name, email, phone, password_hash) VALUES (?,?,?,?,?,?)",
		u.StudentID, u.Year, u.Name, u.Email, u.Phone, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrStudentExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = uint64(id)
	u.PasswordHash = hash
	return u.ID, nil
}

// GetByStudentID fetches a student by their campus registration number.
func (r *UserRepo) GetByStudentID(ctx context.Context, studentID string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,student_id,year,name,email,phone,password_hash,created_at,updated_at FROM users WHERE student_id=? LIMIT 1",
		strings.TrimSpace(studentID)).Scan(&u.ID, &u.StudentID, &u.Year, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a student by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,student_id,year,name,email,phone,password_hash,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.StudentID, &u.Year, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
