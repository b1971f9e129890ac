package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/campus-bus-reservation/internal/model"
)

// BusRepo reads the 'buses' reference table.
type BusRepo struct{ DB *sql.DB }

func NewBusRepo(db *sql.DB) *BusRepo { return &BusRepo{DB: db} }

// GetByNumber fetches a bus by its fleet number. Admins create
// schedules by bus number, so a miss is reported as ErrBusNotFound
// rather than raw sql.ErrNoRows.
func (r *BusRepo) GetByNumber(ctx context.Context, busNumber string) (model.Bus, error) {
	var b model.Bus
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, bus_number, capacity, route_id FROM buses WHERE bus_number=? LIMIT 1",
		strings.TrimSpace(busNumber)).Scan(&b.ID, &b.BusNumber, &b.Capacity, &b.RouteID)
	if err == sql.ErrNoRows {
		return b, ErrBusNotFound
	}
	return b, err
}

// GetByID fetches a bus by primary key.
func (r *BusRepo) GetByID(ctx context.Context, id uint64) (model.Bus, error) {
	var b model.Bus
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, bus_number, capacity, route_id FROM buses WHERE id=? LIMIT 1",
		id).Scan(&b.ID, &b.BusNumber, &b.Capacity, &b.RouteID)
	if err == sql.ErrNoRows {
		return b, ErrBusNotFound
	}
	return b, err
}
