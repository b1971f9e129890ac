package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/campus-bus-reservation/internal/model"
)

// RouteRepo reads the 'routes' reference table. Routes are seeded
// outside the service, so only lookups are exposed.
type RouteRepo struct{ DB *sql.DB }

func NewRouteRepo(db *sql.DB) *RouteRepo { return &RouteRepo{DB: db} }

// List returns all routes ordered by name, for admin forms.
func (r *RouteRepo) List(ctx context.Context) ([]model.Route, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, route_name, start_point, end_point, duration_min FROM routes ORDER BY route_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Route{}
	for rows.Next() {
		var rt model.Route
		if err := rows.Scan(&rt.ID, &rt.RouteName, &rt.StartPoint, &rt.EndPoint, &rt.DurationMin); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// GetByID fetches one route.
func (r *RouteRepo) GetByID(ctx context.Context, id uint64) (model.Route, error) {
	var rt model.Route
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, route_name, start_point, end_point, duration_min FROM routes WHERE id=? LIMIT 1",
		id).Scan(&rt.ID, &rt.RouteName, &rt.StartPoint, &rt.EndPoint, &rt.DurationMin)
	return rt, err
}
