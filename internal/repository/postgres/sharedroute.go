package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// SharedRouteRepository is a PostgreSQL implementation of repository.SharedRouteRepository.
type SharedRouteRepository struct {
	q Querier
}

// NewSharedRouteRepository creates a new PostgreSQL shared-route repository.
func NewSharedRouteRepository(db *sql.DB) *SharedRouteRepository {
	return &SharedRouteRepository{q: db}
}

// NewSharedRouteRepositoryWithTx creates a shared-route repository using a transaction.
func NewSharedRouteRepositoryWithTx(tx *sql.Tx) *SharedRouteRepository {
	return &SharedRouteRepository{q: tx}
}

// Create persists a new shared route and its stops.
func (r *SharedRouteRepository) Create(ctx context.Context, route *domain.SharedRoute) error {
	query := `
		INSERT INTO shared_routes (id, driver_id, vehicle_id, schedule_id, distance_estimate, duration_estimate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		route.ID,
		route.DriverID,
		route.VehicleID,
		route.ScheduleID,
		route.DistanceEstimate,
		route.DurationEstimate,
		route.CreatedAt,
	)
	if err != nil {
		return err
	}

	return r.insertStops(ctx, route.ID, route.Stops)
}

// GetByID retrieves a shared route with its stops in order.
func (r *SharedRouteRepository) GetByID(ctx context.Context, id string) (*domain.SharedRoute, error) {
	query := `
		SELECT id, driver_id, vehicle_id, schedule_id, distance_estimate, duration_estimate, created_at
		FROM shared_routes WHERE id = $1
	`

	var route domain.SharedRoute
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&route.ID,
		&route.DriverID,
		&route.VehicleID,
		&route.ScheduleID,
		&route.DistanceEstimate,
		&route.DurationEstimate,
		&route.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	stops, err := r.loadStops(ctx, id)
	if err != nil {
		return nil, err
	}
	route.Stops = stops

	return &route, nil
}

// AppendStops adds stops to an existing route and refreshes its estimates.
func (r *SharedRouteRepository) AppendStops(ctx context.Context, route *domain.SharedRoute, stops []domain.RouteStop) error {
	query := `
		UPDATE shared_routes SET distance_estimate = $1, duration_estimate = $2 WHERE id = $3
	`

	result, err := r.q.ExecContext(ctx, query, route.DistanceEstimate, route.DurationEstimate, route.ID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return r.insertStops(ctx, route.ID, stops)
}

// FindActive retrieves routes that still have at least one unpassed stop.
func (r *SharedRouteRepository) FindActive(ctx context.Context) ([]*domain.SharedRoute, error) {
	query := `
		SELECT DISTINCT sr.id, sr.driver_id, sr.vehicle_id, sr.schedule_id, sr.distance_estimate, sr.duration_estimate, sr.created_at
		FROM shared_routes sr
		JOIN shared_route_stops st ON st.route_id = sr.id AND NOT st.is_pass
		ORDER BY sr.created_at
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*domain.SharedRoute
	for rows.Next() {
		var route domain.SharedRoute
		if err := rows.Scan(
			&route.ID,
			&route.DriverID,
			&route.VehicleID,
			&route.ScheduleID,
			&route.DistanceEstimate,
			&route.DurationEstimate,
			&route.CreatedAt,
		); err != nil {
			return nil, err
		}
		routes = append(routes, &route)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, route := range routes {
		stops, err := r.loadStops(ctx, route.ID)
		if err != nil {
			return nil, err
		}
		route.Stops = stops
	}

	return routes, nil
}

func (r *SharedRouteRepository) insertStops(ctx context.Context, routeID string, stops []domain.RouteStop) error {
	query := `
		INSERT INTO shared_route_stops (route_id, stop_order, point_type, trip_id, point_name, lat, lng, is_pass)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, stop := range stops {
		_, err := r.q.ExecContext(ctx, query,
			routeID,
			stop.Order,
			stop.PointType,
			stop.TripID,
			stop.Point.Name,
			stop.Point.Lat,
			stop.Point.Lng,
			stop.IsPass,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *SharedRouteRepository) loadStops(ctx context.Context, routeID string) ([]domain.RouteStop, error) {
	query := `
		SELECT stop_order, point_type, trip_id, point_name, lat, lng, is_pass
		FROM shared_route_stops WHERE route_id = $1 ORDER BY stop_order
	`

	rows, err := r.q.QueryContext(ctx, query, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stops []domain.RouteStop
	for rows.Next() {
		var stop domain.RouteStop
		if err := rows.Scan(
			&stop.Order,
			&stop.PointType,
			&stop.TripID,
			&stop.Point.Name,
			&stop.Point.Lat,
			&stop.Point.Lng,
			&stop.IsPass,
		); err != nil {
			return nil, err
		}
		stops = append(stops, stop)
	}

	return stops, rows.Err()
}

// Ensure SharedRouteRepository implements repository.SharedRouteRepository.
var _ repository.SharedRouteRepository = (*SharedRouteRepository)(nil)
