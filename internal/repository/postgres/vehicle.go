package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT id, plate, category_id, condition FROM vehicles WHERE id = $1`

	var vehicle domain.Vehicle
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&vehicle.ID,
		&vehicle.Plate,
		&vehicle.CategoryID,
		&vehicle.Condition,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &vehicle, nil
}

// GetByIDs retrieves vehicles by ID, preserving input order.
func (r *VehicleRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Vehicle, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, plate, category_id, condition FROM vehicles WHERE id = ANY($1)`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*domain.Vehicle, len(ids))
	for rows.Next() {
		var vehicle domain.Vehicle
		if err := rows.Scan(&vehicle.ID, &vehicle.Plate, &vehicle.CategoryID, &vehicle.Condition); err != nil {
			return nil, err
		}
		byID[vehicle.ID] = &vehicle
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	vehicles := make([]*domain.Vehicle, 0, len(byID))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			vehicles = append(vehicles, v)
		}
	}

	return vehicles, nil
}

// GetCategory retrieves a vehicle category by ID.
func (r *VehicleRepository) GetCategory(ctx context.Context, id string) (*domain.VehicleCategory, error) {
	query := `SELECT id, name, number_of_seat FROM vehicle_categories WHERE id = $1`

	var category domain.VehicleCategory
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.NumberOfSeat,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &category, nil
}

// GetAllCategories retrieves all vehicle categories.
func (r *VehicleRepository) GetAllCategories(ctx context.Context) ([]*domain.VehicleCategory, error) {
	query := `SELECT id, name, number_of_seat FROM vehicle_categories ORDER BY name`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.VehicleCategory
	for rows.Next() {
		var category domain.VehicleCategory
		if err := rows.Scan(&category.ID, &category.Name, &category.NumberOfSeat); err != nil {
			return nil, err
		}
		categories = append(categories, &category)
	}

	return categories, rows.Err()
}

// Ensure VehicleRepository implements repository.VehicleRepository.
var _ repository.VehicleRepository = (*VehicleRepository)(nil)
