package repository

import (
	"context"

	"dispatch/internal/domain"
)

// VehicleRepository defines the read operations for vehicles and categories.
// Vehicles are managed by an external fleet system; the engine only reads.
type VehicleRepository interface {
	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetByIDs retrieves vehicles by ID, preserving the input order for the
	// IDs that exist.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Vehicle, error)

	// GetCategory retrieves a vehicle category by ID.
	GetCategory(ctx context.Context, id string) (*domain.VehicleCategory, error)

	// GetAllCategories retrieves all vehicle categories.
	GetAllCategories(ctx context.Context) ([]*domain.VehicleCategory, error)
}
