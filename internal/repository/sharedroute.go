package repository

import (
	"context"

	"dispatch/internal/domain"
)

// SharedRouteRepository defines the persistence operations for shared routes.
type SharedRouteRepository interface {
	// Create persists a new shared route and its stops.
	Create(ctx context.Context, route *domain.SharedRoute) error

	// GetByID retrieves a shared route with its stops, ordered by stop order.
	GetByID(ctx context.Context, id string) (*domain.SharedRoute, error)

	// AppendStops adds stops to an existing route and updates its distance
	// and duration estimates.
	AppendStops(ctx context.Context, route *domain.SharedRoute, stops []domain.RouteStop) error

	// FindActive retrieves routes that still have at least one unpassed stop.
	FindActive(ctx context.Context) ([]*domain.SharedRoute, error)
}
