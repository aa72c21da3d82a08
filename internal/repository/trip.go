package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip. The insert is conditional on the trip's
	// schedule not already backing a non-terminal trip; losing that race
	// returns ErrScheduleTaken.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// FindActiveOverlapping retrieves non-terminal trips whose
	// [TimeStartEstimate, TimeEndEstimate) intersects [from, to).
	FindActiveOverlapping(ctx context.Context, from, to time.Time) ([]*domain.Trip, error)

	// FindActiveByCustomer retrieves a customer's non-terminal trips of the
	// given service type. Returns an empty slice if none.
	FindActiveByCustomer(ctx context.Context, customerID string, serviceType domain.ServiceType) ([]*domain.Trip, error)

	// UpdateStatus updates the status of a trip.
	UpdateStatus(ctx context.Context, id string, status domain.TripStatus) error

	// DeleteByIDs removes the given trips.
	DeleteByIDs(ctx context.Context, ids []string) error
}
