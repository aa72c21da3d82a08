package repository

import (
	"context"

	"dispatch/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking and its trip references.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByCode retrieves a booking by its unique booking code.
	GetByCode(ctx context.Context, code string) (*domain.Booking, error)

	// UpdateStatus updates the status of a booking.
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error

	// Delete removes a booking and its trip references.
	Delete(ctx context.Context, id string) error
}
