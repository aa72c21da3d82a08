package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

// Create persists a new booking and its trip references.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (id, booking_code, customer_id, trip_ids, total_amount, payment_method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		booking.BookingCode,
		booking.CustomerID,
		pq.Array(booking.TripIDs),
		booking.TotalAmount,
		booking.PaymentMethod,
		booking.Status,
		booking.CreatedAt,
	)

	return err
}

// GetByCode retrieves a booking by its unique booking code.
func (r *BookingRepository) GetByCode(ctx context.Context, code string) (*domain.Booking, error) {
	query := `
		SELECT id, booking_code, customer_id, trip_ids, total_amount, payment_method, status, created_at
		FROM bookings WHERE booking_code = $1
	`

	var booking domain.Booking
	err := r.q.QueryRowContext(ctx, query, code).Scan(
		&booking.ID,
		&booking.BookingCode,
		&booking.CustomerID,
		pq.Array(&booking.TripIDs),
		&booking.TotalAmount,
		&booking.PaymentMethod,
		&booking.Status,
		&booking.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &booking, nil
}

// UpdateStatus updates the status of a booking.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	query := `UPDATE bookings SET status = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
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

	return nil
}

// Delete removes a booking.
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM bookings WHERE id = $1`

	_, err := r.q.ExecContext(ctx, query, id)
	return err
}

// Ensure BookingRepository implements repository.BookingRepository.
var _ repository.BookingRepository = (*BookingRepository)(nil)
