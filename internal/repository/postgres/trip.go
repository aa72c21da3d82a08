package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `id, customer_id, driver_id, vehicle_id, schedule_id, service_type, time_start_estimate, time_end_estimate, amount, payload, status, created_at`

var terminalTripStatuses = []string{
	string(domain.TripStatusCompleted),
	string(domain.TripStatusCancelled),
}

// Create persists a new trip. The INSERT only succeeds when the schedule does
// not already back a non-terminal trip, so two concurrent allocations of the
// same schedule cannot both commit. Pooled share trips are the exception:
// they deliberately multiplex one schedule, so an existing active share trip
// does not block another share trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		WHERE NOT EXISTS (
			SELECT 1 FROM trips
			WHERE schedule_id = $5 AND status != ALL($13)
			AND NOT ($6 = $14 AND service_type = $14)
		)
	`

	payload, err := json.Marshal(trip.Payload)
	if err != nil {
		return err
	}

	result, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.CustomerID,
		trip.DriverID,
		trip.VehicleID,
		trip.ScheduleID,
		trip.ServiceType,
		trip.TimeStartEstimate,
		trip.TimeEndEstimate,
		trip.Amount,
		payload,
		trip.Status,
		trip.CreatedAt,
		pq.Array(terminalTripStatuses),
		domain.ServiceBookingShare,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrScheduleTaken
	}

	return nil
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	row := r.q.QueryRowContext(ctx, query, id)
	trip, err := scanTrip(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// FindActiveOverlapping retrieves non-terminal trips intersecting [from, to).
func (r *TripRepository) FindActiveOverlapping(ctx context.Context, from, to time.Time) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE status != ALL($1) AND time_start_estimate < $3 AND $2 < time_end_estimate
		ORDER BY created_at
	`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(terminalTripStatuses), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTrips(rows)
}

// FindActiveByCustomer retrieves a customer's non-terminal trips of one service type.
func (r *TripRepository) FindActiveByCustomer(ctx context.Context, customerID string, serviceType domain.ServiceType) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE customer_id = $1 AND service_type = $2 AND status != ALL($3)
		ORDER BY created_at
	`

	rows, err := r.q.QueryContext(ctx, query, customerID, serviceType, pq.Array(terminalTripStatuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTrips(rows)
}

// UpdateStatus updates the status of a trip.
func (r *TripRepository) UpdateStatus(ctx context.Context, id string, status domain.TripStatus) error {
	query := `UPDATE trips SET status = $1 WHERE id = $2`

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

// DeleteByIDs removes the given trips.
func (r *TripRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM trips WHERE id = ANY($1)`

	_, err := r.q.ExecContext(ctx, query, pq.Array(ids))
	return err
}

func scanTrip(scan func(dest ...any) error) (*domain.Trip, error) {
	var trip domain.Trip
	var payload []byte

	err := scan(
		&trip.ID,
		&trip.CustomerID,
		&trip.DriverID,
		&trip.VehicleID,
		&trip.ScheduleID,
		&trip.ServiceType,
		&trip.TimeStartEstimate,
		&trip.TimeEndEstimate,
		&trip.Amount,
		&payload,
		&trip.Status,
		&trip.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &trip.Payload); err != nil {
			return nil, err
		}
	}

	return &trip, nil
}

func collectTrips(rows *sql.Rows) ([]*domain.Trip, error) {
	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows.Scan)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
