package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// ScheduleRepository is a PostgreSQL implementation of repository.ScheduleRepository.
type ScheduleRepository struct {
	q Querier
}

// NewScheduleRepository creates a new PostgreSQL schedule repository.
func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{q: db}
}

// NewScheduleRepositoryWithTx creates a schedule repository using a transaction.
func NewScheduleRepositoryWithTx(tx *sql.Tx) *ScheduleRepository {
	return &ScheduleRepository{q: tx}
}

const scheduleColumns = `id, driver_id, vehicle_id, date, shift, status, checkin_time, checkout_time, is_late, is_early_checkout, time_to_open, time_to_close`

// Create persists a new schedule. Unique indexes on (date, shift, driver_id)
// and (date, shift, vehicle_id) back the duplicate-slot invariant.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *domain.DriverSchedule) error {
	query := `
		INSERT INTO driver_schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.q.ExecContext(ctx, query,
		schedule.ID,
		schedule.DriverID,
		schedule.VehicleID,
		schedule.Date,
		schedule.Shift,
		schedule.Status,
		nullTime(schedule.CheckinTime),
		nullTime(schedule.CheckoutTime),
		schedule.IsLate,
		schedule.IsEarlyCheckout,
		schedule.TimeToOpen,
		schedule.TimeToClose,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrDuplicateSlot
		}
		return err
	}

	return nil
}

// GetByID retrieves a schedule by ID.
func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*domain.DriverSchedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM driver_schedules WHERE id = $1`

	row := r.q.QueryRowContext(ctx, query, id)
	schedule, err := scanSchedule(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return schedule, nil
}

// FindByDateAndShifts retrieves schedules for a calendar day, shift set and
// status set, in creation order.
func (r *ScheduleRepository) FindByDateAndShifts(ctx context.Context, date time.Time, shifts []domain.Shift, statuses []domain.ScheduleStatus) ([]*domain.DriverSchedule, error) {
	if len(shifts) == 0 || len(statuses) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + scheduleColumns + `
		FROM driver_schedules
		WHERE date = $1 AND shift = ANY($2) AND status = ANY($3)
		ORDER BY created_at, id
	`

	shiftArgs := make([]string, len(shifts))
	for i, s := range shifts {
		shiftArgs[i] = string(s)
	}
	statusArgs := make([]string, len(statuses))
	for i, s := range statuses {
		statusArgs[i] = string(s)
	}

	rows, err := r.q.QueryContext(ctx, query, dateOnly(date), pq.Array(shiftArgs), pq.Array(statusArgs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSchedules(rows)
}

// FindByDriverAndDate retrieves a driver's schedules, optionally limited to a day.
func (r *ScheduleRepository) FindByDriverAndDate(ctx context.Context, driverID string, date time.Time) ([]*domain.DriverSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM driver_schedules
		WHERE driver_id = $1 AND ($2::date IS NULL OR date = $2)
		ORDER BY date, shift
	`

	var day any
	if !date.IsZero() {
		day = dateOnly(date)
	}

	rows, err := r.q.QueryContext(ctx, query, driverID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSchedules(rows)
}

// ExistsSlot reports whether the driver or vehicle slot is already occupied.
func (r *ScheduleRepository) ExistsSlot(ctx context.Context, date time.Time, shift domain.Shift, driverID, vehicleID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM driver_schedules
			WHERE date = $1 AND shift = $2 AND (driver_id = $3 OR vehicle_id = $4)
		)
	`

	var exists bool
	err := r.q.QueryRowContext(ctx, query, dateOnly(date), shift, driverID, vehicleID).Scan(&exists)
	return exists, err
}

// Update updates an existing schedule.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *domain.DriverSchedule) error {
	query := `
		UPDATE driver_schedules
		SET status = $1, checkin_time = $2, checkout_time = $3, is_late = $4, is_early_checkout = $5
		WHERE id = $6
	`

	result, err := r.q.ExecContext(ctx, query,
		schedule.Status,
		nullTime(schedule.CheckinTime),
		nullTime(schedule.CheckoutTime),
		schedule.IsLate,
		schedule.IsEarlyCheckout,
		schedule.ID,
	)
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

// CompleteExpired auto-completes IN_PROGRESS schedules past their close time.
// The conditional WHERE makes the sweep idempotent and safe to run next to
// request-path writes.
func (r *ScheduleRepository) CompleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE driver_schedules
		SET status = $1, checkout_time = time_to_close
		WHERE status = $2 AND time_to_close < $3
	`

	result, err := r.q.ExecContext(ctx, query, domain.ScheduleStatusCompleted, domain.ScheduleStatusInProgress, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func scanSchedule(scan func(dest ...any) error) (*domain.DriverSchedule, error) {
	var schedule domain.DriverSchedule
	var checkinTime, checkoutTime sql.NullTime

	err := scan(
		&schedule.ID,
		&schedule.DriverID,
		&schedule.VehicleID,
		&schedule.Date,
		&schedule.Shift,
		&schedule.Status,
		&checkinTime,
		&checkoutTime,
		&schedule.IsLate,
		&schedule.IsEarlyCheckout,
		&schedule.TimeToOpen,
		&schedule.TimeToClose,
	)
	if err != nil {
		return nil, err
	}

	if checkinTime.Valid {
		schedule.CheckinTime = checkinTime.Time
	}
	if checkoutTime.Valid {
		schedule.CheckoutTime = checkoutTime.Time
	}

	return &schedule, nil
}

func collectSchedules(rows *sql.Rows) ([]*domain.DriverSchedule, error) {
	var schedules []*domain.DriverSchedule
	for rows.Next() {
		schedule, err := scanSchedule(rows.Scan)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Ensure ScheduleRepository implements repository.ScheduleRepository.
var _ repository.ScheduleRepository = (*ScheduleRepository)(nil)
