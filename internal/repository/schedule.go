package repository

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// ScheduleRepository defines the persistence operations for driver schedules.
type ScheduleRepository interface {
	// Create persists a new schedule. Returns ErrDuplicateSlot if the
	// (date, shift, driver) or (date, shift, vehicle) slot is taken.
	Create(ctx context.Context, schedule *domain.DriverSchedule) error

	// GetByID retrieves a schedule by ID.
	GetByID(ctx context.Context, id string) (*domain.DriverSchedule, error)

	// FindByDateAndShifts retrieves schedules on the given calendar day whose
	// shift is in shifts and whose status is in statuses, in creation order.
	FindByDateAndShifts(ctx context.Context, date time.Time, shifts []domain.Shift, statuses []domain.ScheduleStatus) ([]*domain.DriverSchedule, error)

	// FindByDriverAndDate retrieves a driver's schedules on a calendar day.
	// A zero date means all dates.
	FindByDriverAndDate(ctx context.Context, driverID string, date time.Time) ([]*domain.DriverSchedule, error)

	// ExistsSlot reports whether a schedule already occupies the
	// (date, shift, driver) or (date, shift, vehicle) slot.
	ExistsSlot(ctx context.Context, date time.Time, shift domain.Shift, driverID, vehicleID string) (bool, error)

	// Update updates an existing schedule.
	Update(ctx context.Context, schedule *domain.DriverSchedule) error

	// CompleteExpired transitions IN_PROGRESS schedules whose close time
	// passed before cutoff to COMPLETED. Idempotent; returns the number of
	// schedules transitioned.
	CompleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
