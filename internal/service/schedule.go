package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
	"dispatch/internal/repository/postgres"
)

// ScheduleService owns the driver-schedule lifecycle: batch creation with
// duplicate/conflict validation, the check-in/check-out state machine, and
// the recurring shift-close reconciliation sweep.
type ScheduleService struct {
	db           *sql.DB
	scheduleRepo repository.ScheduleRepository
	driverRepo   repository.DriverRepository
	vehicleRepo  repository.VehicleRepository
	notifier     *NotificationService
	now          func() time.Time
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(
	db *sql.DB,
	scheduleRepo repository.ScheduleRepository,
	driverRepo repository.DriverRepository,
	vehicleRepo repository.VehicleRepository,
	notifier *NotificationService,
) *ScheduleService {
	return &ScheduleService{
		db:           db,
		scheduleRepo: scheduleRepo,
		driverRepo:   driverRepo,
		vehicleRepo:  vehicleRepo,
		notifier:     notifier,
		now:          time.Now,
	}
}

// SetClock overrides the time source. Used by tests.
func (s *ScheduleService) SetClock(now func() time.Time) {
	s.now = now
}

// NewScheduleEntry is one schedule to create in a batch.
type NewScheduleEntry struct {
	DriverID  string
	VehicleID string
	Date      time.Time
	Shift     domain.Shift
}

// CreateSchedules validates and creates a batch of schedules. Any violation
// aborts the whole batch before anything is written.
func (s *ScheduleService) CreateSchedules(ctx context.Context, entries []NewScheduleEntry) ([]*domain.DriverSchedule, error) {
	seen := make(map[string]struct{}, len(entries)*2)

	schedules := make([]*domain.DriverSchedule, 0, len(entries))
	for _, entry := range entries {
		if entry.DriverID == "" {
			return nil, ErrInvalidDriverID
		}
		if !entry.Shift.Valid() {
			return nil, ErrInvalidShift
		}

		driver, err := s.driverRepo.GetByID(ctx, entry.DriverID)
		if err != nil {
			return nil, err
		}
		if driver.Status != domain.DriverStatusActive || driver.Role != domain.RoleDriver {
			return nil, fmt.Errorf("%w: %s", ErrDriverNotActive, entry.DriverID)
		}

		vehicle, err := s.vehicleRepo.GetByID(ctx, entry.VehicleID)
		if err != nil {
			return nil, err
		}
		if vehicle.Condition != domain.VehicleConditionAvailable {
			return nil, fmt.Errorf("%w: %s", ErrVehicleNotAvailable, entry.VehicleID)
		}

		exists, err := s.scheduleRepo.ExistsSlot(ctx, entry.Date, entry.Shift, entry.DriverID, entry.VehicleID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %s %s", ErrDuplicateScheduleSlot, entry.Date.Format("2006-01-02"), entry.Shift)
		}

		// Intra-batch collisions on either key abort the batch too.
		driverKey := slotKey(entry.Date, entry.Shift, "driver", entry.DriverID)
		vehicleKey := slotKey(entry.Date, entry.Shift, "vehicle", entry.VehicleID)
		if _, dup := seen[driverKey]; dup {
			return nil, fmt.Errorf("%w: %s %s driver %s", ErrDuplicateScheduleSlot, entry.Date.Format("2006-01-02"), entry.Shift, entry.DriverID)
		}
		if _, dup := seen[vehicleKey]; dup {
			return nil, fmt.Errorf("%w: %s %s vehicle %s", ErrDuplicateScheduleSlot, entry.Date.Format("2006-01-02"), entry.Shift, entry.VehicleID)
		}
		seen[driverKey] = struct{}{}
		seen[vehicleKey] = struct{}{}

		open, close := entry.Shift.Window(entry.Date)
		schedules = append(schedules, &domain.DriverSchedule{
			ID:          uuid.New().String(),
			DriverID:    entry.DriverID,
			VehicleID:   entry.VehicleID,
			Date:        entry.Date,
			Shift:       entry.Shift,
			Status:      domain.ScheduleStatusNotStarted,
			TimeToOpen:  open,
			TimeToClose: close,
		})
	}

	if err := s.createAll(ctx, schedules); err != nil {
		return nil, err
	}

	return schedules, nil
}

// createAll writes the batch in one transaction so concurrent batches cannot
// interleave partial results.
func (s *ScheduleService) createAll(ctx context.Context, schedules []*domain.DriverSchedule) error {
	if s.db == nil {
		// No database handle means a repository-backed test double; write
		// directly and rely on its duplicate detection.
		for _, schedule := range schedules {
			if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
				return mapDuplicate(err)
			}
		}
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txScheduleRepo := postgres.NewScheduleRepositoryWithTx(tx)
	for _, schedule := range schedules {
		if err = txScheduleRepo.Create(ctx, schedule); err != nil {
			return mapDuplicate(err)
		}
	}

	return tx.Commit()
}

func mapDuplicate(err error) error {
	if err == repository.ErrDuplicateSlot {
		return ErrDuplicateScheduleSlot
	}
	return err
}

// CheckIn transitions a driver's schedule from NOT_STARTED to IN_PROGRESS.
// The current time must fall inside the shift's tolerance window; a check-in
// later than shift start plus tolerance is flagged late.
func (s *ScheduleService) CheckIn(ctx context.Context, scheduleID, driverID string) (*domain.DriverSchedule, error) {
	schedule, err := s.ownedSchedule(ctx, scheduleID, driverID)
	if err != nil {
		return nil, err
	}

	if schedule.Status != domain.ScheduleStatusNotStarted {
		return nil, ErrScheduleAlreadyStarted
	}

	shiftStart, shiftEnd := schedule.Shift.Window(schedule.Date)
	expectedCheckin := shiftStart.Add(-domain.ShiftTimeDifference)
	expectedCheckout := shiftEnd.Add(domain.ShiftTimeDifference)

	now := s.now()
	if now.Before(expectedCheckin) || now.After(expectedCheckout) {
		return nil, ErrNotInShiftTime
	}

	schedule.Status = domain.ScheduleStatusInProgress
	schedule.CheckinTime = now
	schedule.IsLate = now.After(shiftStart.Add(domain.ShiftTimeDifference))

	if err := s.scheduleRepo.Update(ctx, schedule); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyCheckin(ctx, schedule)
	}

	return schedule, nil
}

// CheckOut transitions a driver's schedule from IN_PROGRESS to COMPLETED. A
// check-out before shift end succeeds but is flagged early.
func (s *ScheduleService) CheckOut(ctx context.Context, scheduleID, driverID string) (*domain.DriverSchedule, error) {
	schedule, err := s.ownedSchedule(ctx, scheduleID, driverID)
	if err != nil {
		return nil, err
	}

	if schedule.Status != domain.ScheduleStatusInProgress {
		return nil, ErrScheduleNotInProgress
	}

	_, expectedCheckout := schedule.Shift.Window(schedule.Date)

	now := s.now()
	schedule.Status = domain.ScheduleStatusCompleted
	schedule.CheckoutTime = now
	schedule.IsEarlyCheckout = now.Before(expectedCheckout)

	if err := s.scheduleRepo.Update(ctx, schedule); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyCheckout(ctx, schedule)
	}

	return schedule, nil
}

// GetSchedules lists a driver's schedules, optionally limited to one day.
func (s *ScheduleService) GetSchedules(ctx context.Context, driverID string, date time.Time) ([]*domain.DriverSchedule, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	return s.scheduleRepo.FindByDriverAndDate(ctx, driverID, date)
}

// ownedSchedule loads a schedule and verifies driver ownership. Ownership
// mismatch is reported as not found, not as a permission problem.
func (s *ScheduleService) ownedSchedule(ctx context.Context, scheduleID, driverID string) (*domain.DriverSchedule, error) {
	if scheduleID == "" {
		return nil, ErrInvalidScheduleID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	if schedule.DriverID != driverID {
		return nil, ErrScheduleNotFound
	}

	return schedule, nil
}

func slotKey(date time.Time, shift domain.Shift, kind, id string) string {
	return fmt.Sprintf("%s|%s|%s|%s", date.Format("2006-01-02"), shift, kind, id)
}

// StartSweeper launches the recurring reconciliation sweep that auto-completes
// IN_PROGRESS schedules whose close time (plus tolerance) has passed. The
// underlying update is conditional, so the sweep is idempotent and safe next
// to request-path writes. Returns a stop function.
func (s *ScheduleService) StartSweeper(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				n, err := s.scheduleRepo.CompleteExpired(ctx, s.now().Add(-domain.ShiftTimeDifference))
				cancel()
				if err != nil {
					log.Printf("schedule sweep failed: %v", err)
				} else if n > 0 {
					log.Printf("schedule sweep auto-completed %d schedules", n)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}
