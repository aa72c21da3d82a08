package service

import (
	"context"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// AvailabilityService resolves which driver schedules can serve a requested
// time window and filters out those already committed to overlapping trips.
type AvailabilityService struct {
	scheduleRepo repository.ScheduleRepository
	tripRepo     repository.TripRepository
	now          func() time.Time
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(
	scheduleRepo repository.ScheduleRepository,
	tripRepo repository.TripRepository,
) *AvailabilityService {
	return &AvailabilityService{
		scheduleRepo: scheduleRepo,
		tripRepo:     tripRepo,
		now:          time.Now,
	}
}

// SetClock overrides the time source. Used by tests.
func (s *AvailabilityService) SetClock(now func() time.Time) {
	s.now = now
}

// Resolve returns the schedules on the window's calendar day whose shift
// intersects [from, to) and whose status still admits new assignments.
//
// Same-day rule: once a shift's start hour has passed, only IN_PROGRESS
// schedules qualify. A driver who has not checked in by shift start is not
// trusted with a new assignment on that shift.
func (s *AvailabilityService) Resolve(ctx context.Context, from, to time.Time) ([]*domain.DriverSchedule, error) {
	if !from.Before(to) {
		return nil, ErrInvalidTimeWindow
	}

	shifts := domain.ShiftsOverlapping(from, from, to)
	if len(shifts) == 0 {
		return nil, nil
	}

	now := s.now()
	sameDay := sameCalendarDay(from, now)

	var openShifts, startedShifts []domain.Shift
	for _, shift := range shifts {
		start, _ := shift.Window(from)
		if sameDay && now.After(start) {
			startedShifts = append(startedShifts, shift)
		} else {
			openShifts = append(openShifts, shift)
		}
	}

	var schedules []*domain.DriverSchedule

	if len(openShifts) > 0 {
		found, err := s.scheduleRepo.FindByDateAndShifts(ctx, from, openShifts,
			[]domain.ScheduleStatus{domain.ScheduleStatusNotStarted, domain.ScheduleStatusInProgress})
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, found...)
	}

	if len(startedShifts) > 0 {
		found, err := s.scheduleRepo.FindByDateAndShifts(ctx, from, startedShifts,
			[]domain.ScheduleStatus{domain.ScheduleStatusInProgress})
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, found...)
	}

	return schedules, nil
}

// FilterConflicts drops schedules whose vehicle or driver already has an
// active trip overlapping [from, to). Input order is preserved.
func (s *AvailabilityService) FilterConflicts(ctx context.Context, schedules []*domain.DriverSchedule, from, to time.Time) ([]*domain.DriverSchedule, error) {
	if len(schedules) == 0 {
		return nil, nil
	}

	trips, err := s.tripRepo.FindActiveOverlapping(ctx, from, to)
	if err != nil {
		return nil, err
	}

	busyVehicles := make(map[string]struct{}, len(trips))
	busyDrivers := make(map[string]struct{}, len(trips))
	for _, trip := range trips {
		busyVehicles[trip.VehicleID] = struct{}{}
		busyDrivers[trip.DriverID] = struct{}{}
	}

	filtered := make([]*domain.DriverSchedule, 0, len(schedules))
	for _, schedule := range schedules {
		if _, busy := busyVehicles[schedule.VehicleID]; busy {
			continue
		}
		if _, busy := busyDrivers[schedule.DriverID]; busy {
			continue
		}
		filtered = append(filtered, schedule)
	}

	return filtered, nil
}

// Available runs Resolve then FilterConflicts for the window.
func (s *AvailabilityService) Available(ctx context.Context, from, to time.Time) ([]*domain.DriverSchedule, error) {
	schedules, err := s.Resolve(ctx, from, to)
	if err != nil {
		return nil, err
	}

	return s.FilterConflicts(ctx, schedules, from, to)
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
