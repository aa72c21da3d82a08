package tests

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func scheduleOn(id string, date time.Time, shift domain.Shift, driverID, vehicleID string, status domain.ScheduleStatus) *domain.DriverSchedule {
	open, close := shift.Window(date)
	return &domain.DriverSchedule{
		ID:          id,
		DriverID:    driverID,
		VehicleID:   vehicleID,
		Date:        date,
		Shift:       shift,
		Status:      status,
		TimeToOpen:  open,
		TimeToClose: close,
	}
}

func TestAvailability_ResolveRejectsInvertedWindow(t *testing.T) {
	svc := service.NewAvailabilityService(NewMockScheduleRepository(), NewMockTripRepository())

	from := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if _, err := svc.Resolve(context.Background(), from, from); err != service.ErrInvalidTimeWindow {
		t.Fatalf("expected ErrInvalidTimeWindow, got %v", err)
	}
}

func TestAvailability_ResolveFindsOverlappingShifts(t *testing.T) {
	ctx := context.Background()
	scheduleRepo := NewMockScheduleRepository()
	svc := service.NewAvailabilityService(scheduleRepo, NewMockTripRepository())

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	// Request is for tomorrow, so the same-day rule does not apply.
	svc.SetClock(fixedClock(date.Add(-10 * time.Hour)))

	scheduleRepo.AddSchedule(scheduleOn("sch-a", date, domain.ShiftA, "drv-1", "veh-1", domain.ScheduleStatusNotStarted))
	scheduleRepo.AddSchedule(scheduleOn("sch-b", date, domain.ShiftB, "drv-2", "veh-2", domain.ScheduleStatusNotStarted))
	scheduleRepo.AddSchedule(scheduleOn("sch-d", date, domain.ShiftD, "drv-3", "veh-3", domain.ScheduleStatusNotStarted))

	// 08:00-09:00 overlaps shift A (06-14) only.
	from := date.Add(8 * time.Hour)
	schedules, err := svc.Resolve(ctx, from, from.Add(time.Hour))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(schedules) != 1 || schedules[0].ID != "sch-a" {
		t.Fatalf("expected only sch-a, got %d schedules", len(schedules))
	}

	// 13:00-15:00 overlaps A, B and D.
	from = date.Add(13 * time.Hour)
	schedules, err = svc.Resolve(ctx, from, from.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(schedules) != 3 {
		t.Fatalf("expected 3 schedules, got %d", len(schedules))
	}
}

func TestAvailability_StartedShiftAdmitsOnlyInProgress(t *testing.T) {
	ctx := context.Background()
	scheduleRepo := NewMockScheduleRepository()
	svc := service.NewAvailabilityService(scheduleRepo, NewMockTripRepository())

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	// Shift A started at 06:00; it is now 08:00 on the same day.
	svc.SetClock(fixedClock(date.Add(8 * time.Hour)))

	scheduleRepo.AddSchedule(scheduleOn("sch-idle", date, domain.ShiftA, "drv-1", "veh-1", domain.ScheduleStatusNotStarted))
	scheduleRepo.AddSchedule(scheduleOn("sch-working", date, domain.ShiftA, "drv-2", "veh-2", domain.ScheduleStatusInProgress))

	from := date.Add(9 * time.Hour)
	schedules, err := svc.Resolve(ctx, from, from.Add(time.Hour))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(schedules) != 1 {
		t.Fatalf("expected 1 schedule, got %d", len(schedules))
	}
	if schedules[0].ID != "sch-working" {
		t.Errorf("expected the checked-in schedule, got %s", schedules[0].ID)
	}
}

func TestAvailability_FilterConflictsDropsBusyVehiclesAndDrivers(t *testing.T) {
	ctx := context.Background()
	scheduleRepo := NewMockScheduleRepository()
	tripRepo := NewMockTripRepository()
	svc := service.NewAvailabilityService(scheduleRepo, tripRepo)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	from := date.Add(9 * time.Hour)
	to := from.Add(2 * time.Hour)

	schedules := []*domain.DriverSchedule{
		scheduleOn("sch-1", date, domain.ShiftA, "drv-1", "veh-1", domain.ScheduleStatusNotStarted),
		scheduleOn("sch-2", date, domain.ShiftA, "drv-2", "veh-2", domain.ScheduleStatusNotStarted),
		scheduleOn("sch-3", date, domain.ShiftA, "drv-3", "veh-3", domain.ScheduleStatusNotStarted),
	}

	// veh-1 has an overlapping active trip, drv-3 too. A completed trip on
	// veh-2 must not count.
	tripRepo.AddTrip(&domain.Trip{
		ID: "trip-1", VehicleID: "veh-1", DriverID: "drv-9",
		TimeStartEstimate: from.Add(-time.Hour), TimeEndEstimate: from.Add(30 * time.Minute),
		Status: domain.TripStatusWaiting,
	})
	tripRepo.AddTrip(&domain.Trip{
		ID: "trip-2", VehicleID: "veh-2", DriverID: "drv-2",
		TimeStartEstimate: from, TimeEndEstimate: to,
		Status: domain.TripStatusCompleted,
	})
	tripRepo.AddTrip(&domain.Trip{
		ID: "trip-3", VehicleID: "veh-9", DriverID: "drv-3",
		TimeStartEstimate: to.Add(-time.Minute), TimeEndEstimate: to.Add(time.Hour),
		Status: domain.TripStatusPayed,
	})

	filtered, err := svc.FilterConflicts(ctx, schedules, from, to)
	if err != nil {
		t.Fatalf("filter failed: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("expected 1 schedule after filtering, got %d", len(filtered))
	}
	if filtered[0].ID != "sch-2" {
		t.Errorf("expected sch-2 to survive, got %s", filtered[0].ID)
	}
}

func TestAvailability_AdjacentTripDoesNotConflict(t *testing.T) {
	ctx := context.Background()
	scheduleRepo := NewMockScheduleRepository()
	tripRepo := NewMockTripRepository()
	svc := service.NewAvailabilityService(scheduleRepo, tripRepo)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	from := date.Add(9 * time.Hour)
	to := from.Add(time.Hour)

	schedules := []*domain.DriverSchedule{
		scheduleOn("sch-1", date, domain.ShiftA, "drv-1", "veh-1", domain.ScheduleStatusNotStarted),
	}

	// Trip ends exactly when the window starts: half-open intervals, no clash.
	tripRepo.AddTrip(&domain.Trip{
		ID: "trip-1", VehicleID: "veh-1", DriverID: "drv-1",
		TimeStartEstimate: from.Add(-2 * time.Hour), TimeEndEstimate: from,
		Status: domain.TripStatusWaiting,
	})

	filtered, err := svc.FilterConflicts(ctx, schedules, from, to)
	if err != nil {
		t.Fatalf("filter failed: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("expected adjacent trip to be ignored, got %d schedules", len(filtered))
	}
}
