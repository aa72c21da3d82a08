package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

func seedFleet(vehicleRepo *MockVehicleRepository, categoryID string, seats, count int) []string {
	vehicleRepo.AddCategory(&domain.VehicleCategory{ID: categoryID, Name: categoryID, NumberOfSeat: seats})
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id := categoryID + "-veh-" + string(rune('a'+i))
		vehicleRepo.AddVehicle(&domain.Vehicle{
			ID:         id,
			CategoryID: categoryID,
			Condition:  domain.VehicleConditionAvailable,
		})
		ids = append(ids, id)
	}
	return ids
}

func schedulesForVehicles(date time.Time, shift domain.Shift, vehicleIDs []string) []*domain.DriverSchedule {
	schedules := make([]*domain.DriverSchedule, 0, len(vehicleIDs))
	for i, vehicleID := range vehicleIDs {
		schedules = append(schedules, scheduleOn(
			"sch-"+vehicleID, date, shift, "drv-"+string(rune('a'+i)), vehicleID,
			domain.ScheduleStatusNotStarted,
		))
	}
	return schedules
}

func TestAllocator_ExactCapacitySucceeds(t *testing.T) {
	ctx := context.Background()
	vehicleRepo := NewMockVehicleRepository()
	allocator := service.NewAllocatorService(vehicleRepo, service.NewTariffPricer(), nil, nil)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	vehicleIDs := seedFleet(vehicleRepo, "cat-4", 4, 3)
	schedules := schedulesForVehicles(date, domain.ShiftA, vehicleIDs)

	offers, err := allocator.GroupByCategory(ctx, schedules, domain.ServiceBookingHour, 2)
	if err != nil {
		t.Fatalf("grouping failed: %v", err)
	}

	allocations, err := allocator.Allocate(offers, []service.CategoryRequest{{CategoryID: "cat-4", Quantity: 3}})
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	if len(allocations) != 3 {
		t.Fatalf("expected 3 allocations, got %d", len(allocations))
	}

	// Every allocation names a distinct vehicle and carries its schedule.
	seen := make(map[string]bool)
	for _, alloc := range allocations {
		if seen[alloc.Vehicle.ID] {
			t.Fatalf("vehicle %s allocated twice", alloc.Vehicle.ID)
		}
		seen[alloc.Vehicle.ID] = true
		if alloc.Schedule == nil || alloc.Schedule.VehicleID != alloc.Vehicle.ID {
			t.Errorf("allocation for %s carries wrong schedule", alloc.Vehicle.ID)
		}
		if alloc.Price <= 0 {
			t.Errorf("expected positive price, got %f", alloc.Price)
		}
	}
}

func TestAllocator_ShortfallNamesCategory(t *testing.T) {
	ctx := context.Background()
	vehicleRepo := NewMockVehicleRepository()
	allocator := service.NewAllocatorService(vehicleRepo, service.NewTariffPricer(), nil, nil)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	vehicleIDs := seedFleet(vehicleRepo, "cat-4", 4, 2)
	schedules := schedulesForVehicles(date, domain.ShiftA, vehicleIDs)

	offers, err := allocator.GroupByCategory(ctx, schedules, domain.ServiceBookingHour, 2)
	if err != nil {
		t.Fatalf("grouping failed: %v", err)
	}

	_, err = allocator.Allocate(offers, []service.CategoryRequest{{CategoryID: "cat-4", Quantity: 3}})
	if !service.IsInsufficientAvailability(err) {
		t.Fatalf("expected insufficient availability, got %v", err)
	}

	var shortfall *service.InsufficientAvailabilityError
	if !errors.As(err, &shortfall) {
		t.Fatal("expected typed shortfall error")
	}
	if shortfall.CategoryID != "cat-4" || shortfall.Requested != 3 || shortfall.Available != 2 {
		t.Errorf("unexpected shortfall detail: %+v", shortfall)
	}
}

func TestAllocator_NoPartialAllocationAcrossCategories(t *testing.T) {
	ctx := context.Background()
	vehicleRepo := NewMockVehicleRepository()
	allocator := service.NewAllocatorService(vehicleRepo, service.NewTariffPricer(), nil, nil)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	small := seedFleet(vehicleRepo, "cat-4", 4, 2)
	big := seedFleet(vehicleRepo, "cat-7", 7, 1)
	schedules := schedulesForVehicles(date, domain.ShiftA, append(small, big...))

	offers, err := allocator.GroupByCategory(ctx, schedules, domain.ServiceBookingHour, 2)
	if err != nil {
		t.Fatalf("grouping failed: %v", err)
	}

	// cat-4 is satisfiable, cat-7 is not; nothing must be allocated.
	allocations, err := allocator.Allocate(offers, []service.CategoryRequest{
		{CategoryID: "cat-4", Quantity: 2},
		{CategoryID: "cat-7", Quantity: 2},
	})
	if !service.IsInsufficientAvailability(err) {
		t.Fatalf("expected insufficient availability, got %v", err)
	}
	if allocations != nil {
		t.Errorf("expected no allocations on failure, got %d", len(allocations))
	}
}

func TestAllocator_CountsOverlappingShiftSchedulesOnce(t *testing.T) {
	ctx := context.Background()
	vehicleRepo := NewMockVehicleRepository()
	allocator := service.NewAllocatorService(vehicleRepo, service.NewTariffPricer(), nil, nil)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seedFleet(vehicleRepo, "cat-4", 4, 1)

	// The same vehicle holds shift A and shift D schedules; both admit an
	// 11:00-12:00 window, so the conflict filter passes both through.
	schedules := []*domain.DriverSchedule{
		scheduleOn("sch-A", date, domain.ShiftA, "drv-a", "cat-4-veh-a", domain.ScheduleStatusNotStarted),
		scheduleOn("sch-D", date, domain.ShiftD, "drv-a", "cat-4-veh-a", domain.ScheduleStatusNotStarted),
	}

	offers, err := allocator.GroupByCategory(ctx, schedules, domain.ServiceBookingHour, 1)
	if err != nil {
		t.Fatalf("grouping failed: %v", err)
	}
	if offers["cat-4"] == nil || offers["cat-4"].AvailableCount != 1 {
		t.Fatalf("one physical vehicle must count once, got %+v", offers["cat-4"])
	}

	// A request for two vehicles cannot be satisfied by one vehicle twice.
	_, err = allocator.Allocate(offers, []service.CategoryRequest{{CategoryID: "cat-4", Quantity: 2}})
	if !service.IsInsufficientAvailability(err) {
		t.Fatalf("expected insufficient availability, got %v", err)
	}

	// The kept offer is backed by the first schedule in filter order.
	alloc, err := allocator.Allocate(offers, []service.CategoryRequest{{CategoryID: "cat-4", Quantity: 1}})
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	if alloc[0].Schedule.ID != "sch-A" {
		t.Errorf("expected first schedule sch-A, got %s", alloc[0].Schedule.ID)
	}
}

func TestAllocator_CountsDoubleScheduledDriverOnce(t *testing.T) {
	ctx := context.Background()
	vehicleRepo := NewMockVehicleRepository()
	allocator := service.NewAllocatorService(vehicleRepo, service.NewTariffPricer(), nil, nil)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	seedFleet(vehicleRepo, "cat-4", 4, 2)

	// One driver on two vehicles through overlapping shifts: only the first
	// schedule is offered, the driver cannot serve two trips at once.
	schedules := []*domain.DriverSchedule{
		scheduleOn("sch-A", date, domain.ShiftA, "drv-a", "cat-4-veh-a", domain.ScheduleStatusNotStarted),
		scheduleOn("sch-D", date, domain.ShiftD, "drv-a", "cat-4-veh-b", domain.ScheduleStatusNotStarted),
	}

	offers, err := allocator.GroupByCategory(ctx, schedules, domain.ServiceBookingHour, 1)
	if err != nil {
		t.Fatalf("grouping failed: %v", err)
	}
	if offers["cat-4"] == nil || offers["cat-4"].AvailableCount != 1 {
		t.Fatalf("double-scheduled driver must count once, got %+v", offers["cat-4"])
	}
}

func TestAllocator_SkipsVehiclesOutOfService(t *testing.T) {
	ctx := context.Background()
	vehicleRepo := NewMockVehicleRepository()
	allocator := service.NewAllocatorService(vehicleRepo, service.NewTariffPricer(), nil, nil)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	vehicleRepo.AddCategory(&domain.VehicleCategory{ID: "cat-4", Name: "sedan", NumberOfSeat: 4})
	vehicleRepo.AddVehicle(&domain.Vehicle{ID: "veh-ok", CategoryID: "cat-4", Condition: domain.VehicleConditionAvailable})
	vehicleRepo.AddVehicle(&domain.Vehicle{ID: "veh-shop", CategoryID: "cat-4", Condition: domain.VehicleConditionMaintenance})

	schedules := schedulesForVehicles(date, domain.ShiftA, []string{"veh-ok", "veh-shop"})

	offers, err := allocator.GroupByCategory(ctx, schedules, domain.ServiceBookingHour, 1)
	if err != nil {
		t.Fatalf("grouping failed: %v", err)
	}
	if offers["cat-4"] == nil || offers["cat-4"].AvailableCount != 1 {
		t.Fatalf("expected 1 available vehicle, got %+v", offers["cat-4"])
	}
}

func TestAllocator_AllocateBySeatsPrefersSmallestAdequateCategory(t *testing.T) {
	ctx := context.Background()
	vehicleRepo := NewMockVehicleRepository()
	allocator := service.NewAllocatorService(vehicleRepo, service.NewTariffPricer(), nil, nil)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	small := seedFleet(vehicleRepo, "cat-4", 4, 1)
	mid := seedFleet(vehicleRepo, "cat-7", 7, 1)
	big := seedFleet(vehicleRepo, "cat-16", 16, 1)
	schedules := schedulesForVehicles(date, domain.ShiftA, append(append(small, mid...), big...))

	offers, err := allocator.GroupByCategory(ctx, schedules, domain.ServiceBookingShare, 12)
	if err != nil {
		t.Fatalf("grouping failed: %v", err)
	}

	alloc, err := allocator.AllocateBySeats(offers, 5)
	if err != nil {
		t.Fatalf("allocate by seats failed: %v", err)
	}
	if alloc.Vehicle.CategoryID != "cat-7" {
		t.Errorf("expected cat-7 vehicle, got %s", alloc.Vehicle.CategoryID)
	}

	// Nothing seats 20.
	if _, err := allocator.AllocateBySeats(offers, 20); !service.IsInsufficientAvailability(err) {
		t.Errorf("expected insufficient availability for 20 seats, got %v", err)
	}
}
