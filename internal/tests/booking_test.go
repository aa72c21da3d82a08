package tests

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// bookingFixture wires a BookingService over mocks.
type bookingFixture struct {
	scheduleRepo *MockScheduleRepository
	tripRepo     *MockTripRepository
	bookingRepo  *MockBookingRepository
	vehicleRepo  *MockVehicleRepository
	lockStore    *MockLockStore
	checkout     *MockCheckoutGateway
	svc          *service.BookingService
}

func newBookingFixture(now time.Time) *bookingFixture {
	f := &bookingFixture{
		scheduleRepo: NewMockScheduleRepository(),
		tripRepo:     NewMockTripRepository(),
		bookingRepo:  NewMockBookingRepository(),
		vehicleRepo:  NewMockVehicleRepository(),
		lockStore:    NewMockLockStore(),
		checkout:     NewMockCheckoutGateway(),
	}

	availability := service.NewAvailabilityService(f.scheduleRepo, f.tripRepo)
	availability.SetClock(fixedClock(now))
	allocator := service.NewAllocatorService(f.vehicleRepo, service.NewTariffPricer(), nil, nil)
	notifier := service.NewNotificationService()
	receipts := service.NewReceiptService(f.tripRepo, notifier)

	f.svc = service.NewBookingService(
		availability, allocator, f.tripRepo, f.bookingRepo,
		f.checkout, nil, f.lockStore, nil, notifier, receipts,
	)
	f.svc.SetClock(fixedClock(now))
	return f
}

// seedShiftA sets up count available sedans with NOT_STARTED shift-A schedules.
func (f *bookingFixture) seedShiftA(date time.Time, count int) {
	vehicleIDs := seedFleet(f.vehicleRepo, "cat-4", 4, count)
	for _, schedule := range schedulesForVehicles(date, domain.ShiftA, vehicleIDs) {
		f.scheduleRepo.AddSchedule(schedule)
	}
}

func TestBooking_HourlyHappyPath(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newBookingFixture(date.Add(5 * time.Hour))
	f.seedShiftA(date, 2)

	result, err := f.svc.CreateHourlyBooking(ctx, service.HourlyBookingRequest{
		CustomerID:    "cust-1",
		Start:         date.Add(9 * time.Hour),
		DurationHours: 2,
		StartPoint:    domain.Point{Name: "hotel", Lat: 16.05, Lng: 108.22},
		Categories:    []service.CategoryRequest{{CategoryID: "cat-4", Quantity: 2}},
		PaymentMethod: domain.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	if result.Booking.Status != domain.BookingStatusBooking {
		t.Errorf("expected BOOKING status, got %s", result.Booking.Status)
	}
	if len(result.Trips) != 2 || len(result.Booking.TripIDs) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(result.Trips))
	}
	if result.PaymentURL == "" {
		t.Error("expected a payment URL")
	}
	if f.tripRepo.CountTrips() != 2 {
		t.Errorf("expected 2 persisted trips, got %d", f.tripRepo.CountTrips())
	}

	total := 0.0
	for _, trip := range result.Trips {
		if trip.Status != domain.TripStatusWaiting {
			t.Errorf("expected WAITING trip, got %s", trip.Status)
		}
		if trip.Payload.Hour == nil {
			t.Error("expected hourly payload on trip")
		}
		total += trip.Amount
	}
	if result.Booking.TotalAmount != total {
		t.Errorf("booking total %f != trip sum %f", result.Booking.TotalAmount, total)
	}
}

func TestBooking_NoDoubleAssignment(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newBookingFixture(date.Add(5 * time.Hour))
	f.seedShiftA(date, 1)

	req := service.HourlyBookingRequest{
		CustomerID:    "cust-1",
		Start:         date.Add(9 * time.Hour),
		DurationHours: 2,
		Categories:    []service.CategoryRequest{{CategoryID: "cat-4", Quantity: 1}},
	}

	if _, err := f.svc.CreateHourlyBooking(ctx, req); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// Same window, same single schedule: no capacity left.
	req.CustomerID = "cust-2"
	_, err := f.svc.CreateHourlyBooking(ctx, req)
	if !service.IsInsufficientAvailability(err) {
		t.Fatalf("expected insufficient availability, got %v", err)
	}

	if f.tripRepo.CountTrips() != 1 {
		t.Errorf("expected 1 trip, got %d", f.tripRepo.CountTrips())
	}
	if f.bookingRepo.CountBookings() != 1 {
		t.Errorf("expected 1 booking, got %d", f.bookingRepo.CountBookings())
	}
}

func TestBooking_ScheduleRaceLostReportsShortage(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newBookingFixture(date.Add(5 * time.Hour))
	f.vehicleRepo.AddCategory(&domain.VehicleCategory{ID: "cat-4", Name: "sedan", NumberOfSeat: 4})
	f.vehicleRepo.AddVehicle(&domain.Vehicle{ID: "veh-1", CategoryID: "cat-4", Condition: domain.VehicleConditionAvailable})

	// Another booking already holds sch-1 with a non-terminal trip.
	f.tripRepo.AddTrip(&domain.Trip{
		ID: "trip-held", ScheduleID: "sch-1", VehicleID: "veh-1", DriverID: "drv-1",
		ServiceType: domain.ServiceBookingHour, Status: domain.TripStatusWaiting,
	})

	_, err := f.svc.FinalizeBooking(ctx, "cust-2", domain.PaymentMethodCash, []*domain.Trip{{
		ID: "trip-new", ScheduleID: "sch-1", VehicleID: "veh-1", DriverID: "drv-1",
		ServiceType: domain.ServiceBookingHour, Status: domain.TripStatusWaiting,
	}})
	if !service.IsInsufficientAvailability(err) {
		t.Fatalf("expected insufficient availability, got %v", err)
	}
	if f.bookingRepo.CountBookings() != 0 {
		t.Errorf("expected no booking, got %d", f.bookingRepo.CountBookings())
	}

	// The shortage names the vehicle's category, not the vehicle.
	var shortage *service.InsufficientAvailabilityError
	if !errors.As(err, &shortage) {
		t.Fatal("expected typed shortfall error")
	}
	if shortage.CategoryID != "cat-4" {
		t.Errorf("expected shortage for cat-4, got %q", shortage.CategoryID)
	}
}

func TestBooking_MidLoopRaceLeavesNoOrphanTrips(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newBookingFixture(date.Add(5 * time.Hour))
	f.seedShiftA(date, 2)

	// A concurrent booking holds the second schedule's lock.
	if _, err := f.lockStore.AcquireScheduleLock(ctx, "sch-cat-4-veh-b", time.Minute); err != nil {
		t.Fatalf("pre-hold failed: %v", err)
	}

	_, err := f.svc.CreateHourlyBooking(ctx, service.HourlyBookingRequest{
		CustomerID:    "cust-1",
		Start:         date.Add(9 * time.Hour),
		DurationHours: 2,
		Categories:    []service.CategoryRequest{{CategoryID: "cat-4", Quantity: 2}},
	})
	if !service.IsInsufficientAvailability(err) {
		t.Fatalf("expected insufficient availability, got %v", err)
	}

	// The trip created for the first vehicle must not survive the abort:
	// nothing references it and it would block its schedule indefinitely.
	if f.tripRepo.CountTrips() != 0 {
		t.Errorf("expected no trips after aborted booking, got %d", f.tripRepo.CountTrips())
	}
	if f.bookingRepo.CountBookings() != 0 {
		t.Errorf("expected no bookings, got %d", f.bookingRepo.CountBookings())
	}
	if f.lockStore.IsLocked("sch-cat-4-veh-a") {
		t.Error("first schedule's lock not released after abort")
	}

	// With the conflict gone the same request goes through.
	if err := f.lockStore.ReleaseScheduleLock(ctx, "sch-cat-4-veh-b"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := f.svc.CreateHourlyBooking(ctx, service.HourlyBookingRequest{
		CustomerID:    "cust-1",
		Start:         date.Add(9 * time.Hour),
		DurationHours: 2,
		Categories:    []service.CategoryRequest{{CategoryID: "cat-4", Quantity: 2}},
	}); err != nil {
		t.Fatalf("retry after released lock failed: %v", err)
	}
}

func TestBooking_PersistFailureDiscardsTrips(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newBookingFixture(date.Add(5 * time.Hour))
	f.seedShiftA(date, 2)
	f.bookingRepo.CreateError = errors.New("connection reset")

	_, err := f.svc.CreateHourlyBooking(ctx, service.HourlyBookingRequest{
		CustomerID:    "cust-1",
		Start:         date.Add(9 * time.Hour),
		DurationHours: 2,
		Categories:    []service.CategoryRequest{{CategoryID: "cat-4", Quantity: 2}},
	})
	if !errors.Is(err, service.ErrBookingCreateFailed) {
		t.Fatalf("expected ErrBookingCreateFailed, got %v", err)
	}
	if f.tripRepo.CountTrips() != 0 {
		t.Errorf("expected no trips after failed booking persist, got %d", f.tripRepo.CountTrips())
	}
}

func TestBooking_PaymentFailureRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newBookingFixture(date.Add(5 * time.Hour))
	f.seedShiftA(date, 3)

	result, err := f.svc.CreateHourlyBooking(ctx, service.HourlyBookingRequest{
		CustomerID:    "cust-1",
		Start:         date.Add(9 * time.Hour),
		DurationHours: 2,
		Categories:    []service.CategoryRequest{{CategoryID: "cat-4", Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if f.tripRepo.CountTrips() != 3 {
		t.Fatalf("expected 3 trips before callback, got %d", f.tripRepo.CountTrips())
	}

	booking, err := f.svc.HandleCheckoutResult(ctx, result.Booking.BookingCode, false)
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}

	if booking.Status != domain.BookingStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", booking.Status)
	}
	if f.tripRepo.CountTrips() != 0 {
		t.Errorf("expected all trips deleted, %d remain", f.tripRepo.CountTrips())
	}
	if f.bookingRepo.CountBookings() != 0 {
		t.Errorf("expected booking deleted, %d remain", f.bookingRepo.CountBookings())
	}
}

func TestBooking_PaymentSuccessConfirms(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newBookingFixture(date.Add(5 * time.Hour))
	f.seedShiftA(date, 2)

	result, err := f.svc.CreateHourlyBooking(ctx, service.HourlyBookingRequest{
		CustomerID:    "cust-1",
		Start:         date.Add(9 * time.Hour),
		DurationHours: 2,
		Categories:    []service.CategoryRequest{{CategoryID: "cat-4", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	booking, err := f.svc.HandleCheckoutResult(ctx, result.Booking.BookingCode, true)
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}

	if booking.Status != domain.BookingStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", booking.Status)
	}
	for _, tripID := range booking.TripIDs {
		trip := f.tripRepo.GetTrip(tripID)
		if trip == nil || trip.Status != domain.TripStatusPayed {
			t.Errorf("expected trip %s PAYED", tripID)
		}
	}

	stored, err := f.svc.GetBooking(ctx, booking.BookingCode)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.Status != domain.BookingStatusConfirmed {
		t.Errorf("stored booking not confirmed: %s", stored.Status)
	}
}

func TestBooking_CheckoutFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newBookingFixture(date.Add(5 * time.Hour))
	f.seedShiftA(date, 1)
	f.checkout.ChargeError = errors.New("provider down")

	_, err := f.svc.CreateHourlyBooking(ctx, service.HourlyBookingRequest{
		CustomerID:    "cust-1",
		Start:         date.Add(9 * time.Hour),
		DurationHours: 2,
		Categories:    []service.CategoryRequest{{CategoryID: "cat-4", Quantity: 1}},
	})
	if !errors.Is(err, service.ErrCheckoutFailed) {
		t.Fatalf("expected ErrCheckoutFailed, got %v", err)
	}
}

func TestBooking_LockDeniedReportsShortage(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newBookingFixture(date.Add(5 * time.Hour))
	f.seedShiftA(date, 1)
	f.lockStore.DenyAll = true

	_, err := f.svc.CreateHourlyBooking(ctx, service.HourlyBookingRequest{
		CustomerID:    "cust-1",
		Start:         date.Add(9 * time.Hour),
		DurationHours: 2,
		Categories:    []service.CategoryRequest{{CategoryID: "cat-4", Quantity: 1}},
	})
	if !service.IsInsufficientAvailability(err) {
		t.Fatalf("expected insufficient availability, got %v", err)
	}
	if f.tripRepo.CountTrips() != 0 {
		t.Errorf("expected no trips, got %d", f.tripRepo.CountTrips())
	}
}

func TestBooking_CodesAreUniqueAndPrefixed(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newBookingFixture(date.Add(5 * time.Hour))
	f.seedShiftA(date, 3)

	codes := make(map[string]bool)
	for i := 0; i < 3; i++ {
		result, err := f.svc.CreateHourlyBooking(ctx, service.HourlyBookingRequest{
			CustomerID:    "cust-1",
			Start:         date.Add(9 * time.Hour),
			DurationHours: 2,
			Categories:    []service.CategoryRequest{{CategoryID: "cat-4", Quantity: 1}},
		})
		if err != nil {
			t.Fatalf("booking %d failed: %v", i, err)
		}
		code := result.Booking.BookingCode
		if !strings.HasPrefix(code, "BK-") {
			t.Errorf("unexpected code format: %s", code)
		}
		if codes[code] {
			t.Fatalf("duplicate booking code: %s", code)
		}
		codes[code] = true
	}
}
