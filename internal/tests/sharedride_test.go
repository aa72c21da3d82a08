package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// sharedFixture wires a SharedRideService with a real GeoRouteMatcher over
// mocked stores.
type sharedFixture struct {
	*bookingFixture
	routeRepo  *MockSharedRouteRepository
	routeIndex *MockRouteIndex
	svc        *service.SharedRideService
}

func newSharedFixture(now time.Time) *sharedFixture {
	base := newBookingFixture(now)
	f := &sharedFixture{
		bookingFixture: base,
		routeRepo:      NewMockSharedRouteRepository(),
		routeIndex:     NewMockRouteIndex(),
	}

	availability := service.NewAvailabilityService(base.scheduleRepo, base.tripRepo)
	availability.SetClock(fixedClock(now))
	pricer := service.NewTariffPricer()
	allocator := service.NewAllocatorService(base.vehicleRepo, pricer, nil, nil)
	matcher := service.NewGeoRouteMatcher(f.routeIndex, f.routeRepo, base.vehicleRepo)

	f.svc = service.NewSharedRideService(
		availability, allocator, base.svc, matcher,
		base.tripRepo, f.routeRepo, f.routeIndex, pricer,
	)
	f.svc.SetClock(fixedClock(now))
	return f
}

// seedPooledRoute stores an active route with one rider aboard, indexes its
// start point, and backs it with a seated vehicle.
func (f *sharedFixture) seedPooledRoute(ctx context.Context, routeID string, seats int, startLat, startLng float64) *domain.SharedRoute {
	f.vehicleRepo.AddCategory(&domain.VehicleCategory{ID: "cat-pool", Name: "van", NumberOfSeat: seats})
	f.vehicleRepo.AddVehicle(&domain.Vehicle{ID: "veh-pool", CategoryID: "cat-pool", Condition: domain.VehicleConditionAvailable})

	foundingTrip := &domain.Trip{
		ID: "trip-founder", CustomerID: "cust-founder",
		DriverID: "drv-pool", VehicleID: "veh-pool", ScheduleID: "sch-pool",
		ServiceType: domain.ServiceBookingShare, Status: domain.TripStatusWaiting,
	}
	f.tripRepo.AddTrip(foundingTrip)

	route := &domain.SharedRoute{
		ID:               routeID,
		DriverID:         "drv-pool",
		VehicleID:        "veh-pool",
		ScheduleID:       "sch-pool",
		DistanceEstimate: 4.0,
		DurationEstimate: 8.0,
		Stops: []domain.RouteStop{
			{Order: 1, PointType: domain.StopStartPoint, TripID: "trip-founder", Point: domain.Point{Lat: startLat, Lng: startLng}},
			{Order: 2, PointType: domain.StopEndPoint, TripID: "trip-founder", Point: domain.Point{Lat: startLat + 0.03, Lng: startLng}},
		},
	}
	f.routeRepo.AddRoute(route)
	_ = f.routeIndex.AddRoute(ctx, routeID, startLat, startLng)
	return route
}

func TestSharedRide_NoMatchStartsNewRoute(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newSharedFixture(date.Add(5 * time.Hour))

	// One available 7-seater on shift A, nothing in the route index.
	vehicleIDs := seedFleet(f.vehicleRepo, "cat-7", 7, 1)
	for _, schedule := range schedulesForVehicles(date, domain.ShiftA, vehicleIDs) {
		f.scheduleRepo.AddSchedule(schedule)
	}

	start := domain.Point{Name: "pier", Lat: 16.05, Lng: 108.22}
	end := domain.Point{Name: "museum", Lat: 16.08, Lng: 108.24}

	result, err := f.svc.CreateSharedBooking(ctx, service.SharedBookingRequest{
		CustomerID:      "cust-1",
		Start:           date.Add(9 * time.Hour),
		StartPoint:      start,
		EndPoint:        end,
		Seats:           2,
		DistanceKm:      5,
		DurationMinutes: 15,
	})
	if err != nil {
		t.Fatalf("shared booking failed: %v", err)
	}

	if len(result.Trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(result.Trips))
	}
	trip := result.Trips[0]
	if trip.ServiceType != domain.ServiceBookingShare || trip.Payload.Share == nil {
		t.Fatal("expected a share trip with share payload")
	}

	if f.routeRepo.CountRoutes() != 1 {
		t.Fatalf("expected 1 route, got %d", f.routeRepo.CountRoutes())
	}
	route := f.routeRepo.GetRoute(trip.Payload.Share.SharedRouteID)
	if route == nil {
		t.Fatal("trip does not reference the created route")
	}
	if len(route.Stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(route.Stops))
	}
	if route.Stops[0].PointType != domain.StopStartPoint || route.Stops[1].PointType != domain.StopEndPoint {
		t.Error("stops out of order: want START then END")
	}
	for _, stop := range route.Stops {
		if stop.IsPass {
			t.Error("fresh stops must be unpassed")
		}
		if stop.TripID != trip.ID {
			t.Error("stops must reference the founding trip")
		}
	}
	if !f.routeIndex.HasRoute(route.ID) {
		t.Error("new route not registered in the geo index")
	}
}

func TestSharedRide_JoinsMatchedRoute(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newSharedFixture(date.Add(5 * time.Hour))

	route := f.seedPooledRoute(ctx, "route-1", 7, 16.05, 108.22)
	tripsBefore := f.tripRepo.CountTrips()

	// New rider starts a few hundred meters from the route's start.
	result, err := f.svc.CreateSharedBooking(ctx, service.SharedBookingRequest{
		CustomerID:      "cust-2",
		Start:           date.Add(9 * time.Hour),
		StartPoint:      domain.Point{Lat: 16.052, Lng: 108.221},
		EndPoint:        domain.Point{Lat: 16.09, Lng: 108.25},
		Seats:           2,
		DistanceKm:      5,
		DurationMinutes: 15,
	})
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}

	if len(result.Trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(result.Trips))
	}
	trip := result.Trips[0]
	if trip.ScheduleID != route.ScheduleID || trip.VehicleID != route.VehicleID {
		t.Error("joined trip must ride the route's vehicle and schedule")
	}
	if trip.Payload.Share.SharedRouteID != route.ID {
		t.Errorf("trip references route %s, want %s", trip.Payload.Share.SharedRouteID, route.ID)
	}
	if trip.Amount <= 0 {
		t.Errorf("expected positive incremental price, got %f", trip.Amount)
	}

	if f.tripRepo.CountTrips() != tripsBefore+1 {
		t.Errorf("expected one new trip, got %d total", f.tripRepo.CountTrips())
	}
	if f.routeRepo.CountRoutes() != 1 {
		t.Errorf("join must not create a route, got %d", f.routeRepo.CountRoutes())
	}
}

func TestSharedRide_FullRouteFallsBackToNewRoute(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newSharedFixture(date.Add(5 * time.Hour))

	// Two-seat route with one unpassed pickup aboard: two more seats do not fit.
	f.seedPooledRoute(ctx, "route-full", 2, 16.05, 108.22)

	// Fallback fleet for the new route.
	vehicleIDs := seedFleet(f.vehicleRepo, "cat-7", 7, 1)
	for _, schedule := range schedulesForVehicles(date, domain.ShiftA, vehicleIDs) {
		f.scheduleRepo.AddSchedule(schedule)
	}

	result, err := f.svc.CreateSharedBooking(ctx, service.SharedBookingRequest{
		CustomerID:      "cust-2",
		Start:           date.Add(9 * time.Hour),
		StartPoint:      domain.Point{Lat: 16.052, Lng: 108.221},
		EndPoint:        domain.Point{Lat: 16.09, Lng: 108.25},
		Seats:           2,
		DistanceKm:      5,
		DurationMinutes: 15,
	})
	if err != nil {
		t.Fatalf("shared booking failed: %v", err)
	}

	if f.routeRepo.CountRoutes() != 2 {
		t.Fatalf("expected a second route, got %d", f.routeRepo.CountRoutes())
	}
	if result.Trips[0].Payload.Share.SharedRouteID == "route-full" {
		t.Error("rider must not join the full route")
	}
}

func TestSharedRide_ActiveShareTripBlocksNewRequest(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newSharedFixture(date.Add(5 * time.Hour))

	f.tripRepo.AddTrip(&domain.Trip{
		ID: "trip-active", CustomerID: "cust-1",
		ServiceType: domain.ServiceBookingShare, Status: domain.TripStatusPayed,
	})

	_, err := f.svc.CreateSharedBooking(ctx, service.SharedBookingRequest{
		CustomerID:      "cust-1",
		Start:           date.Add(9 * time.Hour),
		StartPoint:      domain.Point{Lat: 16.05, Lng: 108.22},
		EndPoint:        domain.Point{Lat: 16.09, Lng: 108.25},
		Seats:           1,
		DistanceKm:      5,
		DurationMinutes: 15,
	})
	if !errors.Is(err, service.ErrCustomerHasActiveTrip) {
		t.Fatalf("expected ErrCustomerHasActiveTrip, got %v", err)
	}
}

func TestSharedRide_ValidatesRequest(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newSharedFixture(date.Add(5 * time.Hour))

	base := service.SharedBookingRequest{
		CustomerID:      "cust-1",
		Start:           date.Add(9 * time.Hour),
		StartPoint:      domain.Point{Lat: 16.05, Lng: 108.22},
		EndPoint:        domain.Point{Lat: 16.09, Lng: 108.25},
		Seats:           1,
		DistanceKm:      5,
		DurationMinutes: 15,
	}

	noCustomer := base
	noCustomer.CustomerID = ""
	if _, err := f.svc.CreateSharedBooking(ctx, noCustomer); !errors.Is(err, service.ErrInvalidCustomerID) {
		t.Errorf("expected ErrInvalidCustomerID, got %v", err)
	}

	noSeats := base
	noSeats.Seats = 0
	if _, err := f.svc.CreateSharedBooking(ctx, noSeats); !errors.Is(err, service.ErrInvalidSeats) {
		t.Errorf("expected ErrInvalidSeats, got %v", err)
	}

	noDistance := base
	noDistance.DistanceKm = 0
	if _, err := f.svc.CreateSharedBooking(ctx, noDistance); !errors.Is(err, service.ErrInvalidDistance) {
		t.Errorf("expected ErrInvalidDistance, got %v", err)
	}
}
