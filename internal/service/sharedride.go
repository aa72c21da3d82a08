package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// RouteMatcher is the external shared-route search collaborator. FindBestMatch
// returns the best existing route able to absorb the new rider, with the
// cumulative distance/duration to the rider's start and end, or nil when no
// route fits.
type RouteMatcher interface {
	FindBestMatch(ctx context.Context, start, end domain.Point, seats int) (*domain.RouteMatch, error)
}

// GeoRouteMatcher is the default RouteMatcher. It shortlists routes whose
// start point is near the rider's pickup via the Redis geo index, then scores
// the shortlist by detour distance.
type GeoRouteMatcher struct {
	routeIndex  redis.RouteIndexInterface
	routeRepo   repository.SharedRouteRepository
	vehicleRepo repository.VehicleRepository
	radiusKm    float64
}

// NewGeoRouteMatcher creates a new GeoRouteMatcher.
func NewGeoRouteMatcher(
	routeIndex redis.RouteIndexInterface,
	routeRepo repository.SharedRouteRepository,
	vehicleRepo repository.VehicleRepository,
) *GeoRouteMatcher {
	return &GeoRouteMatcher{
		routeIndex:  routeIndex,
		routeRepo:   routeRepo,
		vehicleRepo: vehicleRepo,
		radiusKm:    5.0,
	}
}

// FindBestMatch returns the nearby route with the smallest detour that still
// has seat capacity, or nil when none qualifies.
func (m *GeoRouteMatcher) FindBestMatch(ctx context.Context, start, end domain.Point, seats int) (*domain.RouteMatch, error) {
	nearby, err := m.routeIndex.FindNearbyRoutes(ctx, start.Lat, start.Lng, m.radiusKm)
	if err != nil {
		return nil, err
	}

	var best *domain.RouteMatch
	for _, loc := range nearby {
		route, err := m.routeRepo.GetByID(ctx, loc.RouteID)
		if err != nil {
			if err == repository.ErrNotFound {
				continue
			}
			return nil, err
		}

		ok, err := m.hasSeatCapacity(ctx, route, seats)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		candidate := m.score(route, start, end)
		if best == nil || candidate.DistanceToNewTripEnd < best.DistanceToNewTripEnd {
			best = candidate
		}
	}

	return best, nil
}

// hasSeatCapacity checks the route's vehicle category against the seats
// already claimed by unpassed pickups.
func (m *GeoRouteMatcher) hasSeatCapacity(ctx context.Context, route *domain.SharedRoute, seats int) (bool, error) {
	vehicle, err := m.vehicleRepo.GetByID(ctx, route.VehicleID)
	if err != nil {
		return false, err
	}
	category, err := m.vehicleRepo.GetCategory(ctx, vehicle.CategoryID)
	if err != nil {
		return false, err
	}

	claimed := 0
	for _, stop := range route.Stops {
		if stop.PointType == domain.StopStartPoint && !stop.IsPass {
			claimed++
		}
	}

	return category.NumberOfSeat >= claimed+seats, nil
}

// score extends the route's current estimates with the straight-line legs to
// the new rider's start and end.
func (m *GeoRouteMatcher) score(route *domain.SharedRoute, start, end domain.Point) *domain.RouteMatch {
	const avgSpeedKmPerMin = 0.5 // 30 km/h in city traffic

	detourToStart := 0.0
	if n := len(route.Stops); n > 0 {
		last := route.Stops[n-1].Point
		detourToStart = haversineKm(last.Lat, last.Lng, start.Lat, start.Lng)
	}
	legDistance := haversineKm(start.Lat, start.Lng, end.Lat, end.Lng)

	distanceToStart := route.DistanceEstimate + detourToStart
	distanceToEnd := distanceToStart + legDistance

	return &domain.RouteMatch{
		Route:                  route,
		DistanceToNewTripStart: distanceToStart,
		DistanceToNewTripEnd:   distanceToEnd,
		DurationToNewTripStart: distanceToStart / avgSpeedKmPerMin,
		DurationToNewTripEnd:   distanceToEnd / avgSpeedKmPerMin,
	}
}

// haversineKm returns the great-circle distance between two coordinates.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0

	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// Ensure GeoRouteMatcher implements RouteMatcher.
var _ RouteMatcher = (*GeoRouteMatcher)(nil)

// SharedRideService pools new riders into existing shared routes or anchors
// fresh routes to a newly allocated vehicle and schedule.
type SharedRideService struct {
	availability *AvailabilityService
	allocator    *AllocatorService
	bookings     *BookingService
	matcher      RouteMatcher
	tripRepo     repository.TripRepository
	routeRepo    repository.SharedRouteRepository
	routeIndex   redis.RouteIndexInterface
	pricer       Pricer
	now          func() time.Time
}

// NewSharedRideService creates a new SharedRideService.
func NewSharedRideService(
	availability *AvailabilityService,
	allocator *AllocatorService,
	bookings *BookingService,
	matcher RouteMatcher,
	tripRepo repository.TripRepository,
	routeRepo repository.SharedRouteRepository,
	routeIndex redis.RouteIndexInterface,
	pricer Pricer,
) *SharedRideService {
	return &SharedRideService{
		availability: availability,
		allocator:    allocator,
		bookings:     bookings,
		matcher:      matcher,
		tripRepo:     tripRepo,
		routeRepo:    routeRepo,
		routeIndex:   routeIndex,
		pricer:       pricer,
		now:          time.Now,
	}
}

// SetClock overrides the time source. Used by tests.
func (s *SharedRideService) SetClock(now func() time.Time) {
	s.now = now
}

// SharedBookingRequest is a new pooled-ride request.
type SharedBookingRequest struct {
	CustomerID      string
	Start           time.Time
	StartPoint      domain.Point
	EndPoint        domain.Point
	Seats           int
	DistanceKm      float64
	DurationMinutes float64
	PaymentMethod   domain.PaymentMethod
}

// CreateSharedBooking pools the rider into the best matching route, or spins
// up a new route on a freshly allocated vehicle when none fits. Either branch
// converges into the common booking-creation path.
func (s *SharedRideService) CreateSharedBooking(ctx context.Context, req SharedBookingRequest) (*BookingResult, error) {
	if req.CustomerID == "" {
		return nil, ErrInvalidCustomerID
	}
	if req.Seats <= 0 {
		return nil, ErrInvalidSeats
	}
	if req.DistanceKm <= 0 {
		return nil, ErrInvalidDistance
	}
	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	// One active pooled trip per customer.
	active, err := s.tripRepo.FindActiveByCustomer(ctx, req.CustomerID, domain.ServiceBookingShare)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return nil, ErrCustomerHasActiveTrip
	}

	match, err := s.matcher.FindBestMatch(ctx, req.StartPoint, req.EndPoint, req.Seats)
	if err != nil {
		return nil, err
	}

	if match != nil {
		return s.joinRoute(ctx, req, match)
	}

	return s.startRoute(ctx, req)
}

// joinRoute adds the rider to a matched route. The trip is priced from the
// incremental distance only; stop bookkeeping for matched routes belongs to
// the match collaborator.
func (s *SharedRideService) joinRoute(ctx context.Context, req SharedBookingRequest, match *domain.RouteMatch) (*BookingResult, error) {
	incrementalKm := match.DistanceToNewTripEnd - match.DistanceToNewTripStart

	price, err := s.pricer.CalculatePrice(ctx, domain.ServiceBookingShare, match.Route.VehicleID, incrementalKm)
	if err != nil {
		return nil, err
	}

	start := s.now().Add(time.Duration(match.DurationToNewTripStart * float64(time.Minute)))
	end := s.now().Add(time.Duration(match.DurationToNewTripEnd * float64(time.Minute)))

	trip := &domain.Trip{
		ID:                uuid.New().String(),
		CustomerID:        req.CustomerID,
		DriverID:          match.Route.DriverID,
		VehicleID:         match.Route.VehicleID,
		ScheduleID:        match.Route.ScheduleID,
		ServiceType:       domain.ServiceBookingShare,
		TimeStartEstimate: start,
		TimeEndEstimate:   end,
		Amount:            price,
		Payload: domain.ServicePayload{
			Share: &domain.SharePayload{
				StartPoint:    req.StartPoint,
				EndPoint:      req.EndPoint,
				Seats:         req.Seats,
				SharedRouteID: match.Route.ID,
				DistanceKm:    incrementalKm,
			},
		},
		Status:    domain.TripStatusWaiting,
		CreatedAt: s.now(),
	}

	return s.bookings.FinalizeBooking(ctx, req.CustomerID, req.PaymentMethod, []*domain.Trip{trip})
}

// startRoute allocates a fresh vehicle through the standard pipeline and
// anchors a new shared route to it with the rider's two stops.
func (s *SharedRideService) startRoute(ctx context.Context, req SharedBookingRequest) (*BookingResult, error) {
	from := req.Start
	to := from.Add(time.Duration(req.DurationMinutes * float64(time.Minute)))
	if !from.Before(to) {
		return nil, ErrInvalidTimeWindow
	}

	schedules, err := s.availability.Available(ctx, from, to)
	if err != nil {
		return nil, err
	}

	offers, err := s.allocator.GroupByCategory(ctx, schedules, domain.ServiceBookingShare, req.DistanceKm)
	if err != nil {
		return nil, err
	}

	alloc, err := s.allocator.AllocateBySeats(offers, req.Seats)
	if err != nil {
		return nil, err
	}

	routeID := uuid.New().String()
	trip := &domain.Trip{
		ID:                uuid.New().String(),
		CustomerID:        req.CustomerID,
		DriverID:          alloc.Schedule.DriverID,
		VehicleID:         alloc.Vehicle.ID,
		ScheduleID:        alloc.Schedule.ID,
		ServiceType:       domain.ServiceBookingShare,
		TimeStartEstimate: from,
		TimeEndEstimate:   to,
		Amount:            alloc.Price,
		Payload: domain.ServicePayload{
			Share: &domain.SharePayload{
				StartPoint:    req.StartPoint,
				EndPoint:      req.EndPoint,
				Seats:         req.Seats,
				SharedRouteID: routeID,
				DistanceKm:    req.DistanceKm,
			},
		},
		Status:    domain.TripStatusWaiting,
		CreatedAt: s.now(),
	}

	result, err := s.bookings.FinalizeBooking(ctx, req.CustomerID, req.PaymentMethod, []*domain.Trip{trip})
	if err != nil {
		return nil, err
	}

	route := &domain.SharedRoute{
		ID:               routeID,
		DriverID:         trip.DriverID,
		VehicleID:        trip.VehicleID,
		ScheduleID:       trip.ScheduleID,
		DistanceEstimate: req.DistanceKm,
		DurationEstimate: req.DurationMinutes,
		Stops: []domain.RouteStop{
			{Order: 1, PointType: domain.StopStartPoint, TripID: trip.ID, Point: req.StartPoint, IsPass: false},
			{Order: 2, PointType: domain.StopEndPoint, TripID: trip.ID, Point: req.EndPoint, IsPass: false},
		},
		CreatedAt: s.now(),
	}

	if err := s.routeRepo.Create(ctx, route); err != nil {
		return nil, err
	}

	if s.routeIndex != nil {
		_ = s.routeIndex.AddRoute(ctx, route.ID, req.StartPoint.Lat, req.StartPoint.Lng)
	}

	return result, nil
}
