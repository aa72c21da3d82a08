package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

const scheduleLockTTL = 10 * time.Second

// UUIDCodeGenerator generates booking codes from random UUIDs.
type UUIDCodeGenerator struct{}

// NewCode returns a new unique booking code.
func (UUIDCodeGenerator) NewCode() string {
	return "BK-" + uuid.New().String()
}

// Ensure UUIDCodeGenerator implements CodeGenerator.
var _ CodeGenerator = (*UUIDCodeGenerator)(nil)

// BookingService composes trips and bookings out of allocation results and
// drives payment settlement.
type BookingService struct {
	availability *AvailabilityService
	allocator    *AllocatorService
	tripRepo     repository.TripRepository
	bookingRepo  repository.BookingRepository
	checkout     Checkout
	codes        CodeGenerator
	lockStore    redis.LockStoreInterface
	cacheStore   *redis.CacheStore
	notifier     *NotificationService
	receipts     *ReceiptService
	now          func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	availability *AvailabilityService,
	allocator *AllocatorService,
	tripRepo repository.TripRepository,
	bookingRepo repository.BookingRepository,
	checkout Checkout,
	codes CodeGenerator,
	lockStore redis.LockStoreInterface,
	cacheStore *redis.CacheStore,
	notifier *NotificationService,
	receipts *ReceiptService,
) *BookingService {
	if codes == nil {
		codes = UUIDCodeGenerator{}
	}
	return &BookingService{
		availability: availability,
		allocator:    allocator,
		tripRepo:     tripRepo,
		bookingRepo:  bookingRepo,
		checkout:     checkout,
		codes:        codes,
		lockStore:    lockStore,
		cacheStore:   cacheStore,
		notifier:     notifier,
		receipts:     receipts,
		now:          time.Now,
	}
}

// SetClock overrides the time source. Used by tests.
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

// BookingResult is the outcome of a successful booking creation.
type BookingResult struct {
	Booking    *domain.Booking
	Trips      []*domain.Trip
	PaymentURL string
}

// HourlyBookingRequest books one or more vehicles by the hour.
type HourlyBookingRequest struct {
	CustomerID    string
	Start         time.Time
	DurationHours float64
	StartPoint    domain.Point
	Categories    []CategoryRequest
	PaymentMethod domain.PaymentMethod
}

// CreateHourlyBooking runs the full pipeline for an hourly booking.
func (s *BookingService) CreateHourlyBooking(ctx context.Context, req HourlyBookingRequest) (*BookingResult, error) {
	if req.CustomerID == "" {
		return nil, ErrInvalidCustomerID
	}
	if req.DurationHours <= 0 {
		return nil, ErrInvalidDuration
	}

	from := req.Start
	to := from.Add(time.Duration(req.DurationHours * float64(time.Hour)))

	allocations, err := s.allocate(ctx, from, to, domain.ServiceBookingHour, req.DurationHours, req.Categories)
	if err != nil {
		return nil, err
	}

	trips := make([]*domain.Trip, 0, len(allocations))
	for _, alloc := range allocations {
		trips = append(trips, s.buildTrip(req.CustomerID, alloc, domain.ServiceBookingHour, from, to, domain.ServicePayload{
			Hour: &domain.HourPayload{StartPoint: req.StartPoint, DurationHours: req.DurationHours},
		}))
	}

	return s.FinalizeBooking(ctx, req.CustomerID, req.PaymentMethod, trips)
}

// ScenicBookingRequest books one or more vehicles over a fixed scenic route.
type ScenicBookingRequest struct {
	CustomerID      string
	Start           time.Time
	RouteID         string
	StartPoint      domain.Point
	DistanceKm      float64
	DurationMinutes float64
	Categories      []CategoryRequest
	PaymentMethod   domain.PaymentMethod
}

// CreateScenicBooking runs the full pipeline for a scenic-route booking.
func (s *BookingService) CreateScenicBooking(ctx context.Context, req ScenicBookingRequest) (*BookingResult, error) {
	if req.CustomerID == "" {
		return nil, ErrInvalidCustomerID
	}
	if req.DistanceKm <= 0 {
		return nil, ErrInvalidDistance
	}
	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	from := req.Start
	to := from.Add(time.Duration(req.DurationMinutes * float64(time.Minute)))

	allocations, err := s.allocate(ctx, from, to, domain.ServiceBookingScenicRoute, req.DistanceKm, req.Categories)
	if err != nil {
		return nil, err
	}

	trips := make([]*domain.Trip, 0, len(allocations))
	for _, alloc := range allocations {
		trips = append(trips, s.buildTrip(req.CustomerID, alloc, domain.ServiceBookingScenicRoute, from, to, domain.ServicePayload{
			ScenicRoute: &domain.ScenicRoutePayload{RouteID: req.RouteID, StartPoint: req.StartPoint, DistanceKm: req.DistanceKm},
		}))
	}

	return s.FinalizeBooking(ctx, req.CustomerID, req.PaymentMethod, trips)
}

// DestinationBookingRequest books a single vehicle from point to point.
type DestinationBookingRequest struct {
	CustomerID      string
	Start           time.Time
	StartPoint      domain.Point
	EndPoint        domain.Point
	DistanceKm      float64
	DurationMinutes float64
	CategoryID      string
	PaymentMethod   domain.PaymentMethod
}

// CreateDestinationBooking runs the full pipeline for a destination booking.
// Quantity is implicitly one.
func (s *BookingService) CreateDestinationBooking(ctx context.Context, req DestinationBookingRequest) (*BookingResult, error) {
	if req.CustomerID == "" {
		return nil, ErrInvalidCustomerID
	}
	if req.DistanceKm <= 0 {
		return nil, ErrInvalidDistance
	}
	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	from := req.Start
	to := from.Add(time.Duration(req.DurationMinutes * float64(time.Minute)))

	allocations, err := s.allocate(ctx, from, to, domain.ServiceBookingDestination, req.DistanceKm,
		[]CategoryRequest{{CategoryID: req.CategoryID, Quantity: 1}})
	if err != nil {
		return nil, err
	}

	trip := s.buildTrip(req.CustomerID, allocations[0], domain.ServiceBookingDestination, from, to, domain.ServicePayload{
		Destination: &domain.DestinationPayload{StartPoint: req.StartPoint, EndPoint: req.EndPoint, DistanceKm: req.DistanceKm},
	})

	return s.FinalizeBooking(ctx, req.CustomerID, req.PaymentMethod, []*domain.Trip{trip})
}

// allocate runs availability resolution, conflict filtering and capacity
// allocation for one request window.
func (s *BookingService) allocate(ctx context.Context, from, to time.Time, serviceType domain.ServiceType, dimension float64, requests []CategoryRequest) ([]Allocation, error) {
	if !from.Before(to) {
		return nil, ErrInvalidTimeWindow
	}

	schedules, err := s.availability.Available(ctx, from, to)
	if err != nil {
		return nil, err
	}

	offers, err := s.allocator.GroupByCategory(ctx, schedules, serviceType, dimension)
	if err != nil {
		return nil, err
	}

	return s.allocator.Allocate(offers, requests)
}

// buildTrip constructs an unsaved trip from one allocation.
func (s *BookingService) buildTrip(customerID string, alloc Allocation, serviceType domain.ServiceType, from, to time.Time, payload domain.ServicePayload) *domain.Trip {
	return &domain.Trip{
		ID:                uuid.New().String(),
		CustomerID:        customerID,
		DriverID:          alloc.Schedule.DriverID,
		VehicleID:         alloc.Vehicle.ID,
		ScheduleID:        alloc.Schedule.ID,
		ServiceType:       serviceType,
		TimeStartEstimate: from,
		TimeEndEstimate:   to,
		Amount:            alloc.Price,
		Payload:           payload,
		Status:            domain.TripStatusWaiting,
		CreatedAt:         s.now(),
	}
}

// FinalizeBooking persists the trips, creates the booking, and invokes
// checkout. Shared-ride bookings converge here after building their trip.
//
// Losing the schedule reservation race is surfaced as insufficient
// availability so the caller retries the allocation decision. Trips already
// created for the same booking are deleted before returning; nothing would
// reference them and they would hold their schedules hostage.
func (s *BookingService) FinalizeBooking(ctx context.Context, customerID string, method domain.PaymentMethod, trips []*domain.Trip) (*BookingResult, error) {
	if method == "" {
		method = domain.PaymentMethodCash
	}

	tripIDs := make([]string, 0, len(trips))
	totalAmount := 0.0
	for _, trip := range trips {
		if s.lockStore != nil {
			locked, err := s.lockStore.AcquireScheduleLock(ctx, trip.ScheduleID, scheduleLockTTL)
			if err != nil {
				s.discardTrips(ctx, tripIDs)
				return nil, err
			}
			if !locked {
				s.discardTrips(ctx, tripIDs)
				return nil, s.reservationShortage(ctx, trip)
			}
			defer s.lockStore.ReleaseScheduleLock(ctx, trip.ScheduleID)
		}

		if err := s.tripRepo.Create(ctx, trip); err != nil {
			s.discardTrips(ctx, tripIDs)
			if errors.Is(err, repository.ErrScheduleTaken) {
				// Lost the race to a concurrent booking; ordinary shortage
				// from the caller's point of view.
				return nil, s.reservationShortage(ctx, trip)
			}
			return nil, err
		}

		tripIDs = append(tripIDs, trip.ID)
		totalAmount += trip.Amount
	}

	booking := &domain.Booking{
		ID:            uuid.New().String(),
		BookingCode:   s.codes.NewCode(),
		CustomerID:    customerID,
		TripIDs:       tripIDs,
		TotalAmount:   totalAmount,
		PaymentMethod: method,
		Status:        domain.BookingStatusBooking,
		CreatedAt:     s.now(),
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		s.discardTrips(ctx, tripIDs)
		return nil, fmt.Errorf("%w: %v", ErrBookingCreateFailed, err)
	}

	paymentURL, err := s.checkout.Charge(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyBookingCreated(ctx, booking)
	}

	return &BookingResult{
		Booking:    booking,
		Trips:      trips,
		PaymentURL: paymentURL,
	}, nil
}

// discardTrips deletes trips created for a booking that will never exist.
// Best effort: a failure leaves WAITING trips behind, which still blocks
// their schedules, so it is logged loudly.
func (s *BookingService) discardTrips(ctx context.Context, tripIDs []string) {
	if len(tripIDs) == 0 {
		return
	}
	if err := s.tripRepo.DeleteByIDs(ctx, tripIDs); err != nil {
		log.Printf("[BOOKING] Failed to discard %d trips after aborted booking: %v", len(tripIDs), err)
	}
}

// reservationShortage reports a lost schedule reservation as a shortage of
// the trip vehicle's category.
func (s *BookingService) reservationShortage(ctx context.Context, trip *domain.Trip) error {
	shortage := &InsufficientAvailabilityError{Requested: 1}
	if s.allocator != nil {
		if vehicles, err := s.allocator.lookupVehicles(ctx, []string{trip.VehicleID}); err == nil && len(vehicles) == 1 {
			shortage.CategoryID = vehicles[0].CategoryID
		}
	}
	return shortage
}

// GetBooking retrieves a booking by its code, reading through the cache.
func (s *BookingService) GetBooking(ctx context.Context, bookingCode string) (*domain.Booking, error) {
	if bookingCode == "" {
		return nil, repository.ErrNotFound
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetBooking(ctx, bookingCode); err == nil && cached != nil {
			return bookingFromCache(cached), nil
		}
	}

	booking, err := s.bookingRepo.GetByCode(ctx, bookingCode)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetBooking(ctx, bookingToCache(booking))
	}

	return booking, nil
}

func bookingToCache(booking *domain.Booking) *redis.CachedBooking {
	return &redis.CachedBooking{
		ID:            booking.ID,
		BookingCode:   booking.BookingCode,
		CustomerID:    booking.CustomerID,
		TripIDs:       booking.TripIDs,
		TotalAmount:   booking.TotalAmount,
		PaymentMethod: string(booking.PaymentMethod),
		Status:        string(booking.Status),
		CreatedAt:     booking.CreatedAt,
	}
}

func bookingFromCache(cached *redis.CachedBooking) *domain.Booking {
	return &domain.Booking{
		ID:            cached.ID,
		BookingCode:   cached.BookingCode,
		CustomerID:    cached.CustomerID,
		TripIDs:       cached.TripIDs,
		TotalAmount:   cached.TotalAmount,
		PaymentMethod: domain.PaymentMethod(cached.PaymentMethod),
		Status:        domain.BookingStatus(cached.Status),
		CreatedAt:     cached.CreatedAt,
	}
}

// HandleCheckoutResult settles a booking after the asynchronous payment
// callback. Success moves every trip to PAYED and the booking to CONFIRMED;
// failure deletes the trips and the booking entirely.
func (s *BookingService) HandleCheckoutResult(ctx context.Context, bookingCode string, success bool) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByCode(ctx, bookingCode)
	if err != nil {
		return nil, err
	}

	if !success {
		if err := s.tripRepo.DeleteByIDs(ctx, booking.TripIDs); err != nil {
			return nil, err
		}
		if err := s.bookingRepo.Delete(ctx, booking.ID); err != nil {
			return nil, err
		}
		s.invalidateBooking(ctx, bookingCode)
		if s.notifier != nil {
			_ = s.notifier.NotifyBookingCancelled(ctx, booking)
		}
		booking.Status = domain.BookingStatusCancelled
		return booking, nil
	}

	for _, tripID := range booking.TripIDs {
		if err := s.tripRepo.UpdateStatus(ctx, tripID, domain.TripStatusPayed); err != nil {
			return nil, fmt.Errorf("%w: trip %s: %v", ErrTripUpdateFailed, tripID, err)
		}
	}

	if err := s.bookingRepo.UpdateStatus(ctx, booking.ID, domain.BookingStatusConfirmed); err != nil {
		return nil, err
	}
	booking.Status = domain.BookingStatusConfirmed
	s.invalidateBooking(ctx, bookingCode)

	if s.notifier != nil {
		_ = s.notifier.NotifyBookingConfirmed(ctx, booking)
	}
	if s.receipts != nil {
		_, _ = s.receipts.GenerateReceipt(ctx, booking)
	}

	return booking, nil
}

func (s *BookingService) invalidateBooking(ctx context.Context, bookingCode string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateBooking(ctx, bookingCode)
}
