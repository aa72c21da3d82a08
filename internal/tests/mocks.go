package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK SCHEDULE REPOSITORY
// ──────────────────────────────────────────────

// MockScheduleRepository is a mock implementation of ScheduleRepository.
type MockScheduleRepository struct {
	mu        sync.RWMutex
	schedules map[string]*domain.DriverSchedule
	order     []string // insertion order, stands in for created_at ordering

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockScheduleRepository creates a new mock schedule repository.
func NewMockScheduleRepository() *MockScheduleRepository {
	return &MockScheduleRepository{
		schedules: make(map[string]*domain.DriverSchedule),
	}
}

// AddSchedule seeds a schedule without counting as a Create call.
func (m *MockScheduleRepository) AddSchedule(schedule *domain.DriverSchedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[schedule.ID] = schedule
	m.order = append(m.order, schedule.ID)
}

func (m *MockScheduleRepository) Create(ctx context.Context, schedule *domain.DriverSchedule) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.schedules {
		if existing.DateKey() != schedule.DateKey() || existing.Shift != schedule.Shift {
			continue
		}
		if existing.DriverID == schedule.DriverID || existing.VehicleID == schedule.VehicleID {
			return repository.ErrDuplicateSlot
		}
	}
	m.schedules[schedule.ID] = schedule
	m.order = append(m.order, schedule.ID)
	return nil
}

func (m *MockScheduleRepository) GetByID(ctx context.Context, id string) (*domain.DriverSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	schedule, ok := m.schedules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *schedule
	return &copy, nil
}

func (m *MockScheduleRepository) FindByDateAndShifts(ctx context.Context, date time.Time, shifts []domain.Shift, statuses []domain.ScheduleStatus) ([]*domain.DriverSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	shiftSet := make(map[domain.Shift]struct{}, len(shifts))
	for _, shift := range shifts {
		shiftSet[shift] = struct{}{}
	}
	statusSet := make(map[domain.ScheduleStatus]struct{}, len(statuses))
	for _, status := range statuses {
		statusSet[status] = struct{}{}
	}

	dateKey := date.Format("2006-01-02")
	var result []*domain.DriverSchedule
	for _, id := range m.order {
		schedule := m.schedules[id]
		if schedule.DateKey() != dateKey {
			continue
		}
		if _, ok := shiftSet[schedule.Shift]; !ok {
			continue
		}
		if _, ok := statusSet[schedule.Status]; !ok {
			continue
		}
		copy := *schedule
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockScheduleRepository) FindByDriverAndDate(ctx context.Context, driverID string, date time.Time) ([]*domain.DriverSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.DriverSchedule
	for _, id := range m.order {
		schedule := m.schedules[id]
		if schedule.DriverID != driverID {
			continue
		}
		if !date.IsZero() && schedule.DateKey() != date.Format("2006-01-02") {
			continue
		}
		copy := *schedule
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockScheduleRepository) ExistsSlot(ctx context.Context, date time.Time, shift domain.Shift, driverID, vehicleID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dateKey := date.Format("2006-01-02")
	for _, schedule := range m.schedules {
		if schedule.DateKey() != dateKey || schedule.Shift != shift {
			continue
		}
		if schedule.DriverID == driverID || schedule.VehicleID == vehicleID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockScheduleRepository) Update(ctx context.Context, schedule *domain.DriverSchedule) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[schedule.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *schedule
	m.schedules[schedule.ID] = &copy
	return nil
}

func (m *MockScheduleRepository) CompleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, schedule := range m.schedules {
		if schedule.Status == domain.ScheduleStatusInProgress && schedule.TimeToClose.Before(cutoff) {
			schedule.Status = domain.ScheduleStatusCompleted
			schedule.CheckoutTime = schedule.TimeToClose
			n++
		}
	}
	return n, nil
}

// GetSchedule returns a schedule for test assertions.
func (m *MockScheduleRepository) GetSchedule(id string) *domain.DriverSchedule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.schedules[id]
}

// CountSchedules returns the number of stored schedules.
func (m *MockScheduleRepository) CountSchedules() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.schedules)
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository. Create
// mirrors the conditional insert of the real repository: a schedule already
// backing a non-terminal trip rejects the insert, except that pooled share
// trips may stack on one schedule.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	// Counters for verification
	CreateCallCount int32
	DeleteCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.Trip),
	}
}

// AddTrip seeds a trip without the conditional-insert check.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.trips {
		if existing.ScheduleID != trip.ScheduleID || existing.Status.Terminal() {
			continue
		}
		if trip.ServiceType == domain.ServiceBookingShare && existing.ServiceType == domain.ServiceBookingShare {
			continue
		}
		return repository.ErrScheduleTaken
	}
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) FindActiveOverlapping(ctx context.Context, from, to time.Time) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, trip := range m.trips {
		if trip.Status.Terminal() {
			continue
		}
		if trip.TimeStartEstimate.Before(to) && from.Before(trip.TimeEndEstimate) {
			copy := *trip
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockTripRepository) FindActiveByCustomer(ctx context.Context, customerID string, serviceType domain.ServiceType) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Trip
	for _, trip := range m.trips {
		if trip.CustomerID != customerID || trip.ServiceType != serviceType || trip.Status.Terminal() {
			continue
		}
		copy := *trip
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockTripRepository) UpdateStatus(ctx context.Context, id string, status domain.TripStatus) error {
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return repository.ErrNotFound
	}
	trip.Status = status
	return nil
}

func (m *MockTripRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.trips, id)
	}
	return nil
}

// GetTrip returns a trip for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// CountTrips returns the number of stored trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters for verification
	CreateCallCount int32
	DeleteCallCount int32

	// Error injection
	CreateError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
	return nil
}

func (m *MockBookingRepository) GetByCode(ctx context.Context, code string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, booking := range m.bookings {
		if booking.BookingCode == code {
			copy := *booking
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	booking.Status = status
	return nil
}

func (m *MockBookingRepository) Delete(ctx context.Context, id string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.bookings, id)
	return nil
}

// CountBookings returns the number of stored bookings.
func (m *MockBookingRepository) CountBookings() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleRepository is a mock implementation of VehicleRepository.
type MockVehicleRepository struct {
	mu         sync.RWMutex
	vehicles   map[string]*domain.Vehicle
	categories map[string]*domain.VehicleCategory
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		vehicles:   make(map[string]*domain.Vehicle),
		categories: make(map[string]*domain.VehicleCategory),
	}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(vehicle *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
}

// AddCategory adds a category to the mock repository.
func (m *MockVehicleRepository) AddCategory(category *domain.VehicleCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[category.ID] = category
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *vehicle
	return &copy, nil
}

func (m *MockVehicleRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Vehicle, 0, len(ids))
	for _, id := range ids {
		if vehicle, ok := m.vehicles[id]; ok {
			copy := *vehicle
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockVehicleRepository) GetCategory(ctx context.Context, id string) (*domain.VehicleCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	category, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *category
	return &copy, nil
}

func (m *MockVehicleRepository) GetAllCategories(ctx context.Context) ([]*domain.VehicleCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.VehicleCategory, 0, len(m.categories))
	for _, category := range m.categories {
		copy := *category
		result = append(result, &copy)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, driver := range m.drivers {
		copy := *driver
		result = append(result, &copy)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK SHARED ROUTE REPOSITORY
// ──────────────────────────────────────────────

// MockSharedRouteRepository is a mock implementation of SharedRouteRepository.
type MockSharedRouteRepository struct {
	mu     sync.RWMutex
	routes map[string]*domain.SharedRoute

	// Counters for verification
	CreateCallCount      int32
	AppendStopsCallCount int32
}

// NewMockSharedRouteRepository creates a new mock shared route repository.
func NewMockSharedRouteRepository() *MockSharedRouteRepository {
	return &MockSharedRouteRepository{
		routes: make(map[string]*domain.SharedRoute),
	}
}

// AddRoute adds a route to the mock repository.
func (m *MockSharedRouteRepository) AddRoute(route *domain.SharedRoute) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.ID] = route
}

func (m *MockSharedRouteRepository) Create(ctx context.Context, route *domain.SharedRoute) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.ID] = route
	return nil
}

func (m *MockSharedRouteRepository) GetByID(ctx context.Context, id string) (*domain.SharedRoute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.routes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *route
	copy.Stops = append([]domain.RouteStop(nil), route.Stops...)
	return &copy, nil
}

func (m *MockSharedRouteRepository) AppendStops(ctx context.Context, route *domain.SharedRoute, stops []domain.RouteStop) error {
	atomic.AddInt32(&m.AppendStopsCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.routes[route.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Stops = append(stored.Stops, stops...)
	stored.DistanceEstimate = route.DistanceEstimate
	stored.DurationEstimate = route.DurationEstimate
	return nil
}

func (m *MockSharedRouteRepository) FindActive(ctx context.Context) ([]*domain.SharedRoute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.SharedRoute
	for _, route := range m.routes {
		for _, stop := range route.Stops {
			if !stop.IsPass {
				copy := *route
				copy.Stops = append([]domain.RouteStop(nil), route.Stops...)
				result = append(result, &copy)
				break
			}
		}
	}
	return result, nil
}

// GetRoute returns a route for test assertions.
func (m *MockSharedRouteRepository) GetRoute(id string) *domain.SharedRoute {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.routes[id]
}

// CountRoutes returns the number of stored routes.
func (m *MockSharedRouteRepository) CountRoutes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.routes)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Error injection
	AcquireError error
	DenyAll      bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireScheduleLock(ctx context.Context, scheduleID string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DenyAll || m.locks[scheduleID] {
		return false, nil
	}
	m.locks[scheduleID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseScheduleLock(ctx context.Context, scheduleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, scheduleID)
	return nil
}

// IsLocked reports whether a schedule is currently locked.
func (m *MockLockStore) IsLocked(scheduleID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[scheduleID]
}

// ──────────────────────────────────────────────
// MOCK ROUTE INDEX
// ──────────────────────────────────────────────

// MockRouteIndex is a mock implementation of RouteIndexInterface.
type MockRouteIndex struct {
	mu        sync.RWMutex
	locations map[string]redis.RouteLocation

	AddCallCount    int32
	RemoveCallCount int32
}

// NewMockRouteIndex creates a new mock route index.
func NewMockRouteIndex() *MockRouteIndex {
	return &MockRouteIndex{
		locations: make(map[string]redis.RouteLocation),
	}
}

func (m *MockRouteIndex) AddRoute(ctx context.Context, routeID string, lat, lng float64) error {
	atomic.AddInt32(&m.AddCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[routeID] = redis.RouteLocation{RouteID: routeID, Lat: lat, Lng: lng}
	return nil
}

func (m *MockRouteIndex) FindNearbyRoutes(ctx context.Context, lat, lng, radiusKm float64) ([]redis.RouteLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Flat-earth distance is fine at test scale.
	var result []redis.RouteLocation
	for _, loc := range m.locations {
		dLat := (loc.Lat - lat) * 111.0
		dLng := (loc.Lng - lng) * 111.0
		if dLat*dLat+dLng*dLng <= radiusKm*radiusKm {
			result = append(result, loc)
		}
	}
	return result, nil
}

func (m *MockRouteIndex) RemoveRoute(ctx context.Context, routeID string) error {
	atomic.AddInt32(&m.RemoveCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, routeID)
	return nil
}

// HasRoute reports whether a route is indexed.
func (m *MockRouteIndex) HasRoute(routeID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.locations[routeID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK CHECKOUT
// ──────────────────────────────────────────────

// MockCheckoutGateway is a checkout double with failure injection.
type MockCheckoutGateway struct {
	mu          sync.Mutex
	ChargeCalls int32
	ChargeError error
}

// NewMockCheckoutGateway creates a new mock checkout gateway.
func NewMockCheckoutGateway() *MockCheckoutGateway {
	return &MockCheckoutGateway{}
}

func (m *MockCheckoutGateway) Charge(ctx context.Context, bookingID string) (string, error) {
	atomic.AddInt32(&m.ChargeCalls, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ChargeError != nil {
		return "", m.ChargeError
	}
	return "https://checkout.test/pay/" + bookingID, nil
}

// ──────────────────────────────────────────────
// TEST CLOCK
// ──────────────────────────────────────────────

// fixedClock returns a clock stuck at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
