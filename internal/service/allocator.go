package service

import (
	"context"
	"sort"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// VehiclePicker selects quantity vehicles from a category's candidates. The
// candidate slice keeps the conflict filter's stable order.
type VehiclePicker interface {
	Pick(candidates []*domain.Vehicle, quantity int) []*domain.Vehicle
}

// FirstAvailablePicker takes the first N candidates. Default policy; fairness
// or affinity policies can replace it without touching the pipeline.
type FirstAvailablePicker struct{}

// Pick returns the first quantity candidates.
func (FirstAvailablePicker) Pick(candidates []*domain.Vehicle, quantity int) []*domain.Vehicle {
	if quantity > len(candidates) {
		quantity = len(candidates)
	}
	return candidates[:quantity]
}

// CategoryRequest is the caller's demand for one vehicle category.
type CategoryRequest struct {
	CategoryID string
	Quantity   int
}

// CategoryOffer is one category's availability and unit price for a request window.
type CategoryOffer struct {
	Category       *domain.VehicleCategory
	AvailableCount int
	UnitPrice      float64
	vehicles       []*domain.Vehicle
	schedules      map[string]*domain.DriverSchedule // vehicle id -> schedule
}

// Allocation is one selected vehicle with its backing schedule and price.
type Allocation struct {
	Vehicle  *domain.Vehicle
	Schedule *domain.DriverSchedule
	Price    float64
}

// AllocatorService groups available vehicles by category, prices them, and
// satisfies multi-category vehicle requests.
type AllocatorService struct {
	vehicleRepo repository.VehicleRepository
	pricer      Pricer
	picker      VehiclePicker
	cacheStore  *redis.CacheStore
}

// NewAllocatorService creates a new AllocatorService.
func NewAllocatorService(
	vehicleRepo repository.VehicleRepository,
	pricer Pricer,
	picker VehiclePicker,
	cacheStore *redis.CacheStore,
) *AllocatorService {
	if picker == nil {
		picker = FirstAvailablePicker{}
	}
	return &AllocatorService{
		vehicleRepo: vehicleRepo,
		pricer:      pricer,
		picker:      picker,
		cacheStore:  cacheStore,
	}
}

// GroupByCategory resolves the schedules' vehicles and groups them by
// category, computing per-category availability and unit price. Vehicle order
// within a category follows the schedules' order.
func (s *AllocatorService) GroupByCategory(ctx context.Context, schedules []*domain.DriverSchedule, serviceType domain.ServiceType, dimension float64) (map[string]*CategoryOffer, error) {
	vehicleIDs := make([]string, 0, len(schedules))
	scheduleByVehicle := make(map[string]*domain.DriverSchedule, len(schedules))
	seenDrivers := make(map[string]struct{}, len(schedules))
	for _, schedule := range schedules {
		// Overlapping shifts (A and D share 10-14) can admit the same vehicle
		// or driver through two schedules. One physical unit is offered once,
		// backed by its first schedule in filter order.
		if _, dup := scheduleByVehicle[schedule.VehicleID]; dup {
			continue
		}
		if _, dup := seenDrivers[schedule.DriverID]; dup {
			continue
		}
		scheduleByVehicle[schedule.VehicleID] = schedule
		seenDrivers[schedule.DriverID] = struct{}{}
		vehicleIDs = append(vehicleIDs, schedule.VehicleID)
	}

	vehicles, err := s.lookupVehicles(ctx, vehicleIDs)
	if err != nil {
		return nil, err
	}

	offers := make(map[string]*CategoryOffer)
	for _, vehicle := range vehicles {
		if vehicle.Condition != domain.VehicleConditionAvailable {
			continue
		}

		offer, ok := offers[vehicle.CategoryID]
		if !ok {
			category, err := s.lookupCategory(ctx, vehicle.CategoryID)
			if err != nil {
				return nil, err
			}
			// Unit price is computed once per category from a
			// representative vehicle.
			price, err := s.pricer.CalculatePrice(ctx, serviceType, vehicle.ID, dimension)
			if err != nil {
				return nil, err
			}
			offer = &CategoryOffer{
				Category:  category,
				UnitPrice: price,
				schedules: make(map[string]*domain.DriverSchedule),
			}
			offers[vehicle.CategoryID] = offer
		}

		offer.vehicles = append(offer.vehicles, vehicle)
		offer.schedules[vehicle.ID] = scheduleByVehicle[vehicle.ID]
		offer.AvailableCount++
	}

	return offers, nil
}

// Allocate validates every requested (category, quantity) against the grouped
// offers and selects vehicles. Fails on the first unsatisfiable category
// without partial allocation.
func (s *AllocatorService) Allocate(offers map[string]*CategoryOffer, requests []CategoryRequest) ([]Allocation, error) {
	var allocations []Allocation
	for _, req := range requests {
		offer, ok := offers[req.CategoryID]
		if !ok {
			return nil, &InsufficientAvailabilityError{CategoryID: req.CategoryID, Requested: req.Quantity}
		}
		if offer.AvailableCount < req.Quantity {
			return nil, &InsufficientAvailabilityError{
				CategoryID: req.CategoryID,
				Requested:  req.Quantity,
				Available:  offer.AvailableCount,
			}
		}

		for _, vehicle := range s.picker.Pick(offer.vehicles, req.Quantity) {
			allocations = append(allocations, Allocation{
				Vehicle:  vehicle,
				Schedule: offer.schedules[vehicle.ID],
				Price:    offer.UnitPrice,
			})
		}
	}

	return allocations, nil
}

// AllocateBySeats selects a single vehicle whose category seats at least
// requestedSeats, preferring the smallest adequate category. Used by shared
// bookings; category identity is irrelevant, capacity is what matters.
func (s *AllocatorService) AllocateBySeats(offers map[string]*CategoryOffer, requestedSeats int) (*Allocation, error) {
	sorted := make([]*CategoryOffer, 0, len(offers))
	for _, offer := range offers {
		sorted = append(sorted, offer)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Category.NumberOfSeat != sorted[j].Category.NumberOfSeat {
			return sorted[i].Category.NumberOfSeat < sorted[j].Category.NumberOfSeat
		}
		return sorted[i].Category.ID < sorted[j].Category.ID
	})

	for _, offer := range sorted {
		if offer.Category.NumberOfSeat < requestedSeats {
			continue
		}
		if offer.AvailableCount < 1 {
			continue
		}

		vehicle := s.picker.Pick(offer.vehicles, 1)[0]
		return &Allocation{
			Vehicle:  vehicle,
			Schedule: offer.schedules[vehicle.ID],
			Price:    offer.UnitPrice,
		}, nil
	}

	return nil, &InsufficientAvailabilityError{CategoryID: "any", Requested: 1}
}

// lookupVehicles fetches vehicles through the cache, falling back to the
// repository for misses, preserving the input ID order.
func (s *AllocatorService) lookupVehicles(ctx context.Context, vehicleIDs []string) ([]*domain.Vehicle, error) {
	if s.cacheStore == nil {
		return s.vehicleRepo.GetByIDs(ctx, vehicleIDs)
	}

	cached, missing, err := s.cacheStore.GetVehiclesBatch(ctx, vehicleIDs)
	if err != nil {
		return s.vehicleRepo.GetByIDs(ctx, vehicleIDs)
	}

	fromDB := make(map[string]*domain.Vehicle)
	if len(missing) > 0 {
		vehicles, err := s.vehicleRepo.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		var toCache []*redis.CachedVehicle
		for _, v := range vehicles {
			fromDB[v.ID] = v
			toCache = append(toCache, &redis.CachedVehicle{
				ID:         v.ID,
				Plate:      v.Plate,
				CategoryID: v.CategoryID,
				Condition:  string(v.Condition),
			})
		}
		_ = s.cacheStore.SetVehiclesBatch(ctx, toCache)
	}

	result := make([]*domain.Vehicle, 0, len(vehicleIDs))
	for _, id := range vehicleIDs {
		if c, ok := cached[id]; ok {
			result = append(result, &domain.Vehicle{
				ID:         c.ID,
				Plate:      c.Plate,
				CategoryID: c.CategoryID,
				Condition:  domain.VehicleCondition(c.Condition),
			})
			continue
		}
		if v, ok := fromDB[id]; ok {
			result = append(result, v)
		}
	}

	return result, nil
}

func (s *AllocatorService) lookupCategory(ctx context.Context, categoryID string) (*domain.VehicleCategory, error) {
	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetCategory(ctx, categoryID); err == nil && cached != nil {
			return &domain.VehicleCategory{
				ID:           cached.ID,
				Name:         cached.Name,
				NumberOfSeat: cached.NumberOfSeat,
			}, nil
		}
	}

	category, err := s.vehicleRepo.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetCategory(ctx, &redis.CachedCategory{
			ID:           category.ID,
			Name:         category.Name,
			NumberOfSeat: category.NumberOfSeat,
		})
	}

	return category, nil
}
