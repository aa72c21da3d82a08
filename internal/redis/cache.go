package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	VehicleCacheTTL  = 5 * time.Minute  // Fleet data changes rarely
	CategoryCacheTTL = 10 * time.Minute // Category table is near-static
	BookingCacheTTL  = 30 * time.Second // Booking status changes during settlement
)

// Key prefixes
const (
	vehicleCachePrefix  = "cache:vehicle:"
	categoryCachePrefix = "cache:category:"
	bookingCachePrefix  = "cache:booking:"
)

// CachedVehicle represents a cached vehicle entity.
type CachedVehicle struct {
	ID         string `json:"id"`
	Plate      string `json:"plate"`
	CategoryID string `json:"category_id"`
	Condition  string `json:"condition"`
}

// CachedCategory represents a cached vehicle category.
type CachedCategory struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	NumberOfSeat int    `json:"number_of_seat"`
}

// GetVehicle retrieves a vehicle from cache. Returns nil on cache miss.
func (s *CacheStore) GetVehicle(ctx context.Context, vehicleID string) (*CachedVehicle, error) {
	data, err := s.client.Get(ctx, vehicleCachePrefix+vehicleID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var vehicle CachedVehicle
	if err := json.Unmarshal(data, &vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// SetVehicle stores a vehicle in cache.
func (s *CacheStore) SetVehicle(ctx context.Context, vehicle *CachedVehicle) error {
	data, err := json.Marshal(vehicle)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, vehicleCachePrefix+vehicle.ID, data, VehicleCacheTTL).Err()
}

// GetVehiclesBatch retrieves multiple vehicles from cache using a pipeline.
// Returns a map of vehicleID -> CachedVehicle and the IDs that missed.
func (s *CacheStore) GetVehiclesBatch(ctx context.Context, vehicleIDs []string) (map[string]*CachedVehicle, []string, error) {
	if len(vehicleIDs) == 0 {
		return make(map[string]*CachedVehicle), nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(vehicleIDs))
	for _, id := range vehicleIDs {
		cmds[id] = pipe.Get(ctx, vehicleCachePrefix+id)
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, vehicleIDs, nil
	}

	result := make(map[string]*CachedVehicle)
	var missing []string
	for id, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}
		var vehicle CachedVehicle
		if err := json.Unmarshal(data, &vehicle); err != nil {
			missing = append(missing, id)
			continue
		}
		result[id] = &vehicle
	}

	return result, missing, nil
}

// SetVehiclesBatch stores multiple vehicles in cache using a pipeline.
func (s *CacheStore) SetVehiclesBatch(ctx context.Context, vehicles []*CachedVehicle) error {
	if len(vehicles) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, vehicle := range vehicles {
		data, err := json.Marshal(vehicle)
		if err != nil {
			continue
		}
		pipe.Set(ctx, vehicleCachePrefix+vehicle.ID, data, VehicleCacheTTL)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// GetCategory retrieves a category from cache. Returns nil on cache miss.
func (s *CacheStore) GetCategory(ctx context.Context, categoryID string) (*CachedCategory, error) {
	data, err := s.client.Get(ctx, categoryCachePrefix+categoryID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var category CachedCategory
	if err := json.Unmarshal(data, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// SetCategory stores a category in cache.
func (s *CacheStore) SetCategory(ctx context.Context, category *CachedCategory) error {
	data, err := json.Marshal(category)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, categoryCachePrefix+category.ID, data, CategoryCacheTTL).Err()
}

// CachedBooking represents a cached booking entity, keyed by booking code.
type CachedBooking struct {
	ID            string    `json:"id"`
	BookingCode   string    `json:"booking_code"`
	CustomerID    string    `json:"customer_id"`
	TripIDs       []string  `json:"trip_ids"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// GetBooking retrieves a booking from cache. Returns nil on cache miss.
func (s *CacheStore) GetBooking(ctx context.Context, bookingCode string) (*CachedBooking, error) {
	data, err := s.client.Get(ctx, bookingCachePrefix+bookingCode).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var booking CachedBooking
	if err := json.Unmarshal(data, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// SetBooking stores a booking in cache under its code. The short TTL bounds
// staleness while settlement is still moving the booking's status.
func (s *CacheStore) SetBooking(ctx context.Context, booking *CachedBooking) error {
	data, err := json.Marshal(booking)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, bookingCachePrefix+booking.BookingCode, data, BookingCacheTTL).Err()
}

// InvalidateBooking removes a booking from cache after settlement changes it.
func (s *CacheStore) InvalidateBooking(ctx context.Context, bookingCode string) error {
	return s.client.Del(ctx, bookingCachePrefix+bookingCode).Err()
}
