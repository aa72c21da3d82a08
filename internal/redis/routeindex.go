package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const routeStartKey = "shared_routes:starts"

// RouteLocation is a shared route's start point in the geo index.
type RouteLocation struct {
	RouteID string
	Lat     float64
	Lng     float64
}

// RouteIndex keeps shared-route start points in a Redis GEO set so the
// matcher can shortlist candidate routes near a new rider's pickup.
type RouteIndex struct {
	client *redis.Client
}

// NewRouteIndex creates a new RouteIndex.
func NewRouteIndex(client *redis.Client) *RouteIndex {
	return &RouteIndex{client: client}
}

// AddRoute stores a route's start point using GEOADD.
func (s *RouteIndex) AddRoute(ctx context.Context, routeID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, routeStartKey, &redis.GeoLocation{
		Name:      routeID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// FindNearbyRoutes returns route IDs whose start point is within radiusKm of
// the given location, closest first.
func (s *RouteIndex) FindNearbyRoutes(ctx context.Context, lat, lng, radiusKm float64) ([]RouteLocation, error) {
	results, err := s.client.GeoRadius(ctx, routeStartKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]RouteLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, RouteLocation{
			RouteID: r.Name,
			Lat:     r.Latitude,
			Lng:     r.Longitude,
		})
	}

	return locations, nil
}

// RemoveRoute removes a route from the geo index.
func (s *RouteIndex) RemoveRoute(ctx context.Context, routeID string) error {
	return s.client.ZRem(ctx, routeStartKey, routeID).Err()
}
