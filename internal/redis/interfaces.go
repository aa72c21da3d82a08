package redis

import (
	"context"
	"time"
)

// RouteIndexInterface defines the interface for shared-route geo lookups.
type RouteIndexInterface interface {
	AddRoute(ctx context.Context, routeID string, lat, lng float64) error
	FindNearbyRoutes(ctx context.Context, lat, lng, radiusKm float64) ([]RouteLocation, error)
	RemoveRoute(ctx context.Context, routeID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireScheduleLock(ctx context.Context, scheduleID string, ttl time.Duration) (bool, error)
	ReleaseScheduleLock(ctx context.Context, scheduleID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ RouteIndexInterface = (*RouteIndex)(nil)
	_ LockStoreInterface  = (*LockStore)(nil)
)
