package domain

import "time"

// ServiceType identifies the booking product a trip belongs to.
type ServiceType string

const (
	ServiceBookingHour        ServiceType = "BOOKING_HOUR"
	ServiceBookingScenicRoute ServiceType = "BOOKING_SCENIC_ROUTE"
	ServiceBookingDestination ServiceType = "BOOKING_DESTINATION"
	ServiceBookingShare       ServiceType = "BOOKING_SHARE"
)

// Valid reports whether t is a known service type.
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceBookingHour, ServiceBookingScenicRoute, ServiceBookingDestination, ServiceBookingShare:
		return true
	}
	return false
}

// TripStatus represents the lifecycle state of a trip.
type TripStatus string

const (
	TripStatusWaiting   TripStatus = "WAITING"
	TripStatusPayed     TripStatus = "PAYED"
	TripStatusCompleted TripStatus = "COMPLETED"
	TripStatusCancelled TripStatus = "CANCELLED"
)

// Terminal reports whether the status ends the trip's lifecycle. A schedule
// may back at most one non-terminal trip at a time.
func (s TripStatus) Terminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled
}

// Point is a named geographic coordinate.
type Point struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// ServicePayload is the per-service-type variant carried by a trip. Exactly
// one field matching the trip's ServiceType is set.
type ServicePayload struct {
	Hour        *HourPayload        `json:"hour,omitempty"`
	ScenicRoute *ScenicRoutePayload `json:"scenic_route,omitempty"`
	Destination *DestinationPayload `json:"destination,omitempty"`
	Share       *SharePayload       `json:"share,omitempty"`
}

// HourPayload describes an hourly rental.
type HourPayload struct {
	StartPoint    Point   `json:"start_point"`
	DurationHours float64 `json:"duration_hours"`
}

// ScenicRoutePayload describes a fixed scenic route booking.
type ScenicRoutePayload struct {
	RouteID    string  `json:"route_id"`
	StartPoint Point   `json:"start_point"`
	DistanceKm float64 `json:"distance_km"`
}

// DestinationPayload describes a point-to-point booking.
type DestinationPayload struct {
	StartPoint Point   `json:"start_point"`
	EndPoint   Point   `json:"end_point"`
	DistanceKm float64 `json:"distance_km"`
}

// SharePayload describes one rider's leg of a pooled trip.
type SharePayload struct {
	StartPoint    Point   `json:"start_point"`
	EndPoint      Point   `json:"end_point"`
	Seats         int     `json:"seats"`
	SharedRouteID string  `json:"shared_route_id"`
	DistanceKm    float64 `json:"distance_km"`
}

// Trip is one vehicle/driver assignment consuming a driver schedule for a
// bounded time window.
type Trip struct {
	ID                string
	CustomerID        string
	DriverID          string
	VehicleID         string
	ScheduleID        string
	ServiceType       ServiceType
	TimeStartEstimate time.Time
	TimeEndEstimate   time.Time
	Amount            float64
	Payload           ServicePayload
	Status            TripStatus
	CreatedAt         time.Time
}
