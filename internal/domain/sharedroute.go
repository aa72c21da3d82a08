package domain

import "time"

// StopPointType marks a stop as a rider's pickup or drop-off.
type StopPointType string

const (
	StopStartPoint StopPointType = "START_POINT"
	StopEndPoint   StopPointType = "END_POINT"
)

// RouteStop is one ordered stop on a shared route.
type RouteStop struct {
	Order     int
	PointType StopPointType
	TripID    string
	Point     Point
	IsPass    bool
}

// SharedRoute is an in-progress pooled route. New riders either join an
// existing route or anchor a fresh one to a driver/vehicle/schedule.
type SharedRoute struct {
	ID               string
	DriverID         string
	VehicleID        string
	ScheduleID       string
	DistanceEstimate float64 // kilometers
	DurationEstimate float64 // minutes
	Stops            []RouteStop
	CreatedAt        time.Time
}

// RouteMatch is a candidate returned by the shared-route search: the route
// plus the cumulative distance/duration to the new rider's start and end.
type RouteMatch struct {
	Route                  *SharedRoute
	DistanceToNewTripStart float64
	DistanceToNewTripEnd   float64
	DurationToNewTripStart float64
	DurationToNewTripEnd   float64
}

// Receipt summarizes a confirmed booking for the customer.
type Receipt struct {
	ID            string
	BookingID     string
	BookingCode   string
	CustomerID    string
	Lines         []ReceiptLine
	TotalAmount   float64
	PaymentMethod PaymentMethod
	CreatedAt     time.Time
}

// ReceiptLine is one trip's entry on a receipt.
type ReceiptLine struct {
	TripID      string
	ServiceType ServiceType
	VehicleID   string
	Amount      float64
}
