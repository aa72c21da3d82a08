package domain

// VehicleCondition represents the operational condition of a vehicle.
type VehicleCondition string

const (
	VehicleConditionAvailable   VehicleCondition = "AVAILABLE"
	VehicleConditionMaintenance VehicleCondition = "MAINTENANCE"
	VehicleConditionRetired     VehicleCondition = "RETIRED"
)

// VehicleCategory groups vehicles with the same seat count and pricing class.
type VehicleCategory struct {
	ID           string
	Name         string
	NumberOfSeat int
}

// Vehicle belongs to exactly one category. Read-only to the dispatch engine.
type Vehicle struct {
	ID         string
	Plate      string
	CategoryID string
	Condition  VehicleCondition
}
