package domain

// DriverStatus represents whether a driver account is usable for scheduling.
type DriverStatus string

const (
	DriverStatusActive   DriverStatus = "ACTIVE"
	DriverStatusInactive DriverStatus = "INACTIVE"
)

// Role represents a staff member's role.
type Role string

const (
	RoleDriver Role = "DRIVER"
	RoleAdmin  Role = "ADMIN"
)

// Driver represents a driver in the system.
type Driver struct {
	ID     string
	Name   string
	Phone  string
	Status DriverStatus
	Role   Role
}
