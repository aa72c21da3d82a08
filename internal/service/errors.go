package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimeWindow is returned when the requested window is empty or inverted.
	ErrInvalidTimeWindow = errors.New("invalid time window")

	// ErrInvalidCustomerID is returned when customer ID is empty.
	ErrInvalidCustomerID = errors.New("invalid customer id")

	// ErrInvalidServiceType is returned when the service type is unknown.
	ErrInvalidServiceType = errors.New("invalid service type")

	// ErrInvalidDistance is returned when distance is not positive.
	ErrInvalidDistance = errors.New("invalid distance")

	// ErrInvalidDuration is returned when duration is not positive.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidSeats is returned when requested seat count is not positive.
	ErrInvalidSeats = errors.New("invalid seat count")

	// ErrInvalidPaymentMethod is returned when the payment method is unknown.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidShift is returned when the shift is not one of A/B/C/D.
	ErrInvalidShift = errors.New("invalid shift")

	// ErrInvalidScheduleID is returned when schedule ID is empty.
	ErrInvalidScheduleID = errors.New("invalid schedule id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrScheduleNotFound is returned when the schedule does not exist or is
	// not owned by the requesting driver.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrScheduleAlreadyStarted is returned on check-in when the schedule is
	// not NOT_STARTED.
	ErrScheduleAlreadyStarted = errors.New("schedule already started or completed")

	// ErrScheduleNotInProgress is returned on check-out when the schedule is
	// not IN_PROGRESS.
	ErrScheduleNotInProgress = errors.New("schedule not in progress")

	// ErrNotInShiftTime is returned when check-in falls outside the allowed window.
	ErrNotInShiftTime = errors.New("not in shift time")

	// ErrDriverNotActive is returned when a scheduled driver is not an active driver.
	ErrDriverNotActive = errors.New("driver not active")

	// ErrVehicleNotAvailable is returned when a scheduled vehicle is not in
	// AVAILABLE condition.
	ErrVehicleNotAvailable = errors.New("vehicle not available")

	// ErrDuplicateScheduleSlot is returned when a batch entry collides with a
	// persisted schedule or another entry in the same batch.
	ErrDuplicateScheduleSlot = errors.New("duplicate schedule slot")

	// ErrCustomerHasActiveTrip is returned when a customer with a non-terminal
	// shared trip requests another shared ride.
	ErrCustomerHasActiveTrip = errors.New("customer already has an active shared trip")

	// ErrBookingCreateFailed is returned when booking persistence fails after
	// trips were created.
	ErrBookingCreateFailed = errors.New("failed to create booking")

	// ErrCheckoutFailed is returned when the checkout collaborator fails.
	ErrCheckoutFailed = errors.New("checkout failed")

	// ErrTripUpdateFailed is returned when a trip status update fails during
	// settlement.
	ErrTripUpdateFailed = errors.New("failed to update trip status")
)

// InsufficientAvailabilityError reports that a requested category cannot be
// satisfied, naming the offending category.
type InsufficientAvailabilityError struct {
	CategoryID string
	Requested  int
	Available  int
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("insufficient availability for category %s: requested %d, available %d",
		e.CategoryID, e.Requested, e.Available)
}

// IsInsufficientAvailability reports whether err is an availability shortfall.
func IsInsufficientAvailability(err error) bool {
	var target *InsufficientAvailabilityError
	return errors.As(err, &target)
}
