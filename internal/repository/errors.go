package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrScheduleTaken is returned when a conditional trip insert loses the
	// race for a schedule that already backs an active trip.
	ErrScheduleTaken = errors.New("schedule already backs an active trip")

	// ErrDuplicateSlot is returned when a schedule insert collides with an
	// existing (date, shift, driver) or (date, shift, vehicle) slot.
	ErrDuplicateSlot = errors.New("schedule slot already occupied")
)
