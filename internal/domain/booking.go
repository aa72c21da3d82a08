package domain

import "time"

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusBooking   BookingStatus = "BOOKING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// PaymentMethod represents how a booking is paid.
type PaymentMethod string

const (
	PaymentMethodCash  PaymentMethod = "CASH"
	PaymentMethodCard  PaymentMethod = "CARD"
	PaymentMethodVNPay PaymentMethod = "VNPAY"
)

// Booking groups the trips created by one booking request under a unique
// booking code. Created atomically with its trips; confirmed on payment
// success, deleted together with its trips on payment failure.
type Booking struct {
	ID            string
	BookingCode   string
	CustomerID    string
	TripIDs       []string
	TotalAmount   float64
	PaymentMethod PaymentMethod
	Status        BookingStatus
	CreatedAt     time.Time
}
