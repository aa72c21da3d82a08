package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"dispatch/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingCreated   NotificationType = "BOOKING_CREATED"
	NotificationBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationCheckin          NotificationType = "SCHEDULE_CHECKIN"
	NotificationCheckout         NotificationType = "SCHEDULE_CHECKOUT"
	NotificationReceiptReady     NotificationType = "RECEIPT_READY"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client (Twilio)
	// - Email client (SendGrid)
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyBookingCreated notifies the customer that a booking is awaiting payment.
func (s *NotificationService) NotifyBookingCreated(ctx context.Context, booking *domain.Booking) error {
	return s.send(ctx, Notification{
		Type:        NotificationBookingCreated,
		RecipientID: booking.CustomerID,
		Title:       "Booking Created",
		Message:     fmt.Sprintf("Booking %s created. Complete payment to confirm.", booking.BookingCode),
		Data: map[string]interface{}{
			"booking_code": booking.BookingCode,
			"total_amount": booking.TotalAmount,
			"trip_count":   len(booking.TripIDs),
		},
		CreatedAt: time.Now(),
	})
}

// NotifyBookingConfirmed notifies the customer that payment settled.
func (s *NotificationService) NotifyBookingConfirmed(ctx context.Context, booking *domain.Booking) error {
	return s.send(ctx, Notification{
		Type:        NotificationBookingConfirmed,
		RecipientID: booking.CustomerID,
		Title:       "Booking Confirmed",
		Message:     fmt.Sprintf("Booking %s is confirmed. See you on board!", booking.BookingCode),
		Data: map[string]interface{}{
			"booking_code": booking.BookingCode,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyBookingCancelled notifies the customer that the booking was voided.
func (s *NotificationService) NotifyBookingCancelled(ctx context.Context, booking *domain.Booking) error {
	return s.send(ctx, Notification{
		Type:        NotificationBookingCancelled,
		RecipientID: booking.CustomerID,
		Title:       "Booking Cancelled",
		Message:     fmt.Sprintf("Payment for booking %s failed and the booking was cancelled.", booking.BookingCode),
		Data: map[string]interface{}{
			"booking_code": booking.BookingCode,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyCheckin notifies the driver that a shift check-in was recorded.
func (s *NotificationService) NotifyCheckin(ctx context.Context, schedule *domain.DriverSchedule) error {
	message := fmt.Sprintf("Checked in to shift %s on %s.", schedule.Shift, schedule.Date.Format("2006-01-02"))
	if schedule.IsLate {
		message = fmt.Sprintf("Checked in late to shift %s on %s.", schedule.Shift, schedule.Date.Format("2006-01-02"))
	}
	return s.send(ctx, Notification{
		Type:        NotificationCheckin,
		RecipientID: schedule.DriverID,
		Title:       "Shift Check-In",
		Message:     message,
		Data: map[string]interface{}{
			"schedule_id": schedule.ID,
			"is_late":     schedule.IsLate,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyCheckout notifies the driver that a shift check-out was recorded.
func (s *NotificationService) NotifyCheckout(ctx context.Context, schedule *domain.DriverSchedule) error {
	return s.send(ctx, Notification{
		Type:        NotificationCheckout,
		RecipientID: schedule.DriverID,
		Title:       "Shift Check-Out",
		Message:     fmt.Sprintf("Checked out of shift %s on %s.", schedule.Shift, schedule.Date.Format("2006-01-02")),
		Data: map[string]interface{}{
			"schedule_id":       schedule.ID,
			"is_early_checkout": schedule.IsEarlyCheckout,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyReceiptReady notifies the customer that a receipt is available.
func (s *NotificationService) NotifyReceiptReady(ctx context.Context, receipt *domain.Receipt) error {
	return s.send(ctx, Notification{
		Type:        NotificationReceiptReady,
		RecipientID: receipt.CustomerID,
		Title:       "Receipt Ready",
		Message:     fmt.Sprintf("Your receipt for booking %s is ready. Total: %.0f", receipt.BookingCode, receipt.TotalAmount),
		Data: map[string]interface{}{
			"receipt_id":   receipt.ID,
			"booking_code": receipt.BookingCode,
		},
		CreatedAt: time.Now(),
	})
}

func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	// In a real implementation, this would:
	// 1. Store notification in database
	// 2. Send push notification via FCM/APNS
	// 3. Send SMS if enabled

	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}
