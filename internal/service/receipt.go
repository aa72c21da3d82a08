package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// ReceiptService builds per-booking receipts once payment settles.
type ReceiptService struct {
	tripRepo repository.TripRepository
	notifier *NotificationService
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(tripRepo repository.TripRepository, notifier *NotificationService) *ReceiptService {
	return &ReceiptService{
		tripRepo: tripRepo,
		notifier: notifier,
	}
}

// GenerateReceipt itemizes a confirmed booking, one line per trip.
func (s *ReceiptService) GenerateReceipt(ctx context.Context, booking *domain.Booking) (*domain.Receipt, error) {
	if booking == nil || len(booking.TripIDs) == 0 {
		return nil, ErrBookingCreateFailed
	}

	lines := make([]domain.ReceiptLine, 0, len(booking.TripIDs))
	for _, tripID := range booking.TripIDs {
		trip, err := s.tripRepo.GetByID(ctx, tripID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, domain.ReceiptLine{
			TripID:      trip.ID,
			ServiceType: trip.ServiceType,
			VehicleID:   trip.VehicleID,
			Amount:      trip.Amount,
		})
	}

	receipt := &domain.Receipt{
		ID:            uuid.New().String(),
		BookingID:     booking.ID,
		BookingCode:   booking.BookingCode,
		CustomerID:    booking.CustomerID,
		Lines:         lines,
		TotalAmount:   booking.TotalAmount,
		PaymentMethod: booking.PaymentMethod,
		CreatedAt:     time.Now(),
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyReceiptReady(ctx, receipt)
	}

	return receipt, nil
}

// FormatReceipt renders a receipt as plain text for logs and email bodies.
func (s *ReceiptService) FormatReceipt(receipt *domain.Receipt) string {
	var b strings.Builder

	b.WriteString("=== BOOKING RECEIPT ===\n")
	b.WriteString(fmt.Sprintf("Booking:  %s\n", receipt.BookingCode))
	b.WriteString(fmt.Sprintf("Customer: %s\n", receipt.CustomerID))
	b.WriteString(fmt.Sprintf("Date:     %s\n", receipt.CreatedAt.Format("2006-01-02 15:04")))
	b.WriteString("-----------------------\n")
	for _, line := range receipt.Lines {
		b.WriteString(fmt.Sprintf("%-16s %-10s %10.0f\n", line.ServiceType, line.VehicleID, line.Amount))
	}
	b.WriteString("-----------------------\n")
	b.WriteString(fmt.Sprintf("Total:    %.0f (%s)\n", receipt.TotalAmount, receipt.PaymentMethod))
	b.WriteString("=======================\n")

	return b.String()
}
