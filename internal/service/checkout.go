package service

import (
	"context"
	"fmt"
)

// Checkout is the external payment collaborator. Charge returns a URL the
// customer completes payment at; settlement arrives later via callback keyed
// by booking code.
type Checkout interface {
	Charge(ctx context.Context, bookingID string) (checkoutURL string, err error)
}

// MockCheckout is a stand-in checkout provider used until the real gateway
// integration is wired.
type MockCheckout struct {
	BaseURL string
}

// NewMockCheckout creates a new MockCheckout.
func NewMockCheckout(baseURL string) *MockCheckout {
	if baseURL == "" {
		baseURL = "https://pay.example.com/checkout"
	}
	return &MockCheckout{BaseURL: baseURL}
}

// Charge returns a deterministic checkout URL for the booking.
func (c *MockCheckout) Charge(ctx context.Context, bookingID string) (string, error) {
	return fmt.Sprintf("%s/%s", c.BaseURL, bookingID), nil
}

// Ensure MockCheckout implements Checkout.
var _ Checkout = (*MockCheckout)(nil)

// CodeGenerator produces unique booking codes. Injected so tests and future
// collision-free schemes can swap the implementation.
type CodeGenerator interface {
	NewCode() string
}
