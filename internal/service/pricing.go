package service

import (
	"context"

	"dispatch/internal/domain"
)

// Pricer is the external pricing collaborator. The dimension is hours for
// hourly bookings and kilometers for every other service type.
type Pricer interface {
	CalculatePrice(ctx context.Context, serviceType domain.ServiceType, vehicleID string, dimension float64) (float64, error)
}

// TariffPricer is a flat per-service-type tariff implementation of Pricer.
type TariffPricer struct {
	rates map[domain.ServiceType]tariff
}

type tariff struct {
	Base    float64
	PerUnit float64
	Minimum float64
}

// NewTariffPricer creates a TariffPricer with default rates.
func NewTariffPricer() *TariffPricer {
	return &TariffPricer{
		rates: map[domain.ServiceType]tariff{
			domain.ServiceBookingHour:        {Base: 50000, PerUnit: 120000, Minimum: 170000},
			domain.ServiceBookingScenicRoute: {Base: 30000, PerUnit: 15000, Minimum: 60000},
			domain.ServiceBookingDestination: {Base: 20000, PerUnit: 12000, Minimum: 45000},
			domain.ServiceBookingShare:       {Base: 10000, PerUnit: 9000, Minimum: 25000},
		},
	}
}

// CalculatePrice returns the fare for a service type and pricing dimension.
func (p *TariffPricer) CalculatePrice(ctx context.Context, serviceType domain.ServiceType, vehicleID string, dimension float64) (float64, error) {
	rate, ok := p.rates[serviceType]
	if !ok {
		return 0, ErrInvalidServiceType
	}

	price := rate.Base + rate.PerUnit*dimension
	if price < rate.Minimum {
		price = rate.Minimum
	}

	return price, nil
}

// Ensure TariffPricer implements Pricer.
var _ Pricer = (*TariffPricer)(nil)
