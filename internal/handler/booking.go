package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
	sharedService  *service.SharedRideService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService, sharedService *service.SharedRideService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		sharedService:  sharedService,
	}
}

// PointRequest is a named coordinate in a request body.
type PointRequest struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func (p PointRequest) toDomain() domain.Point {
	return domain.Point{Name: p.Name, Lat: p.Lat, Lng: p.Lng}
}

// CategoryRequestBody is one category line in a booking request.
type CategoryRequestBody struct {
	CategoryID string `json:"category_id"`
	Quantity   int    `json:"quantity"`
}

// CreateHourlyBookingRequest is the HTTP request body for POST /v1/bookings/hourly.
type CreateHourlyBookingRequest struct {
	CustomerID    string                `json:"customer_id"`
	Start         time.Time             `json:"start"`
	DurationHours float64               `json:"duration_hours"`
	StartPoint    PointRequest          `json:"start_point"`
	Categories    []CategoryRequestBody `json:"categories"`
	PaymentMethod string                `json:"payment_method,omitempty"` // CASH, CARD, VNPAY
}

// CreateScenicBookingRequest is the HTTP request body for POST /v1/bookings/scenic.
type CreateScenicBookingRequest struct {
	CustomerID      string                `json:"customer_id"`
	Start           time.Time             `json:"start"`
	RouteID         string                `json:"route_id"`
	StartPoint      PointRequest          `json:"start_point"`
	DistanceKm      float64               `json:"distance_km"`
	DurationMinutes float64               `json:"duration_minutes"`
	Categories      []CategoryRequestBody `json:"categories"`
	PaymentMethod   string                `json:"payment_method,omitempty"`
}

// CreateDestinationBookingRequest is the HTTP request body for POST /v1/bookings/destination.
type CreateDestinationBookingRequest struct {
	CustomerID      string       `json:"customer_id"`
	Start           time.Time    `json:"start"`
	StartPoint      PointRequest `json:"start_point"`
	EndPoint        PointRequest `json:"end_point"`
	DistanceKm      float64      `json:"distance_km"`
	DurationMinutes float64      `json:"duration_minutes"`
	CategoryID      string       `json:"category_id"`
	PaymentMethod   string       `json:"payment_method,omitempty"`
}

// CreateSharedBookingRequest is the HTTP request body for POST /v1/bookings/shared.
type CreateSharedBookingRequest struct {
	CustomerID      string       `json:"customer_id"`
	Start           time.Time    `json:"start"`
	StartPoint      PointRequest `json:"start_point"`
	EndPoint        PointRequest `json:"end_point"`
	Seats           int          `json:"seats"`
	DistanceKm      float64      `json:"distance_km"`
	DurationMinutes float64      `json:"duration_minutes"`
	PaymentMethod   string       `json:"payment_method,omitempty"`
}

// CheckoutCallbackRequest is the HTTP request body for POST /v1/checkout/callback.
type CheckoutCallbackRequest struct {
	BookingCode string `json:"booking_code"`
	Success     bool   `json:"success"`
}

// TripResponse is one trip in a booking response.
type TripResponse struct {
	ID          string  `json:"id"`
	DriverID    string  `json:"driver_id"`
	VehicleID   string  `json:"vehicle_id"`
	ScheduleID  string  `json:"schedule_id"`
	ServiceType string  `json:"service_type"`
	TimeStart   string  `json:"time_start_estimate"`
	TimeEnd     string  `json:"time_end_estimate"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
}

// BookingResponse is the HTTP response for booking creation and lookup.
type BookingResponse struct {
	ID            string         `json:"id"`
	BookingCode   string         `json:"booking_code"`
	CustomerID    string         `json:"customer_id"`
	TotalAmount   float64        `json:"total_amount"`
	PaymentMethod string         `json:"payment_method"`
	Status        string         `json:"status"`
	PaymentURL    string         `json:"payment_url,omitempty"`
	Trips         []TripResponse `json:"trips,omitempty"`
}

// CreateHourlyBooking handles POST /v1/bookings/hourly
func (h *BookingHandler) CreateHourlyBooking(c *gin.Context) {
	var req CreateHourlyBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	method, err := parsePaymentMethod(req.PaymentMethod)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.bookingService.CreateHourlyBooking(c.Request.Context(), service.HourlyBookingRequest{
		CustomerID:    req.CustomerID,
		Start:         req.Start,
		DurationHours: req.DurationHours,
		StartPoint:    req.StartPoint.toDomain(),
		Categories:    toCategoryRequests(req.Categories),
		PaymentMethod: method,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(result))
}

// CreateScenicBooking handles POST /v1/bookings/scenic
func (h *BookingHandler) CreateScenicBooking(c *gin.Context) {
	var req CreateScenicBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	method, err := parsePaymentMethod(req.PaymentMethod)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.bookingService.CreateScenicBooking(c.Request.Context(), service.ScenicBookingRequest{
		CustomerID:      req.CustomerID,
		Start:           req.Start,
		RouteID:         req.RouteID,
		StartPoint:      req.StartPoint.toDomain(),
		DistanceKm:      req.DistanceKm,
		DurationMinutes: req.DurationMinutes,
		Categories:      toCategoryRequests(req.Categories),
		PaymentMethod:   method,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(result))
}

// CreateDestinationBooking handles POST /v1/bookings/destination
func (h *BookingHandler) CreateDestinationBooking(c *gin.Context) {
	var req CreateDestinationBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	method, err := parsePaymentMethod(req.PaymentMethod)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.bookingService.CreateDestinationBooking(c.Request.Context(), service.DestinationBookingRequest{
		CustomerID:      req.CustomerID,
		Start:           req.Start,
		StartPoint:      req.StartPoint.toDomain(),
		EndPoint:        req.EndPoint.toDomain(),
		DistanceKm:      req.DistanceKm,
		DurationMinutes: req.DurationMinutes,
		CategoryID:      req.CategoryID,
		PaymentMethod:   method,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(result))
}

// CreateSharedBooking handles POST /v1/bookings/shared
func (h *BookingHandler) CreateSharedBooking(c *gin.Context) {
	var req CreateSharedBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	method, err := parsePaymentMethod(req.PaymentMethod)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := h.sharedService.CreateSharedBooking(c.Request.Context(), service.SharedBookingRequest{
		CustomerID:      req.CustomerID,
		Start:           req.Start,
		StartPoint:      req.StartPoint.toDomain(),
		EndPoint:        req.EndPoint.toDomain(),
		Seats:           req.Seats,
		DistanceKm:      req.DistanceKm,
		DurationMinutes: req.DurationMinutes,
		PaymentMethod:   method,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(result))
}

// GetBooking handles GET /v1/bookings/:code
func (h *BookingHandler) GetBooking(c *gin.Context) {
	code := c.Param("code")

	booking, err := h.bookingService.GetBooking(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BookingResponse{
		ID:            booking.ID,
		BookingCode:   booking.BookingCode,
		CustomerID:    booking.CustomerID,
		TotalAmount:   booking.TotalAmount,
		PaymentMethod: string(booking.PaymentMethod),
		Status:        string(booking.Status),
	})
}

// CheckoutCallback handles POST /v1/checkout/callback
func (h *BookingHandler) CheckoutCallback(c *gin.Context) {
	var req CheckoutCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.BookingCode == "" {
		respondBadRequest(c, "booking_code is required")
		return
	}

	booking, err := h.bookingService.HandleCheckoutResult(c.Request.Context(), req.BookingCode, req.Success)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BookingResponse{
		ID:            booking.ID,
		BookingCode:   booking.BookingCode,
		CustomerID:    booking.CustomerID,
		TotalAmount:   booking.TotalAmount,
		PaymentMethod: string(booking.PaymentMethod),
		Status:        string(booking.Status),
	})
}

func parsePaymentMethod(raw string) (domain.PaymentMethod, error) {
	switch domain.PaymentMethod(raw) {
	case domain.PaymentMethodCash, domain.PaymentMethodCard, domain.PaymentMethodVNPay:
		return domain.PaymentMethod(raw), nil
	case "":
		return domain.PaymentMethodCash, nil
	default:
		return "", service.ErrInvalidPaymentMethod
	}
}

func toCategoryRequests(bodies []CategoryRequestBody) []service.CategoryRequest {
	requests := make([]service.CategoryRequest, 0, len(bodies))
	for _, body := range bodies {
		requests = append(requests, service.CategoryRequest{
			CategoryID: body.CategoryID,
			Quantity:   body.Quantity,
		})
	}
	return requests
}

func toBookingResponse(result *service.BookingResult) BookingResponse {
	trips := make([]TripResponse, 0, len(result.Trips))
	for _, trip := range result.Trips {
		trips = append(trips, TripResponse{
			ID:          trip.ID,
			DriverID:    trip.DriverID,
			VehicleID:   trip.VehicleID,
			ScheduleID:  trip.ScheduleID,
			ServiceType: string(trip.ServiceType),
			TimeStart:   trip.TimeStartEstimate.Format(time.RFC3339),
			TimeEnd:     trip.TimeEndEstimate.Format(time.RFC3339),
			Amount:      trip.Amount,
			Status:      string(trip.Status),
		})
	}

	return BookingResponse{
		ID:            result.Booking.ID,
		BookingCode:   result.Booking.BookingCode,
		CustomerID:    result.Booking.CustomerID,
		TotalAmount:   result.Booking.TotalAmount,
		PaymentMethod: string(result.Booking.PaymentMethod),
		Status:        string(result.Booking.Status),
		PaymentURL:    result.PaymentURL,
		Trips:         trips,
	}
}
