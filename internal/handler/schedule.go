package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// ScheduleHandler handles HTTP requests for driver schedules.
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// ScheduleEntryRequest is one schedule in a batch-create request.
type ScheduleEntryRequest struct {
	DriverID  string `json:"driver_id"`
	VehicleID string `json:"vehicle_id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Shift     string `json:"shift"`
}

// CreateSchedulesRequest is the HTTP request body for POST /v1/schedules.
type CreateSchedulesRequest struct {
	Schedules []ScheduleEntryRequest `json:"schedules"`
}

// CheckRequest is the HTTP request body for check-in and check-out.
type CheckRequest struct {
	DriverID string `json:"driver_id"`
}

// ScheduleResponse is the HTTP representation of a schedule.
type ScheduleResponse struct {
	ID              string `json:"id"`
	DriverID        string `json:"driver_id"`
	VehicleID       string `json:"vehicle_id"`
	Date            string `json:"date"`
	Shift           string `json:"shift"`
	Status          string `json:"status"`
	TimeToOpen      string `json:"time_to_open"`
	TimeToClose     string `json:"time_to_close"`
	CheckinTime     string `json:"checkin_time,omitempty"`
	CheckoutTime    string `json:"checkout_time,omitempty"`
	IsLate          bool   `json:"is_late"`
	IsEarlyCheckout bool   `json:"is_early_checkout"`
}

// CreateSchedulesResponse is the HTTP response for batch creation.
type CreateSchedulesResponse struct {
	Schedules []ScheduleResponse `json:"schedules"`
}

// CreateSchedules handles POST /v1/schedules
func (h *ScheduleHandler) CreateSchedules(c *gin.Context) {
	var req CreateSchedulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if len(req.Schedules) == 0 {
		respondBadRequest(c, "schedules is required")
		return
	}

	entries := make([]service.NewScheduleEntry, 0, len(req.Schedules))
	for _, entry := range req.Schedules {
		date, err := time.Parse("2006-01-02", entry.Date)
		if err != nil {
			respondBadRequest(c, "invalid date, expected YYYY-MM-DD")
			return
		}
		entries = append(entries, service.NewScheduleEntry{
			DriverID:  entry.DriverID,
			VehicleID: entry.VehicleID,
			Date:      date,
			Shift:     domain.Shift(entry.Shift),
		})
	}

	schedules, err := h.scheduleService.CreateSchedules(c.Request.Context(), entries)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CreateSchedulesResponse{Schedules: toScheduleResponses(schedules)})
}

// ListSchedules handles GET /v1/schedules?driver_id=...&date=YYYY-MM-DD
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	driverID := c.Query("driver_id")

	var date time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondBadRequest(c, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	schedules, err := h.scheduleService.GetSchedules(c.Request.Context(), driverID, date)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CreateSchedulesResponse{Schedules: toScheduleResponses(schedules)})
}

// CheckIn handles POST /v1/schedules/:id/checkin
func (h *ScheduleHandler) CheckIn(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	schedule, err := h.scheduleService.CheckIn(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toScheduleResponse(schedule))
}

// CheckOut handles POST /v1/schedules/:id/checkout
func (h *ScheduleHandler) CheckOut(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	schedule, err := h.scheduleService.CheckOut(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toScheduleResponse(schedule))
}

func toScheduleResponse(schedule *domain.DriverSchedule) ScheduleResponse {
	resp := ScheduleResponse{
		ID:              schedule.ID,
		DriverID:        schedule.DriverID,
		VehicleID:       schedule.VehicleID,
		Date:            schedule.Date.Format("2006-01-02"),
		Shift:           string(schedule.Shift),
		Status:          string(schedule.Status),
		TimeToOpen:      schedule.TimeToOpen.Format(time.RFC3339),
		TimeToClose:     schedule.TimeToClose.Format(time.RFC3339),
		IsLate:          schedule.IsLate,
		IsEarlyCheckout: schedule.IsEarlyCheckout,
	}
	if !schedule.CheckinTime.IsZero() {
		resp.CheckinTime = schedule.CheckinTime.Format(time.RFC3339)
	}
	if !schedule.CheckoutTime.IsZero() {
		resp.CheckoutTime = schedule.CheckoutTime.Format(time.RFC3339)
	}
	return resp
}

func toScheduleResponses(schedules []*domain.DriverSchedule) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(schedules))
	for _, schedule := range schedules {
		out = append(out, toScheduleResponse(schedule))
	}
	return out
}
