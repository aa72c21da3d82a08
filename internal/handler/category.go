package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// CategoryHandler handles HTTP requests for vehicle categories.
type CategoryHandler struct {
	vehicleRepo  repository.VehicleRepository
	availability *service.AvailabilityService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(vehicleRepo repository.VehicleRepository, availability *service.AvailabilityService) *CategoryHandler {
	return &CategoryHandler{vehicleRepo: vehicleRepo, availability: availability}
}

// CategoryResponse is the HTTP representation of a vehicle category.
// Available is populated only when the request names a time window.
type CategoryResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	NumberOfSeat int    `json:"number_of_seat"`
	Available    *int   `json:"available,omitempty"`
}

// ListCategories handles GET /v1/categories. With ?from=&to= (RFC 3339) each
// category also carries the number of vehicles free for that window.
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()

	categories, err := h.vehicleRepo.GetAllCategories(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	var counts map[string]int
	fromParam, toParam := c.Query("from"), c.Query("to")
	if fromParam != "" || toParam != "" {
		from, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			respondBadRequest(c, "invalid from time")
			return
		}
		to, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			respondBadRequest(c, "invalid to time")
			return
		}

		counts, err = h.availableByCategory(c, from, to)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	out := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		resp := CategoryResponse{
			ID:           category.ID,
			Name:         category.Name,
			NumberOfSeat: category.NumberOfSeat,
		}
		if counts != nil {
			n := counts[category.ID]
			resp.Available = &n
		}
		out = append(out, resp)
	}

	respondJSON(c, http.StatusOK, out)
}

func (h *CategoryHandler) availableByCategory(c *gin.Context, from, to time.Time) (map[string]int, error) {
	ctx := c.Request.Context()

	schedules, err := h.availability.Available(ctx, from, to)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	if len(schedules) == 0 {
		return counts, nil
	}

	ids := make([]string, 0, len(schedules))
	for _, schedule := range schedules {
		ids = append(ids, schedule.VehicleID)
	}

	vehicles, err := h.vehicleRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, vehicle := range vehicles {
		if vehicle.Condition == domain.VehicleConditionAvailable {
			counts[vehicle.CategoryID]++
		}
	}

	return counts, nil
}
