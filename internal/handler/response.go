package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// Error kinds exposed to API clients. Clients branch on Kind, not on the
// human-readable messages.
const (
	KindValidation   = "VALIDATION"
	KindNotFound     = "NOT_FOUND"
	KindConflict     = "CONFLICT"
	KindInsufficient = "INSUFFICIENT_AVAILABILITY"
	KindDownstream   = "DOWNSTREAM"
	KindInternal     = "INTERNAL"
)

// ErrorResponse represents an error response. Messages are carried in both
// English and Vietnamese.
type ErrorResponse struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	MessageVi string `json:"message_vi,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	status, kind := classifyError(err)
	c.JSON(status, ErrorResponse{
		Kind:      kind,
		Message:   err.Error(),
		MessageVi: localizeVi(err),
	})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Kind:      KindValidation,
		Message:   message,
		MessageVi: "yêu cầu không hợp lệ",
	})
}

// classifyError maps service/repository errors to an HTTP status and a kind.
func classifyError(err error) (int, string) {
	switch {
	case service.IsInsufficientAvailability(err):
		return http.StatusConflict, KindInsufficient

	// Not found
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrScheduleNotFound):
		return http.StatusNotFound, KindNotFound

	// Validation - Bad Request
	case errors.Is(err, service.ErrInvalidTimeWindow),
		errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, service.ErrInvalidServiceType),
		errors.Is(err, service.ErrInvalidDistance),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrInvalidSeats),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidShift),
		errors.Is(err, service.ErrInvalidScheduleID),
		errors.Is(err, service.ErrInvalidDriverID):
		return http.StatusBadRequest, KindValidation

	// State machine and slot conflicts
	case errors.Is(err, service.ErrScheduleAlreadyStarted),
		errors.Is(err, service.ErrScheduleNotInProgress),
		errors.Is(err, service.ErrNotInShiftTime),
		errors.Is(err, service.ErrDriverNotActive),
		errors.Is(err, service.ErrVehicleNotAvailable),
		errors.Is(err, service.ErrDuplicateScheduleSlot),
		errors.Is(err, service.ErrCustomerHasActiveTrip):
		return http.StatusConflict, KindConflict

	// Downstream collaborators
	case errors.Is(err, service.ErrCheckoutFailed):
		return http.StatusBadGateway, KindDownstream

	default:
		return http.StatusInternalServerError, KindInternal
	}
}

// localizeVi returns the Vietnamese message for known errors, empty otherwise.
func localizeVi(err error) string {
	switch {
	case service.IsInsufficientAvailability(err):
		return "không đủ xe cho loại xe yêu cầu"
	case errors.Is(err, repository.ErrNotFound):
		return "không tìm thấy"
	case errors.Is(err, service.ErrScheduleNotFound):
		return "không tìm thấy lịch làm việc"
	case errors.Is(err, service.ErrInvalidTimeWindow):
		return "khoảng thời gian không hợp lệ"
	case errors.Is(err, service.ErrInvalidCustomerID):
		return "mã khách hàng không hợp lệ"
	case errors.Is(err, service.ErrInvalidServiceType):
		return "loại dịch vụ không hợp lệ"
	case errors.Is(err, service.ErrInvalidDistance):
		return "quãng đường không hợp lệ"
	case errors.Is(err, service.ErrInvalidDuration):
		return "thời lượng không hợp lệ"
	case errors.Is(err, service.ErrInvalidSeats):
		return "số ghế không hợp lệ"
	case errors.Is(err, service.ErrInvalidPaymentMethod):
		return "phương thức thanh toán không hợp lệ"
	case errors.Is(err, service.ErrInvalidShift):
		return "ca làm việc không hợp lệ"
	case errors.Is(err, service.ErrInvalidScheduleID):
		return "mã lịch làm việc không hợp lệ"
	case errors.Is(err, service.ErrInvalidDriverID):
		return "mã tài xế không hợp lệ"
	case errors.Is(err, service.ErrScheduleAlreadyStarted):
		return "lịch làm việc đã bắt đầu hoặc đã kết thúc"
	case errors.Is(err, service.ErrScheduleNotInProgress):
		return "lịch làm việc chưa bắt đầu"
	case errors.Is(err, service.ErrNotInShiftTime):
		return "ngoài khung giờ ca làm việc"
	case errors.Is(err, service.ErrDriverNotActive):
		return "tài xế không hoạt động"
	case errors.Is(err, service.ErrVehicleNotAvailable):
		return "xe không sẵn sàng"
	case errors.Is(err, service.ErrDuplicateScheduleSlot):
		return "trùng lịch làm việc"
	case errors.Is(err, service.ErrCustomerHasActiveTrip):
		return "khách hàng đang có chuyến đi chung chưa kết thúc"
	case errors.Is(err, service.ErrCheckoutFailed):
		return "thanh toán thất bại"
	default:
		return ""
	}
}
