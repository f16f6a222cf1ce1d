package httputil

import (
	goerrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nobat/booking-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response. Booking validation codes map to
// 409/422-class statuses so callers can distinguish them from hard failures.
func RespondWithError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if !goerrors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   &Error{Code: errors.ErrInternal, Message: "internal server error"},
		})
		return
	}

	c.JSON(statusFor(appErr.Code), Response{
		Success: false,
		Error:   &Error{Code: appErr.Code, Message: appErr.Message},
	})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound, errors.ErrTariffNotFound:
		return http.StatusNotFound
	case errors.ErrBadRequest, errors.ErrInvalidWindow:
		return http.StatusBadRequest
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrSlotTaken, errors.ErrDayFull, errors.ErrDuplicatePatientBooking,
		errors.ErrScheduleOverlap, errors.ErrDuplicateException, errors.ErrInvalidTransition:
		return http.StatusConflict
	case errors.ErrClinicNotLinked, errors.ErrPastDate, errors.ErrDoctorUnavailable,
		errors.ErrNoScheduleForDay, errors.ErrCancelDeadline:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
