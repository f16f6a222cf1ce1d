package booking

import (
	"github.com/gin-gonic/gin"

	"github.com/nobat/booking-api/internal/model"
	"github.com/nobat/booking-api/internal/service/booking"
	apperrors "github.com/nobat/booking-api/pkg/errors"
	"github.com/nobat/booking-api/pkg/httputil"
)

type Handler struct {
	service *booking.Service
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/appointments", h.Book)
}

func (h *Handler) Book(c *gin.Context) {
	var req model.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid booking request", err))
		return
	}

	appt, err := h.service.Book(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, appt)
}
