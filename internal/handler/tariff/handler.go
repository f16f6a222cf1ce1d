package tariff

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nobat/booking-api/internal/service/tariff"
	apperrors "github.com/nobat/booking-api/pkg/errors"
	"github.com/nobat/booking-api/pkg/httputil"
)

type Handler struct {
	service *tariff.Service
}

func NewHandler(service *tariff.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/doctors/:id/tariffs", h.ListForDoctor)
	r.GET("/doctors/:id/tariffs/resolve", h.Resolve)
}

func (h *Handler) ListForDoctor(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}
	var clinicID *uuid.UUID
	if v := c.Query("clinic_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid clinic ID", err))
			return
		}
		clinicID = &id
	}

	tariffs, err := h.service.ListForDoctor(c.Request.Context(), doctorID, clinicID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tariffs)
}

// Resolve previews which tariff would price a booking for the given
// service and insurance selection.
func (h *Handler) Resolve(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}
	serviceTypeID, err := uuid.Parse(c.Query("service_type_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid service type ID", err))
		return
	}
	insuranceTypeID, err := uuid.Parse(c.Query("insurance_type_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid insurance type ID", err))
		return
	}
	var clinicID *uuid.UUID
	if v := c.Query("clinic_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid clinic ID", err))
			return
		}
		clinicID = &id
	}

	resolved, err := h.service.Resolve(c.Request.Context(), doctorID, serviceTypeID, insuranceTypeID, clinicID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resolved)
}
