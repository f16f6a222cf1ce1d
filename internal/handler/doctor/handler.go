package doctor

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nobat/booking-api/internal/service/doctor"
	apperrors "github.com/nobat/booking-api/pkg/errors"
	"github.com/nobat/booking-api/pkg/httputil"
)

type Handler struct {
	service *doctor.Service
}

func NewHandler(service *doctor.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/doctors/:id", h.Get)
	r.GET("/doctors/:id/clinics", h.ListClinics)
	r.PUT("/doctors/:id/clinics/:clinic_id/primary", h.SetPrimaryClinic)
}

func (h *Handler) Get(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}

	doc, err := h.service.Get(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doc)
}

func (h *Handler) ListClinics(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}

	assignments, err := h.service.ListClinics(c.Request.Context(), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, assignments)
}

func (h *Handler) SetPrimaryClinic(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}
	clinicID, err := uuid.Parse(c.Param("clinic_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid clinic ID", err))
		return
	}

	if err := h.service.SetPrimaryClinic(c.Request.Context(), doctorID, clinicID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"doctor_id": doctorID, "clinic_id": clinicID})
}
