package appointment

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nobat/booking-api/internal/model"
	"github.com/nobat/booking-api/internal/service/appointment"
	apperrors "github.com/nobat/booking-api/pkg/errors"
	"github.com/nobat/booking-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("/:id", h.Get)
		appointments.GET("/:id/history", h.GetHistory)
		appointments.GET("/:id/queue-position", h.GetQueuePosition)
		appointments.POST("/:id/transition", h.Transition)
	}
	r.GET("/doctors/:id/day", h.GetDaySummary)
	r.GET("/doctors/:id/appointments", h.ListForDay)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}
	appt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) GetHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}
	history, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, history)
}

func (h *Handler) GetQueuePosition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}
	pos, err := h.service.QueuePosition(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pos)
}

func (h *Handler) Transition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment ID", err))
		return
	}
	var req model.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid transition request", err))
		return
	}

	appt, err := h.service.Transition(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) GetDaySummary(c *gin.Context) {
	doctorID, clinicID, date, err := dayParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	summary, err := h.service.DaySummary(c.Request.Context(), doctorID, clinicID, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}

func (h *Handler) ListForDay(c *gin.Context) {
	doctorID, clinicID, date, err := dayParams(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	appts, err := h.service.ListForDay(c.Request.Context(), doctorID, clinicID, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appts)
}

func dayParams(c *gin.Context) (doctorID, clinicID uuid.UUID, date time.Time, err error) {
	doctorID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		return doctorID, clinicID, date, apperrors.BadRequest("invalid doctor ID", err)
	}
	clinicID, err = uuid.Parse(c.Query("clinic_id"))
	if err != nil {
		return doctorID, clinicID, date, apperrors.BadRequest("invalid clinic ID", err)
	}
	date, err = time.Parse(model.DateOnly, c.Query("date"))
	if err != nil {
		return doctorID, clinicID, date, apperrors.BadRequest("invalid date, expected YYYY-MM-DD", err)
	}
	return doctorID, clinicID, date, nil
}
