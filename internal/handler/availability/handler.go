package availability

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/nobat/booking-api/internal/model"
	"github.com/nobat/booking-api/internal/service/schedule"
	apperrors "github.com/nobat/booking-api/pkg/errors"
	"github.com/nobat/booking-api/pkg/httputil"
)

// Handler serves the read side of availability: day slots and open
// dates. Slot responses are cached briefly; a stale entry only costs a
// booking attempt its optimistic check, the storage constraint still
// rejects double holds.
type Handler struct {
	service *schedule.Service
	cache   *gocache.Cache
}

func NewHandler(service *schedule.Service, cacheTTL time.Duration) *Handler {
	return &Handler{
		service: service,
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors/:id")
	{
		doctors.GET("/slots", h.GetSlots)
		doctors.GET("/open-dates", h.GetOpenDates)
	}
}

func (h *Handler) GetSlots(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}
	clinicID, err := uuid.Parse(c.Query("clinic_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid clinic ID", err))
		return
	}
	date, err := time.Parse(model.DateOnly, c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid date, expected YYYY-MM-DD", err))
		return
	}

	key := fmt.Sprintf("slots:%s:%s:%s", doctorID, clinicID, c.Query("date"))
	if cached, ok := h.cache.Get(key); ok {
		httputil.RespondWithSuccess(c, cached)
		return
	}

	slots, err := h.service.GenerateSlots(c.Request.Context(), doctorID, clinicID, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.cache.SetDefault(key, slots)
	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) GetOpenDates(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid doctor ID", err))
		return
	}
	clinicID, err := uuid.Parse(c.Query("clinic_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid clinic ID", err))
		return
	}
	horizon := 0
	if v := c.Query("days"); v != "" {
		horizon, err = strconv.Atoi(v)
		if err != nil || horizon < 0 {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid days", err))
			return
		}
	}

	dates, err := h.service.ListOpenDates(c.Request.Context(), doctorID, clinicID, horizon)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, dates)
}
