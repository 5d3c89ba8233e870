package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
	"github.com/vhvplatform/go-mindtrain-service/internal/service"
	apperrors "github.com/vhvplatform/go-mindtrain-service/internal/shared/errors"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/logger"
)

// ScheduleHandler handles HTTP requests for the FCM schedule
type ScheduleHandler struct {
	service *service.ScheduleService
	log     *logger.Logger
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(service *service.ScheduleService, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		log:     log,
	}
}

// GetSchedule returns the user's schedule
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	sched, err := h.service.GetSchedule(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

// UpsertSchedule merges partial schedule fields, creating the aggregate
// when needed
func (h *ScheduleHandler) UpsertSchedule(c *gin.Context) {
	var update domain.ScheduleUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, apperrors.NewValidationError("Invalid request", err))
		return
	}

	sched, err := h.service.UpsertSchedule(c.Request.Context(), c.Param("userId"), &update)
	if err != nil {
		h.log.Error("Failed to upsert schedule", "error", err, "user_id", c.Param("userId"))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}
