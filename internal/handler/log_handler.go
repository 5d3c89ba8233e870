package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
	"github.com/vhvplatform/go-mindtrain-service/internal/service"
	apperrors "github.com/vhvplatform/go-mindtrain-service/internal/shared/errors"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/logger"
)

// LogHandler handles HTTP requests for the two rotating logs
type LogHandler struct {
	service *service.LogService
	log     *logger.Logger
}

// NewLogHandler creates a new log handler
func NewLogHandler(service *service.LogService, log *logger.Logger) *LogHandler {
	return &LogHandler{
		service: service,
		log:     log,
	}
}

// AppendNotificationLog records a notification handed to the dispatcher
func (h *LogHandler) AppendNotificationLog(c *gin.Context) {
	var req domain.AppendNotificationLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("Invalid request", err))
		return
	}

	entry, err := h.service.AppendNotificationLog(c.Request.Context(), c.Param("userId"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// AppendSyncHealthLog records a device health report
func (h *LogHandler) AppendSyncHealthLog(c *gin.Context) {
	var req domain.AppendSyncHealthLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("Invalid request", err))
		return
	}

	entry, err := h.service.AppendSyncHealthLog(c.Request.Context(), c.Param("userId"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// GetFailedNotifications returns the user's recently failed entries
func (h *LogHandler) GetFailedNotifications(c *gin.Context) {
	hoursBack, err := strconv.Atoi(c.DefaultQuery("hoursBack", "24"))
	if err != nil {
		respondError(c, apperrors.NewValidationError("hoursBack must be an integer", err))
		return
	}

	entries, err := h.service.GetFailedNotifications(c.Request.Context(), c.Param("userId"), hoursBack)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  entries,
		"total": len(entries),
	})
}
