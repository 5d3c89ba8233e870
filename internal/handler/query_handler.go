package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
	"github.com/vhvplatform/go-mindtrain-service/internal/service"
	apperrors "github.com/vhvplatform/go-mindtrain-service/internal/shared/errors"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/logger"
)

// QueryHandler exposes the read-side queries the external dispatcher polls
type QueryHandler struct {
	service *service.QueryService
	log     *logger.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(service *service.QueryService, log *logger.Logger) *QueryHandler {
	return &QueryHandler{
		service: service,
		log:     log,
	}
}

// UsersForNotification returns users inside the current notification window
func (h *QueryHandler) UsersForNotification(c *gin.Context) {
	kind := domain.NotificationKind(c.Query("kind"))
	windowMinutes, err := strconv.Atoi(c.DefaultQuery("windowMinutes", "15"))
	if err != nil {
		respondError(c, apperrors.NewValidationError("windowMinutes must be an integer", err))
		return
	}

	users, err := h.service.GetUsersForNotification(c.Request.Context(), kind, time.Now().UTC(), windowMinutes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  users,
		"total": len(users),
	})
}

// UsersNeedingSync returns users overdue for a background sync check
func (h *QueryHandler) UsersNeedingSync(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		respondError(c, apperrors.NewValidationError("limit must be an integer", err))
		return
	}

	users, err := h.service.FindUsersNeedingSync(c.Request.Context(), time.Now().UTC(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  users,
		"total": len(users),
	})
}
