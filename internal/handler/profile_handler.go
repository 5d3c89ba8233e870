package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
	"github.com/vhvplatform/go-mindtrain-service/internal/service"
	apperrors "github.com/vhvplatform/go-mindtrain-service/internal/shared/errors"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/logger"
)

// ProfileHandler handles HTTP requests for users and alarm profiles
type ProfileHandler struct {
	service *service.ProfileService
	log     *logger.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(service *service.ProfileService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		log:     log,
	}
}

// EnsureUser creates the user aggregate if it does not exist yet
func (h *ProfileHandler) EnsureUser(c *gin.Context) {
	user, err := h.service.EnsureUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUser returns the full user aggregate
func (h *ProfileHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListProfiles returns the user's alarm profiles
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	profiles, err := h.service.ListProfiles(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  profiles,
		"total": len(profiles),
	})
}

// GetProfile returns a single alarm profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.service.GetProfile(c.Request.Context(), c.Param("userId"), c.Param("profileId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// AddProfile creates a new alarm profile
func (h *ProfileHandler) AddProfile(c *gin.Context) {
	var req domain.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("Invalid request", err))
		return
	}

	profile, err := h.service.AddProfile(c.Request.Context(), c.Param("userId"), &req)
	if err != nil {
		h.log.Error("Failed to add profile", "error", err, "user_id", c.Param("userId"))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// UpdateProfile applies a partial update to a profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var update domain.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, apperrors.NewValidationError("Invalid request", err))
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), c.Param("userId"), c.Param("profileId"), &update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ActivateProfile makes a profile the user's single active one
func (h *ProfileHandler) ActivateProfile(c *gin.Context) {
	user, err := h.service.ActivateProfile(c.Request.Context(), c.Param("userId"), c.Param("profileId"))
	if err != nil {
		h.log.Error("Failed to activate profile", "error", err, "user_id", c.Param("userId"), "profile_id", c.Param("profileId"))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteProfile removes a profile and its dependent notification logs
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	result, err := h.service.DeleteProfile(c.Request.Context(), c.Param("userId"), c.Param("profileId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
