package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/vhvplatform/go-mindtrain-service/internal/shared/errors"
)

// statusFor maps application error codes onto HTTP status codes. The
// service layer never sees HTTP; this is the only place the mapping
// lives.
func statusFor(err error) int {
	switch apperrors.Code(err) {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeUserNotFound, apperrors.CodeProfileNotFound:
		return http.StatusNotFound
	case apperrors.CodeConcurrency:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"code":  apperrors.Code(err),
		"error": err.Error(),
	})
}
