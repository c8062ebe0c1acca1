package handlers

import (
	"errors"
	"net/http"

	"task-manager/api/internal/services"
	"task-manager/api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto the JSON error envelope. Anything
// unrecognised is logged and reported as a bare 500.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"message": "Invalid input.",
			"details": verr.Fields,
		})
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Not found.",
		})
	case errors.Is(err, services.ErrInvalidPage):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Invalid page.",
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_credentials",
			"message": "No active account found with the given credentials",
		})
	case errors.Is(err, services.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_token",
			"message": services.MsgInvalidToken,
		})
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "not_authenticated",
			"message": "Authentication credentials were not provided.",
		})
	default:
		log := logger.Get()
		log.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
