package handlers

import (
	"net/http"

	"task-manager/api/internal/middleware"
	"task-manager/api/internal/serializers"

	"github.com/gin-gonic/gin"
)

// Logout revokes the given refresh token and the access token that
// authenticated this request.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req serializers.LogoutRequest
	if err := serializers.BindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), middleware.SessionFrom(c), req.Refresh); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, serializers.MessageResponse{Message: "Successfully logged out."})
}
