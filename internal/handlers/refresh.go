package handlers

import (
	"net/http"

	"task-manager/api/internal/serializers"

	"github.com/gin-gonic/gin"
)

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req serializers.RefreshRequest
	if err := serializers.BindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	access, err := h.authService.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, serializers.AccessResponse{Access: access})
}
