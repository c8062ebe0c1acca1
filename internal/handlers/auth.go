package handlers

import (
	"net/http"

	"task-manager/api/internal/serializers"
	"task-manager/api/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Token exchanges a username and password for an access/refresh pair.
func (h *AuthHandler) Token(c *gin.Context) {
	var req serializers.LoginRequest
	if err := serializers.BindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, serializers.TokenPairResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
	})
}
