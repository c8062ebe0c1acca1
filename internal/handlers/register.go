package handlers

import (
	"net/http"

	"task-manager/api/internal/serializers"
	"task-manager/api/internal/services"

	"github.com/gin-gonic/gin"
)

type RegisterHandler struct {
	registerService services.RegisterService
}

func NewRegisterHandler(registerService services.RegisterService) *RegisterHandler {
	return &RegisterHandler{registerService: registerService}
}

func (h *RegisterHandler) Registration(c *gin.Context) {
	var req serializers.RegisterRequest
	if err := serializers.BindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.registerService.Register(c.Request.Context(), req.Input()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, serializers.MessageResponse{Message: "User created successfully"})
}
