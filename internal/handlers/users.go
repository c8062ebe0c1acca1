package handlers

import (
	"net/http"

	"task-manager/api/internal/middleware"
	"task-manager/api/internal/serializers"
	"task-manager/api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me returns the authenticated user's own profile.
func (h *UserHandler) Me(c *gin.Context) {
	session := middleware.SessionFrom(c)
	if session == nil || session.User == nil {
		respondError(c, services.ErrUnauthenticated)
		return
	}

	c.JSON(http.StatusOK, serializers.NewUserResponse(session.User))
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	number, err := serializers.ParsePage(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.userService.List(c.Request.Context(), number)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, serializers.NewUserPage(c, page))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, serializers.NewUserResponse(user))
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, services.ErrUserNotFound)
		return uuid.Nil, false
	}
	return id, true
}
