package handlers

import (
	"net/http"

	"task-manager/api/internal/middleware"
	"task-manager/api/internal/serializers"
	"task-manager/api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	query, err := serializers.ParseTaskQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.taskService.List(c.Request.Context(), middleware.PrincipalFrom(c), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, serializers.NewTaskPage(c, page))
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req serializers.TaskCreateRequest
	if err := serializers.BindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), middleware.PrincipalFrom(c), req.Input())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, serializers.NewTaskResponse(task))
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, serializers.NewTaskResponse(task))
}

// UpdateTask handles PUT. The title is required; other fields keep their
// stored values when absent.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req serializers.TaskUpdateRequest
	if err := serializers.BindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	h.update(c, id, req.Input())
}

func (h *TaskHandler) PartialUpdateTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req serializers.TaskPatchRequest
	if err := serializers.BindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	h.update(c, id, req.Input())
}

func (h *TaskHandler) update(c *gin.Context, id uuid.UUID, in services.TaskInput) {
	task, err := h.taskService.Update(c.Request.Context(), middleware.PrincipalFrom(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, serializers.NewTaskResponse(task))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), middleware.PrincipalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// taskID parses the :id path parameter. A malformed id cannot name any task,
// so it is answered as not found.
func taskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, services.ErrTaskNotFound)
		return uuid.Nil, false
	}
	return id, true
}
