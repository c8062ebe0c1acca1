package serializers

import (
	"encoding/json"
	"reflect"
	"strconv"
	"time"

	"task-manager/api/internal/models"
	"task-manager/api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type TaskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        string    `json:"user"`
}

func NewTaskResponse(t *models.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		User:        t.User.Username,
	}
}

func taskItem(t models.Task) TaskResponse { return NewTaskResponse(&t) }

// OptionalString tells an absent JSON field apart from an explicit null. It
// backs the task description, so a type error names that field.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &json.UnmarshalTypeError{
			Value: jsonKind(data),
			Type:  reflect.TypeOf(s),
			Field: "description",
		}
	}
	o.Value = &s
	return nil
}

func jsonKind(data []byte) string {
	if len(data) == 0 {
		return "value"
	}
	switch data[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "bool"
	default:
		return "number"
	}
}

// None of the task request structs has an owner field, so a "user" key in the
// body is dropped by the decoder.

type TaskCreateRequest struct {
	Title       *string        `json:"title" binding:"required,notblank,max=255"`
	Description OptionalString `json:"description"`
	Completed   *bool          `json:"completed"`
}

func (r TaskCreateRequest) Input() services.TaskInput {
	return services.TaskInput{
		Title:          r.Title,
		Description:    r.Description.Value,
		DescriptionSet: r.Description.Set,
		Completed:      r.Completed,
	}
}

// TaskUpdateRequest is the PUT body. Optional fields that are absent keep
// their stored values.
type TaskUpdateRequest struct {
	Title       *string        `json:"title" binding:"required,notblank,max=255"`
	Description OptionalString `json:"description"`
	Completed   *bool          `json:"completed"`
}

func (r TaskUpdateRequest) Input() services.TaskInput {
	return services.TaskInput{
		Title:          r.Title,
		Description:    r.Description.Value,
		DescriptionSet: r.Description.Set,
		Completed:      r.Completed,
	}
}

type TaskPatchRequest struct {
	Title       *string        `json:"title" binding:"omitempty,notblank,max=255"`
	Description OptionalString `json:"description"`
	Completed   *bool          `json:"completed"`
}

func (r TaskPatchRequest) Input() services.TaskInput {
	return services.TaskInput{
		Title:          r.Title,
		Description:    r.Description.Value,
		DescriptionSet: r.Description.Set,
		Completed:      r.Completed,
	}
}

// ParseTaskQuery reads the completed, user and page query parameters. Empty
// values are treated as absent.
func ParseTaskQuery(c *gin.Context) (services.TaskListQuery, error) {
	var q services.TaskListQuery
	verr := services.NewValidationError()

	if raw := c.Query("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			verr.Add("completed", "Must be a valid boolean.")
		} else {
			q.Completed = &completed
		}
	}

	if raw := c.Query("user"); raw != "" {
		id, err := uuid.FromString(raw)
		if err != nil {
			verr.Add("user", services.MsgInvalidChoice)
		} else {
			q.UserID = &id
		}
	}

	if !verr.Empty() {
		return q, verr
	}

	page, err := ParsePage(c)
	if err != nil {
		return q, err
	}
	q.Page = page
	return q, nil
}

// ParsePage returns the requested page number, 1 when absent.
func ParsePage(c *gin.Context) (int, error) {
	raw := c.Query("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, services.ErrInvalidPage
	}
	return page, nil
}
