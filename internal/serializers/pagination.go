package serializers

import (
	"net/url"
	"strconv"

	"task-manager/api/internal/models"
	"task-manager/api/internal/services"

	"github.com/gin-gonic/gin"
)

// PageResponse is the paginated list envelope. Next and Previous are
// absolute URLs, or null at either end.
type PageResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func NewTaskPage(c *gin.Context, page *services.Page[models.Task]) PageResponse[TaskResponse] {
	return newPageResponse(c, page, taskItem)
}

func NewUserPage(c *gin.Context, page *services.Page[models.User]) PageResponse[UserResponse] {
	return newPageResponse(c, page, userItem)
}

func newPageResponse[M, T any](c *gin.Context, page *services.Page[M], convert func(M) T) PageResponse[T] {
	results := make([]T, 0, len(page.Items))
	for _, item := range page.Items {
		results = append(results, convert(item))
	}

	resp := PageResponse[T]{Count: page.Count, Results: results}
	if page.HasNext() {
		link := pageURL(c, page.Number+1)
		resp.Next = &link
	}
	if page.HasPrevious() {
		link := pageURL(c, page.Number-1)
		resp.Previous = &link
	}
	return resp
}

// pageURL rebuilds the request URL for another page, keeping every other
// query parameter. The link to page 1 carries no page parameter.
func pageURL(c *gin.Context, number int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	query := c.Request.URL.Query()
	if number <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(number))
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: query.Encode(),
	}
	return u.String()
}
