package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker()
	router := gin.New()
	router.GET("/health", h.Liveness)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"alive"`)
}

func TestHealthChecker_Readiness(t *testing.T) {
	h := NewHealthChecker()
	h.Register("database", func(context.Context) error { return nil })

	router := gin.New()
	router.GET("/health/ready", h.Readiness)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	h.Register("redis", func(context.Context) error { return errors.New("connection refused") })

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status       string                      `json:"status"`
		Dependencies map[string]DependencyStatus `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Dependencies["database"].Status)
	assert.Equal(t, "connection refused", body.Dependencies["redis"].Error)
}

func TestMetricsMiddleware_CountsRequests(t *testing.T) {
	router := gin.New()
	router.Use(MetricsMiddleware())
	router.GET("/things/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	router.GET("/metrics", MetricsHandler())

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/things/:id", "418"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/42", nil))
	require.Equal(t, http.StatusTeapot, w.Code)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/things/:id", "418"))
	assert.Equal(t, before+1, after)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "taskmanager_http_requests_total"))
}
