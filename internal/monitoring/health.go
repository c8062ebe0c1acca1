package monitoring

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthCheckFunc func(ctx context.Context) error

type DependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type HealthChecker struct {
	mu        sync.RWMutex
	checks    map[string]HealthCheckFunc
	startTime time.Time
	timeout   time.Duration
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks:    make(map[string]HealthCheckFunc),
		startTime: time.Now(),
		timeout:   3 * time.Second,
	}
}

// Register adds a dependency probed by the readiness endpoint.
func (h *HealthChecker) Register(name string, check HealthCheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Run executes every registered check and reports whether all passed.
func (h *HealthChecker) Run(ctx context.Context) (map[string]DependencyStatus, bool) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make(map[string]DependencyStatus, len(names))
	healthy := true
	for _, name := range names {
		h.mu.RLock()
		check := h.checks[name]
		h.mu.RUnlock()

		if err := check(ctx); err != nil {
			results[name] = DependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			continue
		}
		results[name] = DependencyStatus{Status: "ok"}
	}
	return results, healthy
}

func (h *HealthChecker) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

func (h *HealthChecker) Readiness(c *gin.Context) {
	deps, healthy := h.Run(c.Request.Context())

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":       "degraded",
			"dependencies": deps,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ready",
		"dependencies": deps,
	})
}
