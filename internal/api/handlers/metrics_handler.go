package handlers

import (
	"net/http"

	"example.com/bakehouse/services/orders/internal/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsHandler exposes the in-process metrics snapshot
type MetricsHandler struct {
	metrics *metrics.Metrics
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(m *metrics.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: m}
}

// RegisterRoutes registers the metrics routes. They sit outside the
// allow-list so probes and scrapers can reach them.
func (h *MetricsHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/metrics", h.GetMetrics)
	router.GET("/health", h.GetHealth)
}

// GetMetrics returns all collected metrics.
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.GetAllMetrics())
}

// GetHealth reports overall health from the component checks.
func (h *MetricsHandler) GetHealth(c *gin.Context) {
	checks := h.metrics.GetHealthChecks()

	status := http.StatusOK
	overall := "ok"
	for _, healthy := range checks {
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
			break
		}
	}

	c.JSON(status, gin.H{
		"status":     overall,
		"components": checks,
		"uptime_s":   h.metrics.GetUptimeSeconds(),
	})
}
