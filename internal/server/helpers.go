package server

import (
	"net/http"
	"time"

	"companion-gateway/internal/core"
	"companion-gateway/internal/metrics"
	"companion-gateway/internal/provider"

	"github.com/gin-gonic/gin"
)

// respondWithProviderError converts a normalized relay failure into the
// client-facing JSON shape. Model-not-found gets the structured alternatives
// response so the caller can retry without guessing valid model names.
func respondWithProviderError(c *gin.Context, perr *provider.Error) {
	if perr.Kind == provider.KindModelNotFound {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":        "Model not found",
			"status":       http.StatusBadRequest,
			"alternatives": core.GeminiFallbackModels,
		})
		return
	}

	body := gin.H{
		"error":  perr.Message,
		"status": perr.Status,
	}
	if perr.Details != "" {
		body["details"] = perr.Details
	}
	c.JSON(perr.Status, body)
}

// trackPerformanceWithMetrics records performance metrics
func trackPerformanceWithMetrics(m *metrics.MetricsService, startTime time.Time) func() {
	return func() {
		duration := time.Since(startTime)
		m.RecordHTTPRequest(duration)
	}
}

// recordRequestResultWithMetrics records request result
func recordRequestResultWithMetrics(m *metrics.MetricsService, success bool, startTime time.Time, providerName, route string) {
	if success {
		metrics.RecordSuccessWithMetrics(m, startTime, providerName, route)
	} else {
		metrics.RecordFailureWithMetrics(m, startTime, providerName, route)
	}
}

// withPanicRecoveryWithMetrics wraps handler with panic recovery. The last
// resort for anything a handler lets escape: clients always see the
// normalized shape, never a stack trace.
func withPanicRecoveryWithMetrics(
	c *gin.Context,
	m *metrics.MetricsService,
	startTime time.Time,
	providerName, route string,
	logger core.Logger,
) func() {
	return func() {
		if r := recover(); r != nil {
			logger.Error("Panic in %s handler: %v", providerName, r)
			metrics.RecordFailureWithMetrics(m, startTime, providerName, route)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":  "Internal server error",
				"status": http.StatusInternalServerError,
			})
		}
	}
}
