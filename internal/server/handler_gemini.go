package server

import (
	"io"
	"net/http"
	"time"

	"companion-gateway/internal/core"

	"github.com/gin-gonic/gin"
)

const (
	routeGeminiGenerate = "/api/proxy/gemini"
	routeGeminiModels   = "/api/proxy/gemini/models"
)

// geminiGenerate relays a text-generation request. The body is forwarded
// verbatim apart from the model field, which is consumed for URL construction.
func (s *Server) geminiGenerate(c *gin.Context) {
	startTime := time.Now()

	defer withPanicRecoveryWithMetrics(c, s.metricsService, startTime, core.ProviderGemini, routeGeminiGenerate, s.config.Logger)()
	defer trackPerformanceWithMetrics(s.metricsService, startTime)()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		recordRequestResultWithMetrics(s.metricsService, false, startTime, core.ProviderGemini, routeGeminiGenerate)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body is required", "status": http.StatusBadRequest})
		return
	}

	result, perr := s.providers.GeminiGenerate(c.Request.Context(), body)
	if perr != nil {
		recordRequestResultWithMetrics(s.metricsService, false, startTime, core.ProviderGemini, routeGeminiGenerate)
		respondWithProviderError(c, perr)
		return
	}

	recordRequestResultWithMetrics(s.metricsService, true, startTime, core.ProviderGemini, routeGeminiGenerate)
	c.Data(result.Status, result.ContentType, result.Body)
}

// geminiListModels relays the model catalog.
func (s *Server) geminiListModels(c *gin.Context) {
	startTime := time.Now()

	defer withPanicRecoveryWithMetrics(c, s.metricsService, startTime, core.ProviderGemini, routeGeminiModels, s.config.Logger)()
	defer trackPerformanceWithMetrics(s.metricsService, startTime)()

	result, perr := s.providers.GeminiListModels(c.Request.Context())
	if perr != nil {
		recordRequestResultWithMetrics(s.metricsService, false, startTime, core.ProviderGemini, routeGeminiModels)
		respondWithProviderError(c, perr)
		return
	}

	recordRequestResultWithMetrics(s.metricsService, true, startTime, core.ProviderGemini, routeGeminiModels)
	c.Data(result.Status, result.ContentType, result.Body)
}
