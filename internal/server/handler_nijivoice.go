package server

import (
	"io"
	"net/http"
	"time"

	"companion-gateway/internal/core"

	"github.com/gin-gonic/gin"
)

const (
	routeNijivoiceActors   = "/api/proxy/nijivoice/voice-actors"
	routeNijivoiceGenerate = "/api/proxy/nijivoice/generate-voice"
)

func (s *Server) nijivoiceVoiceActors(c *gin.Context) {
	startTime := time.Now()

	defer withPanicRecoveryWithMetrics(c, s.metricsService, startTime, core.ProviderNijivoice, routeNijivoiceActors, s.config.Logger)()
	defer trackPerformanceWithMetrics(s.metricsService, startTime)()

	result, perr := s.providers.NijivoiceVoiceActors(c.Request.Context())
	if perr != nil {
		recordRequestResultWithMetrics(s.metricsService, false, startTime, core.ProviderNijivoice, routeNijivoiceActors)
		respondWithProviderError(c, perr)
		return
	}

	recordRequestResultWithMetrics(s.metricsService, true, startTime, core.ProviderNijivoice, routeNijivoiceActors)
	c.Data(result.Status, result.ContentType, result.Body)
}

// nijivoiceGenerateVoice relays voice generation for one actor. The upstream
// response is a JSON descriptor with a download URL; audio bytes are fetched
// by the caller from that URL.
func (s *Server) nijivoiceGenerateVoice(c *gin.Context) {
	startTime := time.Now()

	defer withPanicRecoveryWithMetrics(c, s.metricsService, startTime, core.ProviderNijivoice, routeNijivoiceGenerate, s.config.Logger)()
	defer trackPerformanceWithMetrics(s.metricsService, startTime)()

	voiceActorID := c.Param("voiceActorId")
	if voiceActorID == "" {
		recordRequestResultWithMetrics(s.metricsService, false, startTime, core.ProviderNijivoice, routeNijivoiceGenerate)
		c.JSON(http.StatusBadRequest, gin.H{"error": "voiceActorId is required", "status": http.StatusBadRequest})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		recordRequestResultWithMetrics(s.metricsService, false, startTime, core.ProviderNijivoice, routeNijivoiceGenerate)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body", "status": http.StatusBadRequest})
		return
	}

	result, perr := s.providers.NijivoiceGenerateVoice(c.Request.Context(), voiceActorID, body)
	if perr != nil {
		recordRequestResultWithMetrics(s.metricsService, false, startTime, core.ProviderNijivoice, routeNijivoiceGenerate)
		respondWithProviderError(c, perr)
		return
	}

	recordRequestResultWithMetrics(s.metricsService, true, startTime, core.ProviderNijivoice, routeNijivoiceGenerate)
	c.Data(result.Status, result.ContentType, result.Body)
}
