package server

import (
	"net/http"

	"companion-gateway/internal/metrics"

	"github.com/gin-gonic/gin"
)

func (s *Server) setupRoutes() {
	gin.SetMode(s.ginMode)
	s.router = gin.New()

	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(s.corsMiddleware())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.maxBodySizeMiddleware())
	s.router.Use(s.rateLimitMiddleware())

	// Monitoring surface
	s.router.GET("/", metrics.ShowStatsPage)
	s.router.GET("/api/health", s.healthCheck)
	s.router.GET("/api/stats", s.getStatsData)

	// Provider relay routes
	proxy := s.router.Group("/api/proxy")
	{
		proxy.POST("/gemini", s.geminiGenerate)
		proxy.GET("/gemini/models", s.geminiListModels)
		proxy.GET("/voicevox/speakers", s.voicevoxSpeakers)
		proxy.GET("/voicevox/audio", s.voicevoxAudio)
		proxy.GET("/nijivoice/voice-actors", s.nijivoiceVoiceActors)
		proxy.POST("/nijivoice/generate-voice/:voiceActorId", s.nijivoiceGenerateVoice)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})
}
