package server

import (
	"net/http"
	"time"

	"companion-gateway/internal/core"
	"companion-gateway/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	routeVoicevoxSpeakers = "/api/proxy/voicevox/speakers"
	routeVoicevoxAudio    = "/api/proxy/voicevox/audio"
)

func (s *Server) voicevoxSpeakers(c *gin.Context) {
	startTime := time.Now()

	defer withPanicRecoveryWithMetrics(c, s.metricsService, startTime, core.ProviderVoicevox, routeVoicevoxSpeakers, s.config.Logger)()
	defer trackPerformanceWithMetrics(s.metricsService, startTime)()

	result, perr := s.providers.VoicevoxSpeakers(c.Request.Context())
	if perr != nil {
		recordRequestResultWithMetrics(s.metricsService, false, startTime, core.ProviderVoicevox, routeVoicevoxSpeakers)
		respondWithProviderError(c, perr)
		return
	}

	recordRequestResultWithMetrics(s.metricsService, true, startTime, core.ProviderVoicevox, routeVoicevoxSpeakers)
	c.Data(result.Status, result.ContentType, result.Body)
}

// voicevoxAudio relays speech synthesis. Success streams the upstream audio
// body through without buffering; failure switches to the JSON error shape.
func (s *Server) voicevoxAudio(c *gin.Context) {
	startTime := time.Now()

	defer withPanicRecoveryWithMetrics(c, s.metricsService, startTime, core.ProviderVoicevox, routeVoicevoxAudio, s.config.Logger)()
	defer trackPerformanceWithMetrics(s.metricsService, startTime)()

	text := c.Query("text")
	speaker := c.Query("speaker")
	if text == "" || speaker == "" {
		recordRequestResultWithMetrics(s.metricsService, false, startTime, core.ProviderVoicevox, routeVoicevoxAudio)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "text and speaker query parameters are required",
			"status": http.StatusBadRequest,
		})
		return
	}

	params := core.SpeechParams{
		Text:            text,
		Speaker:         speaker,
		Speed:           util.ParseFloatWithDefault(c.Query("speed"), core.VoicevoxDefaultSpeed),
		Pitch:           util.ParseFloatWithDefault(c.Query("pitch"), core.VoicevoxDefaultPitch),
		IntonationScale: util.ParseFloatWithDefault(c.Query("intonationScale"), core.VoicevoxDefaultIntonation),
	}

	result, perr := s.providers.VoicevoxSynthesize(c.Request.Context(), params)
	if perr != nil {
		recordRequestResultWithMetrics(s.metricsService, false, startTime, core.ProviderVoicevox, routeVoicevoxAudio)
		respondWithProviderError(c, perr)
		return
	}
	defer func() { _ = result.Close() }()

	recordRequestResultWithMetrics(s.metricsService, true, startTime, core.ProviderVoicevox, routeVoicevoxAudio)
	c.DataFromReader(result.Status, result.ContentLength, result.ContentType, result.Body, nil)
}
