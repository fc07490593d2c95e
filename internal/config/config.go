package config

import (
	"os"
	"strconv"
	"time"

	"companion-gateway/internal/core"
	"companion-gateway/internal/util"
)

// Credentials holds one secret per upstream provider. Built exactly once at
// startup and passed by value; never mutated, never serialized, never logged.
type Credentials struct {
	Gemini    string
	Voicevox  string
	Nijivoice string
}

// For returns the credential for a provider name.
func (c Credentials) For(provider string) string {
	switch provider {
	case core.ProviderGemini:
		return c.Gemini
	case core.ProviderVoicevox:
		return c.Voicevox
	case core.ProviderNijivoice:
		return c.Nijivoice
	}
	return ""
}

// Configured reports whether a non-empty credential exists for the provider.
// This is the exact meaning of the health endpoint's service booleans.
func (c Credentials) Configured(provider string) bool {
	return c.For(provider) != ""
}

// Services returns the health map of configured providers.
func (c Credentials) Services() map[string]bool {
	return map[string]bool{
		core.ProviderGemini:    c.Configured(core.ProviderGemini),
		core.ProviderVoicevox:  c.Configured(core.ProviderVoicevox),
		core.ProviderNijivoice: c.Configured(core.ProviderNijivoice),
	}
}

// ProviderEndpoints holds the upstream base URLs. Overridable for tests.
type ProviderEndpoints struct {
	GeminiBaseURL    string
	VoicevoxBaseURL  string
	NijivoiceBaseURL string
}

// DefaultProviderEndpoints returns the production upstream endpoints.
func DefaultProviderEndpoints() ProviderEndpoints {
	return ProviderEndpoints{
		GeminiBaseURL:    core.GeminiAPIBase,
		VoicevoxBaseURL:  core.VoicevoxAPIBase,
		NijivoiceBaseURL: core.NijivoiceAPIBase,
	}
}

// HTTPClientSettings HTTP client configuration
type HTTPClientSettings struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	RequestTimeout      time.Duration
}

// DefaultHTTPClientSettings default HTTP client settings
func DefaultHTTPClientSettings() HTTPClientSettings {
	return HTTPClientSettings{
		MaxIdleConns:        core.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: core.HTTPMaxIdleConnsPerHost,
		MaxConnsPerHost:     core.HTTPMaxConnsPerHost,
		IdleConnTimeout:     core.HTTPIdleConnTimeout,
		TLSHandshakeTimeout: core.HTTPTLSHandshakeTimeout,
		RequestTimeout:      core.HTTPRequestTimeout,
	}
}

// ServerConfig server configuration
type ServerConfig struct {
	Port               string
	GinMode            string
	AllowedOrigins     []string
	Credentials        Credentials
	GeminiDefaultModel string
	Endpoints          ProviderEndpoints
	HTTPClientSettings HTTPClientSettings
	RateLimitPerMinute int
	Storage            core.StorageInterface
	Logger             core.Logger
}

// LoadServerConfigFromEnv loads server config from environment variables.
// A missing provider credential disables that provider's routes; it is never
// a startup error.
func LoadServerConfigFromEnv(logger core.Logger) (ServerConfig, error) {
	creds := Credentials{
		Gemini:    os.Getenv("GEMINI_API_KEY"),
		Voicevox:  os.Getenv("VOICEVOX_API_KEY"),
		Nijivoice: os.Getenv("NIJIVOICE_API_KEY"),
	}

	for provider, configured := range creds.Services() {
		if configured {
			logger.Info("Provider %s configured (key %s)", provider, util.MaskCredential(creds.For(provider)))
		} else {
			logger.Warn("Provider %s has no API key; its routes will respond 500", provider)
		}
	}

	origins := util.ParseEnvList(os.Getenv("ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = defaultAllowedOrigins()
		logger.Info("ALLOWED_ORIGINS not set, using local development origins")
	} else {
		logger.Info("Loaded %d allowed origins", len(origins))
	}

	settings := DefaultHTTPClientSettings()
	if raw := os.Getenv("UPSTREAM_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			settings.RequestTimeout = time.Duration(secs) * time.Second
		} else {
			logger.Warn("Invalid UPSTREAM_TIMEOUT_SECONDS value '%s', keeping default", raw)
		}
	}

	rateLimit := core.DefaultRateLimitPerMinute
	if raw := os.Getenv("RATE_LIMIT"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			rateLimit = parsed
		} else {
			logger.Warn("Invalid RATE_LIMIT value '%s', using default %d", raw, core.DefaultRateLimitPerMinute)
		}
	}

	cfg := ServerConfig{
		Port:               util.GetEnvWithDefault("PORT", core.DefaultPort),
		GinMode:            util.GetEnvWithDefault("GIN_MODE", core.DefaultGinMode),
		AllowedOrigins:     origins,
		Credentials:        creds,
		GeminiDefaultModel: util.GetEnvWithDefault("GEMINI_DEFAULT_MODEL", core.GeminiDefaultModel),
		Endpoints:          DefaultProviderEndpoints(),
		HTTPClientSettings: settings,
		RateLimitPerMinute: rateLimit,
	}

	return cfg, nil
}

// defaultAllowedOrigins covers the local dev servers the prototype
// front-ends run on.
func defaultAllowedOrigins() []string {
	return []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:5173",
	}
}
