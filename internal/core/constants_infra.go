package core

import "time"

// HTTP client config constants
const (
	HTTPMaxIdleConns          = 500
	HTTPMaxIdleConnsPerHost   = 100
	HTTPMaxConnsPerHost       = 200
	HTTPIdleConnTimeout       = 600 * time.Second
	HTTPTLSHandshakeTimeout   = 30 * time.Second
	HTTPResponseHeaderTimeout = 30 * time.Second
	HTTPExpectContinueTimeout = 5 * time.Second

	// HTTPRequestTimeout bounds a full upstream round trip. Speech synthesis
	// for long scripts is the slowest call we relay, so the bound is generous.
	HTTPRequestTimeout = 120 * time.Second
)

// Cache config constants
const (
	CacheDefaultCapacity = 1000
	CacheCleanupInterval = 5 * time.Minute

	// CatalogCacheTTL is how long speaker / voice-actor catalogs are served
	// from cache before the next request goes upstream again.
	CatalogCacheTTL = 10 * time.Minute
)

// Stats and monitoring constants
const (
	StatsFilePath        = "stats.json"
	MinSaveInterval      = 5 * time.Second
	HistoryBufferSize    = 1000
	HistoryBatchSize     = 100
	HistoryFlushInterval = 100 * time.Millisecond
)

// Request body size limits
const (
	// MaxRequestBodySize caps inbound bodies. Chat payloads and voice scripts
	// are small; anything larger is abuse.
	MaxRequestBodySize = 1 << 20

	MaxUpstreamErrorBodySize = 64 * 1024
)

// Logging config constants
const (
	MaxDebugFilePathLength = 260
)

// File permission constants
const (
	FilePermissionReadWrite = 0644
)

// HTTP header and content type constants
const (
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"
	HeaderAccept        = "Accept"
	HeaderRequestID     = "X-Request-ID"
	HeaderNijivoiceKey  = "x-api-key"

	ContentTypeJSON  = "application/json"
	ContentTypeAudio = "audio/wav,audio/*"

	CORSMaxAge = "86400"
)

// Time format constants
const (
	TimeFormatDateTime = "2006-01-02 15:04:05"
)

// Server defaults
const (
	DefaultPort    = "3001"
	DefaultGinMode = "release"

	DefaultRateLimitPerMinute = 120
)
