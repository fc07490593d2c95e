package core

// Provider name constants. Every normalized error and every stats record is
// tagged with one of these.
const (
	ProviderGemini    = "gemini"
	ProviderVoicevox  = "voicevox"
	ProviderNijivoice = "nijivoice"
)

// Gemini upstream constants
const (
	GeminiAPIBase      = "https://generativelanguage.googleapis.com/v1beta"
	GeminiDefaultModel = "gemini-2.0-flash"

	// GeminiModelNotFoundMarker is the substring Gemini returns when a model
	// identifier does not exist for the requested API version.
	GeminiModelNotFoundMarker = "not found for API version"
)

// GeminiFallbackModels are suggested to the client when its requested model is
// unknown upstream, so it can retry without guessing.
var GeminiFallbackModels = []string{
	"gemini-pro",
	"gemini-1.5-flash",
	"gemini-1.5-pro",
	"gemini-2.0-flash",
}

// VOICEVOX upstream constants. Auth is a `key` query parameter.
const (
	VoicevoxAPIBase = "https://deprecatedapis.tts.quest/v2/voicevox"

	VoicevoxDefaultSpeed      = 1.0
	VoicevoxDefaultPitch      = 0.0
	VoicevoxDefaultIntonation = 1.0
)

// Nijivoice upstream constants. Auth is an x-api-key header, unlike VOICEVOX.
const (
	NijivoiceAPIBase = "https://api.nijivoice.com/api/platform/v1"
)
