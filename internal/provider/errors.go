package provider

import (
	"fmt"
	"net/http"
	"strings"

	"companion-gateway/internal/core"
)

// FailureKind is the closed set of upstream failure classifications.
type FailureKind string

const (
	KindNetworkFailure FailureKind = "network failure"
	KindNotFound       FailureKind = "not found"
	KindAuthFailure    FailureKind = "auth failure"
	KindRateLimited    FailureKind = "rate limited"
	KindModelNotFound  FailureKind = "model not found"
	KindUnknown        FailureKind = "unknown"
)

// Error is the normalized failure shape every relay funnels through.
// It carries the provider name and a sanitized detail string, never the
// credential and never the caller's payload.
type Error struct {
	Provider string
	Kind     FailureKind
	Status   int
	Message  string
	Details  string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s): %s", e.Provider, e.Message, e.Kind, e.Details)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Kind)
}

// ClassifyStatus maps an upstream HTTP status to a FailureKind.
func ClassifyStatus(status int) FailureKind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuthFailure
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindUnknown
	}
}

// providerTitles maps internal provider names to client-facing names.
var providerTitles = map[string]string{
	core.ProviderGemini:    "Gemini",
	core.ProviderVoicevox:  "VOICEVOX",
	core.ProviderNijivoice: "Nijivoice",
}

// ProviderTitle returns the client-facing name for a provider.
func ProviderTitle(provider string) string {
	if title, ok := providerTitles[provider]; ok {
		return title
	}
	return provider
}

// newNotConfiguredError reports a missing credential. Returned before any
// outbound call is attempted.
func newNotConfiguredError(provider string) *Error {
	return &Error{
		Provider: provider,
		Kind:     KindUnknown,
		Status:   http.StatusInternalServerError,
		Message:  ProviderTitle(provider) + " API key not configured",
	}
}

// newNetworkError reports that no response reached the upstream at all.
func newNetworkError(provider string) *Error {
	return &Error{
		Provider: provider,
		Kind:     KindNetworkFailure,
		Status:   http.StatusInternalServerError,
		Message:  "Failed to communicate with " + ProviderTitle(provider) + " API",
	}
}

// newUpstreamError classifies a non-2xx upstream response. The details string
// is scrubbed of the credential before it can reach a response body or log line.
func newUpstreamError(provider string, status int, details, credential string) *Error {
	return &Error{
		Provider: provider,
		Kind:     ClassifyStatus(status),
		Status:   status,
		Message:  ProviderTitle(provider) + " API error",
		Details:  scrubCredential(details, credential),
	}
}

// scrubCredential removes every occurrence of the credential from a detail
// string sourced from an upstream body. Upstream errors have been observed to
// echo request URLs, which for query-authed providers include the key.
func scrubCredential(details, credential string) string {
	if credential == "" {
		return details
	}
	return strings.ReplaceAll(details, credential, "[REDACTED]")
}
