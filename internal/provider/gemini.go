package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"companion-gateway/internal/core"
	"companion-gateway/internal/util"
)

// GeminiGenerate forwards a text-generation request to the Gemini API. The
// model name is consumed from the request body for URL construction; the rest
// of the payload is forwarded verbatim. The credential travels only in the
// outbound query string.
func (p *Client) GeminiGenerate(ctx context.Context, body []byte) (*JSONResult, *Error) {
	credential := p.creds.Gemini
	if credential == "" {
		return nil, newNotConfiguredError(core.ProviderGemini)
	}

	model, payload, err := extractGeminiModel(body)
	if err != nil {
		return nil, &Error{
			Provider: core.ProviderGemini,
			Kind:     KindUnknown,
			Status:   http.StatusBadRequest,
			Message:  "Invalid request body",
		}
	}
	if model == "" {
		model = p.defaults.GeminiModel
	}

	upstreamURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.endpoints.GeminiBaseURL, url.PathEscape(model), url.QueryEscape(credential))

	resp, perr := p.doRequest(ctx, core.ProviderGemini, http.MethodPost, upstreamURL, payload, func(req *http.Request) {
		req.Header.Set(core.HeaderContentType, core.ContentTypeJSON)
	})
	if perr != nil {
		return nil, perr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		details := p.readErrorBody(resp)
		p.logger.Warn("[%s] upstream returned %d for model %s", core.ProviderGemini, resp.StatusCode, model)
		if strings.Contains(details, core.GeminiModelNotFoundMarker) {
			return nil, &Error{
				Provider: core.ProviderGemini,
				Kind:     KindModelNotFound,
				Status:   http.StatusBadRequest,
				Message:  "Model not found",
				Details:  scrubCredential(details, credential),
			}
		}
		return nil, newUpstreamError(core.ProviderGemini, resp.StatusCode, details, credential)
	}

	return p.readJSONBody(core.ProviderGemini, resp)
}

// GeminiListModels relays the model catalog, served from the TTL cache when
// fresh.
func (p *Client) GeminiListModels(ctx context.Context) (*JSONResult, *Error) {
	credential := p.creds.Gemini
	if credential == "" {
		return nil, newNotConfiguredError(core.ProviderGemini)
	}

	return p.cachedCatalog(core.ProviderGemini, "models", func() (*JSONResult, *Error) {
		upstreamURL := fmt.Sprintf("%s/models?key=%s", p.endpoints.GeminiBaseURL, url.QueryEscape(credential))

		resp, perr := p.doRequest(ctx, core.ProviderGemini, http.MethodGet, upstreamURL, nil, func(req *http.Request) {
			req.Header.Set(core.HeaderAccept, core.ContentTypeJSON)
		})
		if perr != nil {
			return nil, perr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			details := p.readErrorBody(resp)
			return nil, newUpstreamError(core.ProviderGemini, resp.StatusCode, details, credential)
		}

		return p.readJSONBody(core.ProviderGemini, resp)
	})
}

// extractGeminiModel pops the optional "model" field from the request body and
// returns the remaining payload re-serialized for forwarding.
func extractGeminiModel(body []byte) (string, []byte, error) {
	var payload map[string]any
	if err := util.UnmarshalJSON(body, &payload); err != nil {
		return "", nil, err
	}

	model := ""
	if raw, ok := payload["model"]; ok {
		if s, ok := raw.(string); ok {
			model = s
		}
		delete(payload, "model")
	}

	forwarded, err := util.MarshalJSON(payload)
	if err != nil {
		return "", nil, err
	}
	return model, forwarded, nil
}
