package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"companion-gateway/internal/core"
)

// NijivoiceVoiceActors relays the voice-actor catalog, served from the TTL
// cache when fresh. This provider authenticates with the x-api-key header,
// not a query parameter.
func (p *Client) NijivoiceVoiceActors(ctx context.Context) (*JSONResult, *Error) {
	credential := p.creds.Nijivoice
	if credential == "" {
		return nil, newNotConfiguredError(core.ProviderNijivoice)
	}

	return p.cachedCatalog(core.ProviderNijivoice, "voice-actors", func() (*JSONResult, *Error) {
		upstreamURL := p.endpoints.NijivoiceBaseURL + "/voice-actors"

		resp, perr := p.doRequest(ctx, core.ProviderNijivoice, http.MethodGet, upstreamURL, nil, func(req *http.Request) {
			req.Header.Set(core.HeaderNijivoiceKey, credential)
			req.Header.Set(core.HeaderAccept, core.ContentTypeJSON)
		})
		if perr != nil {
			return nil, perr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			details := p.readErrorBody(resp)
			return nil, newUpstreamError(core.ProviderNijivoice, resp.StatusCode, details, credential)
		}

		return p.readJSONBody(core.ProviderNijivoice, resp)
	})
}

// NijivoiceGenerateVoice forwards a voice-generation request for one actor.
// The upstream answers with a JSON descriptor holding a download URL; audio
// bytes are fetched by the caller from that URL, not relayed here. Upstream
// errors arrive as plain text and are carried in the details field.
func (p *Client) NijivoiceGenerateVoice(ctx context.Context, voiceActorID string, body []byte) (*JSONResult, *Error) {
	credential := p.creds.Nijivoice
	if credential == "" {
		return nil, newNotConfiguredError(core.ProviderNijivoice)
	}
	if voiceActorID == "" {
		return nil, &Error{
			Provider: core.ProviderNijivoice,
			Kind:     KindUnknown,
			Status:   http.StatusBadRequest,
			Message:  "voiceActorId is required",
		}
	}

	upstreamURL := fmt.Sprintf("%s/voice-actors/%s/generate-voice",
		p.endpoints.NijivoiceBaseURL, url.PathEscape(voiceActorID))

	resp, perr := p.doRequest(ctx, core.ProviderNijivoice, http.MethodPost, upstreamURL, body, func(req *http.Request) {
		req.Header.Set(core.HeaderNijivoiceKey, credential)
		req.Header.Set(core.HeaderContentType, core.ContentTypeJSON)
	})
	if perr != nil {
		return nil, perr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		details := p.readErrorBody(resp)
		p.logger.Warn("[%s] generate-voice failed with %d for actor %s", core.ProviderNijivoice, resp.StatusCode, voiceActorID)
		return nil, newUpstreamError(core.ProviderNijivoice, resp.StatusCode, details, credential)
	}

	return p.readJSONBody(core.ProviderNijivoice, resp)
}
