package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"companion-gateway/internal/core"
)

// VoicevoxSpeakers relays the speaker catalog, served from the TTL cache when
// fresh. The credential travels as a query parameter.
func (p *Client) VoicevoxSpeakers(ctx context.Context) (*JSONResult, *Error) {
	credential := p.creds.Voicevox
	if credential == "" {
		return nil, newNotConfiguredError(core.ProviderVoicevox)
	}

	return p.cachedCatalog(core.ProviderVoicevox, "speakers", func() (*JSONResult, *Error) {
		upstreamURL := fmt.Sprintf("%s/speakers/?key=%s", p.endpoints.VoicevoxBaseURL, url.QueryEscape(credential))

		resp, perr := p.doRequest(ctx, core.ProviderVoicevox, http.MethodGet, upstreamURL, nil, func(req *http.Request) {
			req.Header.Set(core.HeaderAccept, core.ContentTypeJSON)
		})
		if perr != nil {
			return nil, perr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			details := p.readErrorBody(resp)
			return nil, newUpstreamError(core.ProviderVoicevox, resp.StatusCode, details, credential)
		}

		return p.readJSONBody(core.ProviderVoicevox, resp)
	})
}

// VoicevoxSynthesize forwards a speech-synthesis request and returns the
// upstream audio body as a stream. The caller must close the result. Audio is
// never buffered whole; failures surface as normalized JSON errors instead.
func (p *Client) VoicevoxSynthesize(ctx context.Context, params core.SpeechParams) (*StreamResult, *Error) {
	credential := p.creds.Voicevox
	if credential == "" {
		return nil, newNotConfiguredError(core.ProviderVoicevox)
	}

	query := url.Values{}
	query.Set("text", params.Text)
	query.Set("speaker", params.Speaker)
	query.Set("speed", strconv.FormatFloat(params.Speed, 'f', -1, 64))
	query.Set("pitch", strconv.FormatFloat(params.Pitch, 'f', -1, 64))
	query.Set("intonationScale", strconv.FormatFloat(params.IntonationScale, 'f', -1, 64))
	query.Set("key", credential)

	upstreamURL := fmt.Sprintf("%s/audio/?%s", p.endpoints.VoicevoxBaseURL, query.Encode())

	resp, perr := p.doRequest(ctx, core.ProviderVoicevox, http.MethodGet, upstreamURL, nil, func(req *http.Request) {
		req.Header.Set(core.HeaderAccept, core.ContentTypeAudio)
	})
	if perr != nil {
		return nil, perr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		details := p.readErrorBody(resp)
		p.logger.Warn("[%s] synthesis failed with %d", core.ProviderVoicevox, resp.StatusCode)
		return nil, newUpstreamError(core.ProviderVoicevox, resp.StatusCode, details, credential)
	}

	return &StreamResult{
		Status:        resp.StatusCode,
		ContentType:   resp.Header.Get(core.HeaderContentType),
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}
