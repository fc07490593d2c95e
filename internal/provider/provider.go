// Package provider implements the credential-injecting relay cores for the
// upstream speech and text services. Each core is a plain function of
// (context, request) so the HTTP layer stays a thin adapter; nothing in this
// package depends on gin.
package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"companion-gateway/internal/cache"
	"companion-gateway/internal/config"
	"companion-gateway/internal/core"
)

// JSONResult is a JSON payload passed through from an upstream provider.
type JSONResult struct {
	Status      int
	ContentType string
	Body        []byte
}

// StreamResult is a binary payload streamed from an upstream provider.
// Callers own Body and must close it.
type StreamResult struct {
	Status        int
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}

// Close releases the underlying upstream body.
func (r *StreamResult) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Client relays requests to the three upstream providers with server-held
// credentials. Credentials are fixed at construction and never mutated.
type Client struct {
	httpClient *http.Client
	creds      config.Credentials
	endpoints  config.ProviderEndpoints
	defaults   Defaults
	catalogs   *cache.CacheService
	metrics    core.MetricsCollector
	logger     core.Logger
}

// Defaults holds per-provider default parameters.
type Defaults struct {
	GeminiModel string
}

// NewClient creates a relay client. catalogs and metrics may be nil; a nil
// catalogs disables catalog caching, a nil metrics falls back to NopMetrics.
func NewClient(httpClient *http.Client, creds config.Credentials, endpoints config.ProviderEndpoints, defaults Defaults, catalogs *cache.CacheService, metrics core.MetricsCollector, logger core.Logger) *Client {
	if metrics == nil {
		metrics = &core.NopMetrics{}
	}
	if logger == nil {
		logger = &core.NopLogger{}
	}
	if defaults.GeminiModel == "" {
		defaults.GeminiModel = core.GeminiDefaultModel
	}
	return &Client{
		httpClient: httpClient,
		creds:      creds,
		endpoints:  endpoints,
		defaults:   defaults,
		catalogs:   catalogs,
		metrics:    metrics,
		logger:     logger,
	}
}

// Credentials exposes the configured credential set for health reporting.
func (p *Client) Credentials() config.Credentials {
	return p.creds
}

// doRequest sends an outbound request and converts transport failures into a
// normalized network error. The caller owns the response body on success.
func (p *Client) doRequest(ctx context.Context, provider, method, url string, body []byte, configure func(*http.Request)) (*http.Response, *Error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		p.logger.Error("[%s] failed to build upstream request: %v", provider, err)
		return nil, newNetworkError(provider)
	}
	if configure != nil {
		configure(req)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error("[%s] upstream call failed: %v", provider, scrubCredential(err.Error(), p.creds.For(provider)))
		return nil, newNetworkError(provider)
	}
	return resp, nil
}

// readErrorBody drains a bounded amount of an upstream error body for the
// normalized details field. The body is closed here.
func (p *Client) readErrorBody(resp *http.Response) string {
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(io.LimitReader(resp.Body, core.MaxUpstreamErrorBodySize))
	if err != nil {
		return ""
	}
	return string(data)
}

// readJSONBody drains a successful JSON response body. The body is closed here.
func (p *Client) readJSONBody(provider string, resp *http.Response) (*JSONResult, *Error) {
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Error("[%s] failed to read upstream body: %v", provider, err)
		return nil, newNetworkError(provider)
	}
	contentType := resp.Header.Get(core.HeaderContentType)
	if contentType == "" {
		contentType = core.ContentTypeJSON
	}
	return &JSONResult{Status: resp.StatusCode, ContentType: contentType, Body: data}, nil
}

// cachedCatalog serves a provider catalog (speaker or actor lists) from the
// TTL cache, falling back to fetch on miss. Catalogs are the only cached
// payloads; generation responses are never cached.
func (p *Client) cachedCatalog(provider, catalog string, fetch func() (*JSONResult, *Error)) (*JSONResult, *Error) {
	if p.catalogs == nil {
		return fetch()
	}

	key := cache.CatalogKey(provider, catalog)
	if entry, ok := p.catalogs.GetCatalog(key); ok {
		p.metrics.RecordCacheHit()
		p.logger.Debug("[%s] catalog %s served from cache", provider, catalog)
		return &JSONResult{Status: http.StatusOK, ContentType: entry.ContentType, Body: entry.Body}, nil
	}
	p.metrics.RecordCacheMiss()

	result, perr := fetch()
	if perr != nil {
		return nil, perr
	}
	if result.Status == http.StatusOK {
		p.catalogs.SetCatalog(key, cache.CatalogEntry{Body: result.Body, ContentType: result.ContentType})
	}
	return result, nil
}
