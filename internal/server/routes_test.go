package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"companion-gateway/internal/config"
	"companion-gateway/internal/core"
	"companion-gateway/internal/storage"
	"companion-gateway/internal/util"
)

func newTestServer(t *testing.T, creds config.Credentials, endpoints config.ProviderEndpoints) *Server {
	t.Helper()

	if endpoints == (config.ProviderEndpoints{}) {
		endpoints = config.DefaultProviderEndpoints()
	}

	cfg := config.ServerConfig{
		Port:               "0",
		GinMode:            "test",
		AllowedOrigins:     []string{"http://localhost:3000"},
		Credentials:        creds,
		Endpoints:          endpoints,
		HTTPClientSettings: config.DefaultHTTPClientSettings(),
		RateLimitPerMinute: 10000,
		Storage:            storage.NewFileStorage(filepath.Join(t.TempDir(), "stats.json")),
		Logger:             &core.NopLogger{},
	}

	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("创建服务器失败: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestUnknownRoute_Returns404Shape(t *testing.T) {
	srv := newTestServer(t, config.Credentials{}, config.ProviderEndpoints{})

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/proxy/unknown"},
		{http.MethodGet, "/api/proxy/gemini"}, // wrong method
		{http.MethodPost, "/api/health"},
		{http.MethodGet, "/nothing"},
	}

	for _, tt := range paths {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tt.method, tt.path, nil)
		srv.Router().ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s 应返回404，实际为%d", tt.method, tt.path, w.Code)
		}
		var body map[string]any
		if err := util.UnmarshalJSON(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("响应应为JSON: %v", err)
		}
		if body["error"] != "Endpoint not found" {
			t.Errorf("错误消息应为Endpoint not found，实际为%v", body["error"])
		}
	}
}

func TestHealthCheck_ReflectsConfiguredCredentials(t *testing.T) {
	srv := newTestServer(t, config.Credentials{Gemini: "g-key", Nijivoice: "n-key"}, config.ProviderEndpoints{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("健康检查应返回200，实际为%d", w.Code)
	}

	var body struct {
		Status    string          `json:"status"`
		Timestamp string          `json:"timestamp"`
		Services  map[string]bool `json:"services"`
	}
	if err := util.UnmarshalJSON(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}

	if body.Status != "OK" {
		t.Errorf("status应为OK，实际为%s", body.Status)
	}
	if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
		t.Errorf("timestamp应为有效的ISO-8601: %s", body.Timestamp)
	}
	if !body.Services[core.ProviderGemini] || body.Services[core.ProviderVoicevox] || !body.Services[core.ProviderNijivoice] {
		t.Errorf("services布尔值应与配置一致: %v", body.Services)
	}
}

func TestHealthCheck_NeverCallsUpstream(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer upstream.Close()

	endpoints := config.ProviderEndpoints{
		GeminiBaseURL:    upstream.URL,
		VoicevoxBaseURL:  upstream.URL,
		NijivoiceBaseURL: upstream.URL,
	}
	srv := newTestServer(t, config.Credentials{Gemini: "g", Voicevox: "v", Nijivoice: "n"}, endpoints)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		srv.Router().ServeHTTP(w, req)
	}

	if calls.Load() != 0 {
		t.Errorf("健康检查不应发起任何上游调用，实际发起了%d次", calls.Load())
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, config.Credentials{Gemini: "g"}, config.ProviderEndpoints{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("统计端点应返回200，实际为%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "total_requests") {
		t.Errorf("统计响应应包含total_requests: %s", w.Body.String())
	}
}

func TestStatsPage(t *testing.T) {
	srv := newTestServer(t, config.Credentials{}, config.ProviderEndpoints{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("监控页应返回200，实际为%d", w.Code)
	}
	if !strings.Contains(w.Header().Get(core.HeaderContentType), "text/html") {
		t.Errorf("监控页应为HTML，实际为%s", w.Header().Get(core.HeaderContentType))
	}
}

func TestNotConfiguredProviders_Return500WithoutUpstreamCall(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer upstream.Close()

	endpoints := config.ProviderEndpoints{
		GeminiBaseURL:    upstream.URL,
		VoicevoxBaseURL:  upstream.URL,
		NijivoiceBaseURL: upstream.URL,
	}
	srv := newTestServer(t, config.Credentials{}, endpoints)

	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/proxy/gemini", `{"contents":[]}`},
		{http.MethodGet, "/api/proxy/gemini/models", ""},
		{http.MethodGet, "/api/proxy/voicevox/speakers", ""},
		{http.MethodGet, "/api/proxy/voicevox/audio?text=x&speaker=1", ""},
		{http.MethodGet, "/api/proxy/nijivoice/voice-actors", ""},
		{http.MethodPost, "/api/proxy/nijivoice/generate-voice/actor-1", `{}`},
	}

	for _, tt := range routes {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		srv.Router().ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("%s %s 缺少凭证应返回500，实际为%d", tt.method, tt.path, w.Code)
		}
		if !strings.Contains(w.Body.String(), "not configured") {
			t.Errorf("%s %s 错误应提及not configured: %s", tt.method, tt.path, w.Body.String())
		}
	}

	if calls.Load() != 0 {
		t.Errorf("凭证缺失时不应发起上游调用，实际发起了%d次", calls.Load())
	}
}

func TestConcurrentRequestsAcrossProviders(t *testing.T) {
	const upstreamDelay = 150 * time.Millisecond

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(upstreamDelay)
		w.Header().Set(core.HeaderContentType, core.ContentTypeJSON)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	endpoints := config.ProviderEndpoints{
		GeminiBaseURL:    upstream.URL,
		VoicevoxBaseURL:  upstream.URL,
		NijivoiceBaseURL: upstream.URL,
	}
	srv := newTestServer(t, config.Credentials{Gemini: "g", Voicevox: "v", Nijivoice: "n"}, endpoints)

	requests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/proxy/gemini", `{"contents":[]}`},
		{http.MethodGet, "/api/proxy/voicevox/speakers", ""},
		{http.MethodGet, "/api/proxy/nijivoice/voice-actors", ""},
		{http.MethodPost, "/api/proxy/nijivoice/generate-voice/actor-1", `{}`},
	}

	start := time.Now()
	done := make(chan int, len(requests))
	for _, tt := range requests {
		go func(method, path, body string) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(method, path, strings.NewReader(body))
			srv.Router().ServeHTTP(w, req)
			done <- w.Code
		}(tt.method, tt.path, tt.body)
	}
	for range requests {
		if code := <-done; code != http.StatusOK {
			t.Errorf("并发请求应成功，实际状态码为%d", code)
		}
	}
	elapsed := time.Since(start)

	// serial execution would take len(requests) * upstreamDelay
	if elapsed > 3*upstreamDelay {
		t.Errorf("并发请求不应互相阻塞，总耗时%v", elapsed)
	}
}
