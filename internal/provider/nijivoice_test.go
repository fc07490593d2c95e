package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"companion-gateway/internal/config"
	"companion-gateway/internal/core"
)

const testNijivoiceKey = "nv-test-credential-qrs456"

func TestNijivoiceVoiceActors_NotConfigured(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer upstream.Close()

	client := newTestClient(t, upstream, config.Credentials{})

	_, perr := client.NijivoiceVoiceActors(context.Background())
	if perr == nil || !strings.Contains(perr.Message, "not configured") {
		t.Fatalf("缺少凭证时应返回not configured错误: %+v", perr)
	}
	if calls.Load() != 0 {
		t.Error("凭证缺失时不应发起上游调用")
	}
}

func TestNijivoiceVoiceActors_HeaderAuth(t *testing.T) {
	var gotHeader, gotQueryKey string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(core.HeaderNijivoiceKey)
		gotQueryKey = r.URL.Query().Get("key")
		w.Header().Set(core.HeaderContentType, core.ContentTypeJSON)
		_, _ = w.Write([]byte(`{"voiceActors":[{"id":"abc","name":"水瀬"}]}`))
	}))
	defer upstream.Close()

	client := newTestClient(t, upstream, config.Credentials{Nijivoice: testNijivoiceKey})

	result, perr := client.NijivoiceVoiceActors(context.Background())
	if perr != nil {
		t.Fatalf("请求失败: %v", perr)
	}
	if gotHeader != testNijivoiceKey {
		t.Errorf("凭证应通过x-api-key头注入，实际为%q", gotHeader)
	}
	if gotQueryKey != "" {
		t.Error("该提供方不应使用查询参数认证")
	}
	if !strings.Contains(string(result.Body), "voiceActors") {
		t.Errorf("响应应原样透传: %s", result.Body)
	}
}

func TestNijivoiceGenerateVoice_Success(t *testing.T) {
	var gotPath, gotHeader, gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeader = r.Header.Get(core.HeaderNijivoiceKey)
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set(core.HeaderContentType, core.ContentTypeJSON)
		_, _ = w.Write([]byte(`{"generatedVoice":{"audioFileUrl":"https://example.com/audio.mp3","duration":1200}}`))
	}))
	defer upstream.Close()

	client := newTestClient(t, upstream, config.Credentials{Nijivoice: testNijivoiceKey})

	body := []byte(`{"script":"こんにちは","speed":"1.0","format":"mp3"}`)
	result, perr := client.NijivoiceGenerateVoice(context.Background(), "actor-123", body)
	if perr != nil {
		t.Fatalf("请求失败: %v", perr)
	}

	if gotPath != "/voice-actors/actor-123/generate-voice" {
		t.Errorf("上游路径不正确: %s", gotPath)
	}
	if gotHeader != testNijivoiceKey {
		t.Errorf("凭证应通过x-api-key头注入，实际为%q", gotHeader)
	}
	if gotBody != string(body) {
		t.Errorf("请求体应原样转发: %s", gotBody)
	}
	// descriptor passthrough: audio bytes are fetched by the caller, not here
	if !strings.Contains(string(result.Body), "audioFileUrl") {
		t.Errorf("应透传生成描述符: %s", result.Body)
	}
}

func TestNijivoiceGenerateVoice_MissingActorID(t *testing.T) {
	var calls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer upstream.Close()

	client := newTestClient(t, upstream, config.Credentials{Nijivoice: testNijivoiceKey})

	_, perr := client.NijivoiceGenerateVoice(context.Background(), "", []byte(`{}`))
	if perr == nil || perr.Status != http.StatusBadRequest {
		t.Fatalf("缺少voiceActorId应返回400: %+v", perr)
	}
	if calls.Load() != 0 {
		t.Error("缺少voiceActorId时不应发起上游调用")
	}
}

func TestNijivoiceGenerateVoice_PlainTextErrorInDetails(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte("Insufficient credit balance"))
	}))
	defer upstream.Close()

	client := newTestClient(t, upstream, config.Credentials{Nijivoice: testNijivoiceKey})

	_, perr := client.NijivoiceGenerateVoice(context.Background(), "actor-123", []byte(`{}`))
	if perr == nil {
		t.Fatal("应返回错误")
	}
	if perr.Details != "Insufficient credit balance" {
		t.Errorf("纯文本错误应进入details: %q", perr.Details)
	}
	if perr.Status != http.StatusPaymentRequired {
		t.Errorf("应透传上游状态码，实际为%d", perr.Status)
	}
}

func TestNijivoiceGenerateVoice_CredentialNeverInError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("invalid api key: " + r.Header.Get(core.HeaderNijivoiceKey)))
	}))
	defer upstream.Close()

	client := newTestClient(t, upstream, config.Credentials{Nijivoice: testNijivoiceKey})

	_, perr := client.NijivoiceGenerateVoice(context.Background(), "actor-123", []byte(`{}`))
	if perr == nil {
		t.Fatal("应返回错误")
	}
	if strings.Contains(perr.Details, testNijivoiceKey) {
		t.Errorf("凭证泄漏到details中: %s", perr.Details)
	}
	if perr.Kind != KindAuthFailure {
		t.Errorf("401应分类为auth failure，实际为%s", perr.Kind)
	}
}
