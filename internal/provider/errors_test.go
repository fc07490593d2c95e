package provider

import (
	"net/http"
	"strings"
	"testing"

	"companion-gateway/internal/core"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   FailureKind
	}{
		{http.StatusNotFound, KindNotFound},
		{http.StatusUnauthorized, KindAuthFailure},
		{http.StatusForbidden, KindAuthFailure},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusInternalServerError, KindUnknown},
		{http.StatusBadRequest, KindUnknown},
		{http.StatusBadGateway, KindUnknown},
	}

	for _, tt := range tests {
		if got := ClassifyStatus(tt.status); got != tt.want {
			t.Errorf("状态%d应分类为%s，实际为%s", tt.status, tt.want, got)
		}
	}
}

func TestScrubCredential(t *testing.T) {
	scrubbed := scrubCredential("request to /audio?key=secret-key-123 failed", "secret-key-123")
	if strings.Contains(scrubbed, "secret-key-123") {
		t.Errorf("凭证未被清除: %s", scrubbed)
	}
	if !strings.Contains(scrubbed, "[REDACTED]") {
		t.Errorf("应包含占位符: %s", scrubbed)
	}

	if got := scrubCredential("no secrets here", ""); got != "no secrets here" {
		t.Errorf("空凭证不应修改内容: %s", got)
	}
}

func TestNewNotConfiguredError(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{core.ProviderGemini, "Gemini API key not configured"},
		{core.ProviderVoicevox, "VOICEVOX API key not configured"},
		{core.ProviderNijivoice, "Nijivoice API key not configured"},
	}

	for _, tt := range tests {
		err := newNotConfiguredError(tt.provider)
		if err.Message != tt.want {
			t.Errorf("消息应为%q，实际为%q", tt.want, err.Message)
		}
		if err.Status != http.StatusInternalServerError {
			t.Errorf("状态码应为500，实际为%d", err.Status)
		}
	}
}

func TestNewUpstreamError_ScrubsCredential(t *testing.T) {
	err := newUpstreamError(core.ProviderVoicevox, http.StatusForbidden, "denied for key=my-secret", "my-secret")
	if strings.Contains(err.Details, "my-secret") {
		t.Errorf("details中不应出现凭证: %s", err.Details)
	}
	if err.Kind != KindAuthFailure {
		t.Errorf("403应分类为auth failure，实际为%s", err.Kind)
	}
}

func TestError_ErrorString(t *testing.T) {
	err := &Error{Provider: core.ProviderGemini, Kind: KindRateLimited, Status: 429, Message: "Gemini API error", Details: "quota"}
	msg := err.Error()
	if !strings.Contains(msg, "rate limited") || !strings.Contains(msg, "quota") {
		t.Errorf("错误字符串不完整: %s", msg)
	}
}
