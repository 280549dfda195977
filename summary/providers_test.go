package summary

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nijaru/yt-summary/config"
)

func newProviderServer(t *testing.T, path, response string, body *string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != path {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		*body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenAI_Summarize(t *testing.T) {
	var body string
	server := newProviderServer(t, "/chat/completions", `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": " A short summary. "}}]
	}`, &body)

	s, err := New(config.SummaryConfig{Provider: "openai", APIKey: "k", Endpoint: server.URL, MaxInputTokens: 2})
	if err != nil {
		t.Fatal(err)
	}

	summary, err := s.Summarize(context.Background(), "hello world and more")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if summary != "A short summary." {
		t.Errorf("expected trimmed summary, got %q", summary)
	}
	if !strings.Contains(body, `"hello world"`) || strings.Contains(body, "and more") {
		t.Errorf("expected truncated transcript in request, got %s", body)
	}
	if !strings.Contains(body, `"gpt-4o-mini"`) {
		t.Errorf("expected default model in request, got %s", body)
	}
}

func TestAnthropic_Summarize(t *testing.T) {
	var body string
	server := newProviderServer(t, "/v1/messages", `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-haiku-4-5-20251001",
		"content": [{"type": "text", "text": "A short summary."}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 3, "output_tokens": 4}
	}`, &body)

	s, err := New(config.SummaryConfig{Provider: "anthropic", APIKey: "k", Endpoint: server.URL, MaxInputTokens: 1024})
	if err != nil {
		t.Fatal(err)
	}

	summary, err := s.Summarize(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if summary != "A short summary." {
		t.Errorf("expected summary, got %q", summary)
	}
	if !strings.Contains(body, "hello world") || !strings.Contains(body, `"max_tokens":300`) {
		t.Errorf("unexpected request body %s", body)
	}
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	var body string
	server := newProviderServer(t, "/chat/completions", `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`, &body)

	s, err := New(config.SummaryConfig{Provider: "openai", APIKey: "k", Endpoint: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Summarize(context.Background(), "hello world"); err == nil {
		t.Error("expected error for empty choices")
	}
}
