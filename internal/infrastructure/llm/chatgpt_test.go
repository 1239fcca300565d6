package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"EventRadar/internal/config"
	"EventRadar/internal/domain"
)

func TestSummarizeSendsPromptAndParsesReply(t *testing.T) {
	t.Parallel()

	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  물가 상승세가 둔화됐다.  "}}]}`))
	}))
	defer srv.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: srv.URL, Model: "gpt-4o-mini", APIKey: "secret"}, srv.Client())
	summary, err := client.Summarize(context.Background(), "US consumer prices rose 0.2% in August.", domain.LangKO)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary != "물가 상승세가 둔화됐다." {
		t.Fatalf("unexpected summary %q", summary)
	}
	if got.Model != "gpt-4o-mini" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request %+v", got)
	}
	if !strings.Contains(got.Messages[0].Content, "Korean") {
		t.Fatalf("system prompt should ask for Korean: %q", got.Messages[0].Content)
	}
}

func TestSummarizeErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: srv.URL, Model: "m", APIKey: "k"}, srv.Client())
	if _, err := client.Summarize(context.Background(), "text", domain.LangEN); err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected rate limit error, got %v", err)
	}

	unconfigured := NewChatGPTClient(config.ChatGPTConfig{}, nil)
	if _, err := unconfigured.Summarize(context.Background(), "text", domain.LangEN); err == nil {
		t.Fatal("expected misconfiguration error")
	}
}
