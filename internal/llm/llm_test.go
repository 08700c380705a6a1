package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFactoryUnknownProvider(t *testing.T) {
	f := &Factory{}
	if _, err := f.CreateClient("gigachat-native", "m"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestOpenAIClientGenerate_SendsHeadersAndParsesReply(t *testing.T) {
	var gotTitle string
	var gotMessages int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("X-Title")
		var req struct {
			Messages []map[string]any `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotMessages = len(req.Messages)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Привет!"}}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
	}))
	defer srv.Close()

	f := &Factory{OpenAIAPIKey: "k", OpenAIBaseURL: srv.URL, OpenRouterTitle: "navigator"}
	c, err := f.CreateClient(ProviderOpenAI, "test-model")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	resp, err := c.Generate(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Content != "Привет!" || resp.TotalTokens != 5 || resp.Model != "test-model" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gotTitle != "navigator" {
		t.Fatalf("X-Title header not forwarded: %q", gotTitle)
	}
	if gotMessages != 2 {
		t.Fatalf("want 2 messages, got %d", gotMessages)
	}
}

func TestOpenAIClientGenerate_PropagatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewOpenAI("k", srv.URL, "m", nil)
	if _, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "x"}}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestYandexTokenRenewsWhenStale(t *testing.T) {
	issued := 0
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &YandexClient{
		issue: func() (string, error) {
			issued++
			return fmt.Sprintf("iam-%d", issued), nil
		},
		now: func() time.Time { return now },
	}

	first, err := c.token()
	if err != nil || first != "iam-1" {
		t.Fatalf("first token = %q, %v", first, err)
	}
	now = now.Add(time.Hour)
	if tok, _ := c.token(); tok != "iam-1" {
		t.Fatalf("fresh token should be cached, got %q", tok)
	}
	now = now.Add(iamTokenTTL)
	if tok, _ := c.token(); tok != "iam-2" {
		t.Fatalf("stale token should be renewed, got %q", tok)
	}
}

func TestYandexTokenIssueFailure(t *testing.T) {
	c := &YandexClient{
		issue: func() (string, error) { return "", errors.New("unauthorized") },
		now:   time.Now,
	}
	if _, err := c.token(); err == nil {
		t.Fatalf("expected issue error")
	}
}
