package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("expected Authorization header")
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if format, ok := req["response_format"].(map[string]any); !ok || format["type"] != "json_object" {
			t.Error("expected JSON object response format")
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": content},
				},
			},
		})
	}))
}

func TestNewOpenAICompletion_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAICompletion(CompletionOptions{})
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNewOpenAICompletion_DefaultModel(t *testing.T) {
	svc, err := NewOpenAICompletion(CompletionOptions{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Model() == "" {
		t.Error("expected a default model")
	}
}

func TestOpenAICompletion_Complete_Success(t *testing.T) {
	server := chatServer(t, `{"fields": []}`)
	defer server.Close()

	svc, err := NewOpenAICompletion(CompletionOptions{APIKey: "sk-test", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := svc.Complete(context.Background(), "extract fields", "some document text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"fields": []}` {
		t.Errorf("unexpected response body: %s", raw)
	}
}

func TestOpenAICompletion_Complete_RequestTimeout(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	}))
	defer server.Close()
	defer close(release)

	svc, err := NewOpenAICompletion(CompletionOptions{
		APIKey:  "sk-test",
		BaseURL: server.URL,
		Timeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Complete(context.Background(), "extract fields", "text")
	if err == nil {
		t.Fatal("expected timeout error from a stalled server")
	}

	select {
	case <-started:
	default:
		t.Error("expected the request to reach the server before timing out")
	}
}

func TestOpenAICompletion_Complete_RejectsNonJSON(t *testing.T) {
	server := chatServer(t, "sorry, I cannot help with that")
	defer server.Close()

	svc, err := NewOpenAICompletion(CompletionOptions{APIKey: "sk-test", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Complete(context.Background(), "extract fields", "text")
	if err == nil {
		t.Error("expected error for non-JSON completion content")
	}
}

func TestOpenAICompletion_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid API key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	svc, err := NewOpenAICompletion(CompletionOptions{APIKey: "sk-bad", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Complete(context.Background(), "extract fields", "text")
	if err == nil {
		t.Error("expected error for API error response")
	}
}

func TestOpenAICompletion_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("expected /models, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object": "list", "data": [{"id": "gpt-4o-mini", "object": "model"}]}`))
	}))
	defer server.Close()

	svc, err := NewOpenAICompletion(CompletionOptions{APIKey: "sk-test", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Ping(context.Background()); err != nil {
		t.Errorf("expected ping to succeed, got %v", err)
	}
}

func TestOpenAICompletion_Close(t *testing.T) {
	svc, err := NewOpenAICompletion(CompletionOptions{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("expected no error from Close, got %v", err)
	}
}
