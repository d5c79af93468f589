package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseRetryAfter(t *testing.T) {
	min, max := 5*time.Second, 120*time.Second

	tests := []struct {
		name string
		body string
		want time.Duration
	}{
		{"hint present", `{"error":{"message":"Rate limit reached. Please try again in 7.66s."}}`, 8 * time.Second},
		{"hint below minimum", "try again in 1s", 5 * time.Second},
		{"hint above maximum", "try again in 900s", 120 * time.Second},
		{"no hint", "slow down", 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRetryAfter(tt.body, min, max); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusBadRequest, KindBadRequest},
		{http.StatusInternalServerError, KindServiceUnavailable},
		{http.StatusBadGateway, KindServiceUnavailable},
		{http.StatusTeapot, KindUnknown},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.code, "", time.Second, time.Minute); got.Kind != tt.want {
			t.Errorf("classifyStatus(%d) kind = %v, want %v", tt.code, got.Kind, tt.want)
		}
	}
}

func TestCompleteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  Política  "}}]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIURL: server.URL, APIKey: "test-key", Model: "test-model"})
	got, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hola"})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "Política" {
		t.Errorf("Complete = %q, want trimmed content", got)
	}
}

func TestCompleteBadRequestNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIURL: server.URL, APIKey: "test-key"})
	_, err := client.CompleteWithRetry(context.Background(), nil, CompletionRequest{Prompt: "hola"})
	if KindOf(err) != KindBadRequest {
		t.Fatalf("expected KindBadRequest, got %v (%v)", KindOf(err), err)
	}
	if calls != 1 {
		t.Errorf("bad request was retried %d times, want a single call", calls)
	}
}

func TestCompleteWithRetryExhaustion(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIURL:     server.URL,
		APIKey:     "test-key",
		MaxRetries: 2,
		RetryBase:  time.Millisecond,
	})
	_, err := client.CompleteWithRetry(context.Background(), nil, CompletionRequest{Prompt: "hola"})
	if !IsExhausted(err) {
		t.Fatalf("expected exhaustion, got %v", err)
	}
	if calls != 2 {
		t.Errorf("made %d calls, want 2", calls)
	}
}

func TestCompleteMalformedResponses(t *testing.T) {
	bodies := []string{
		`{"choices":[]}`,
		`{"choices":[{"message":{"content":""}}]}`,
		`{"error":{"message":"boom"},"choices":[{"message":{"content":"x"}}]}`,
	}

	for _, body := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		}))

		client := NewClient(ClientConfig{APIURL: server.URL, APIKey: "test-key"})
		_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hola"})
		if KindOf(err) != KindMalformed {
			t.Errorf("body %q: expected KindMalformed, got %v", body, err)
		}
		server.Close()
	}
}

func TestCompleteWithoutAPIKey(t *testing.T) {
	client := NewClient(ClientConfig{APIURL: "http://localhost:0"})
	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hola"})
	if KindOf(err) != KindBadRequest {
		t.Errorf("expected KindBadRequest without API key, got %v", err)
	}
}
