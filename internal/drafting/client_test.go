package drafting

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		BaseURL:           url + "/",
		APIKey:            "test-key",
		Model:             "test-model",
		Timeout:           time.Second,
		MaxRetries:        retries,
		RequestsPerSecond: 1000,
		InitialBackoff:    time.Millisecond,
	}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
}

func TestNewClient_RequiresEndpointAndKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{APIKey: "k"}, nil, nil); err == nil {
		t.Fatalf("expected error without base URL")
	}
	if _, err := NewClient(ClientConfig{BaseURL: "http://example.test"}, nil, nil); err == nil {
		t.Fatalf("expected error without API key")
	}
}

func TestClient_Complete(t *testing.T) {
	t.Parallel()

	t.Run("sends the model, messages and bearer key", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" || r.Method != http.MethodPost {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Errorf("expected bearer key, got %q", got)
			}
			var body completionRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if body.Model != "test-model" || len(body.Messages) != 2 || body.Messages[1].Content != "hi" {
				t.Errorf("unexpected body %+v", body)
			}
			writeCompletion(w, "hello there")
		}))
		defer server.Close()

		got, err := testClient(t, server.URL, 0).Complete(context.Background(), []Message{
			{Role: "system", Content: "be nice"},
			{Role: "user", Content: "hi"},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "hello there" {
			t.Fatalf("expected completion text, got %q", got)
		}
	})

	t.Run("retries throttled and failing responses", func(t *testing.T) {
		t.Parallel()
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch atomic.AddInt32(&calls, 1) {
			case 1:
				http.Error(w, "slow down", http.StatusTooManyRequests)
			case 2:
				http.Error(w, "oops", http.StatusBadGateway)
			default:
				writeCompletion(w, "third time lucky")
			}
		}))
		defer server.Close()

		got, err := testClient(t, server.URL, 3).Complete(context.Background(), []Message{{Role: "user", Content: "x"}})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "third time lucky" || atomic.LoadInt32(&calls) != 3 {
			t.Fatalf("expected success on third call, got %q after %d calls", got, atomic.LoadInt32(&calls))
		}
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		t.Parallel()
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			http.Error(w, "bad key", http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := testClient(t, server.URL, 3).Complete(context.Background(), []Message{{Role: "user", Content: "x"}})
		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 status error, got %v", err)
		}
		if got := atomic.LoadInt32(&calls); got != 1 {
			t.Fatalf("expected a single attempt, got %d", got)
		}
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		t.Parallel()
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			http.Error(w, "down", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := testClient(t, server.URL, 2).Complete(context.Background(), []Message{{Role: "user", Content: "x"}})
		if err == nil {
			t.Fatalf("expected error after exhausting retries")
		}
		if got := atomic.LoadInt32(&calls); got != 3 {
			t.Fatalf("expected initial attempt plus two retries, got %d", got)
		}
	})

	t.Run("rejects empty completions", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeCompletion(w, "   ")
		}))
		defer server.Close()

		if _, err := testClient(t, server.URL, 2).Complete(context.Background(), nil); !errors.Is(err, ErrEmptyCompletion) {
			t.Fatalf("expected ErrEmptyCompletion, got %v", err)
		}
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := testClient(t, server.URL, 5).Complete(ctx, nil); err == nil {
			t.Fatalf("expected error for cancelled context")
		}
	})
}
