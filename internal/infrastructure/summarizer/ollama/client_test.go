package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSummarize(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "  solid cleanser, clears acne  "})
	}))
	defer server.Close()

	client := New(server.URL, "llama3.1:8b", Options{})
	summary, err := client.Summarize(context.Background(), "some very long feedback text", 30)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary != "solid cleanser, clears acne" {
		t.Fatalf("expected trimmed summary, got %q", summary)
	}
	if gotPath != "/api/generate" {
		t.Fatalf("expected generate endpoint, got %s", gotPath)
	}
	if gotBody["model"] != "llama3.1:8b" {
		t.Fatalf("expected model in request, got %v", gotBody["model"])
	}
	if gotBody["stream"] != false {
		t.Fatalf("expected non-streaming request, got %v", gotBody["stream"])
	}
}

func TestSummarizeStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, "llama3.1:8b", Options{})
	_, err := client.Summarize(context.Background(), "text", 30)
	if err == nil {
		t.Fatal("expected error")
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %T", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", statusErr.StatusCode)
	}
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	client := New(server.URL, "llama3.1:8b", Options{EmbedModel: "nomic-embed-text"})
	vector, err := client.Embed(context.Background(), "cerave cleanser")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vector) != 3 {
		t.Fatalf("expected 3-dim vector, got %v", vector)
	}
}

func TestEmbedWithoutModelConfigured(t *testing.T) {
	client := New("http://localhost:11434", "llama3.1:8b", Options{})
	if _, err := client.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected error without embed model")
	}
}

func TestClassifySummarizerError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		recorded  bool
	}{
		{"canceled", context.Canceled, false, false},
		{"retryable status", &HTTPStatusError{StatusCode: http.StatusServiceUnavailable}, true, true},
		{"client status", &HTTPStatusError{StatusCode: http.StatusBadRequest}, false, false},
		{"unknown", errors.New("boom"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := classifySummarizerError(tt.err)
			if verdict.Retryable != tt.retryable || verdict.RecordFailure != tt.recorded {
				t.Fatalf("classify(%v) = %+v", tt.err, verdict)
			}
		})
	}
}
