package ollama_provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corpusqa/corpusqa/config"
)

func newTestClient(baseURL string) *client {
	return NewClient(config.OllamaConfig{
		BaseURL:        baseURL,
		Model:          "llama3",
		EmbeddingModel: "nomic-embed-text",
	})
}

func TestGenerate(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":" generated text \n"}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Generate(context.Background(), "the prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "generated text" {
		t.Fatalf("Generate = %q, want trimmed response", got)
	}
	if gotBody["model"] != "llama3" || gotBody["prompt"] != "the prompt" {
		t.Fatalf("unexpected request body %v", gotBody)
	}
	if stream, ok := gotBody["stream"].(bool); !ok || stream {
		t.Fatalf("expected stream:false, got %v", gotBody["stream"])
	}
}

func TestGenerateNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Generate(context.Background(), "p"); err == nil {
		t.Fatal("expected an error for a non-200 status")
	}
}

func TestCreateEmbeddingCallsPerText(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		calls++
		_, _ = w.Write([]byte(`{"embedding":[0.5,0.5]}`))
	}))
	defer srv.Close()

	vecs, err := newTestClient(srv.URL).CreateEmbedding(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("CreateEmbedding: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected one call per text, got %d", calls)
	}
	if len(vecs) != 3 || len(vecs[0]) != 2 {
		t.Fatalf("unexpected vectors %v", vecs)
	}
}

func TestCreateEmbeddingEmptyInput(t *testing.T) {
	vecs, err := newTestClient("http://unreachable.invalid").CreateEmbedding(context.Background(), nil)
	if err != nil {
		t.Fatalf("CreateEmbedding(nil): %v", err)
	}
	if vecs != nil {
		t.Fatalf("expected no vectors, got %v", vecs)
	}
}
