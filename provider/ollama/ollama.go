package ollama_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/corpusqa/corpusqa/config"
)

// client talks to a local Ollama daemon over its HTTP API.
type client struct {
	baseURL        string
	model          string
	embeddingModel string
	httpClient     *http.Client
}

// NewClient creates a new Ollama client.
func NewClient(cfg config.OllamaConfig) *client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

// Generate runs a single non-streaming completion.
func (c *client) Generate(ctx context.Context, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}
	var parsed struct {
		Response string `json:"response"`
	}
	if err := c.post(ctx, "/api/generate", requestBody, &parsed); err != nil {
		return "", err
	}
	return strings.TrimSpace(parsed.Response), nil
}

// CreateEmbedding embeds each text with the configured embedding model.
// Ollama's embeddings endpoint takes one prompt per call.
func (c *client) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs := make([][]float32, 0, len(texts))
	for _, text := range texts {
		requestBody := map[string]interface{}{
			"model":  c.embeddingModel,
			"prompt": text,
		}
		var parsed struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := c.post(ctx, "/api/embeddings", requestBody, &parsed); err != nil {
			return nil, err
		}
		vecs = append(vecs, parsed.Embedding)
	}
	return vecs, nil
}

func (c *client) post(ctx context.Context, path string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
