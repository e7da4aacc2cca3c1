// Package provider abstracts the language model used for answer generation
// and embedding computation.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/corpusqa/corpusqa/config"
	ollama_provider "github.com/corpusqa/corpusqa/provider/ollama"
	openai_provider "github.com/corpusqa/corpusqa/provider/openai"
)

// Client names the supported LLM backends.
type Client string

const (
	OpenAI Client = "openai"
	Ollama Client = "ollama"
)

// Provider is the interface all LLM implementations satisfy. Generate is
// synchronous and single-turn; no state is retained between calls.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider creates an LLM client from configuration.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch Client(cfg.Provider) {
	case OpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, errors.New("llm.openai.api_key not set")
		}
		return openai_provider.NewClient(cfg.OpenAI), nil
	case Ollama:
		return ollama_provider.NewClient(cfg.Ollama), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
	}
}
