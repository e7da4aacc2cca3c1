// Package embedding adapts a provider's embedding capability to the vector
// store's Embedder contract.
package embedding

import (
	"context"

	"github.com/corpusqa/corpusqa/provider"
)

type Embedding struct {
	provider provider.Provider
}

func NewEmbedding(provider provider.Provider) *Embedding {
	return &Embedding{provider: provider}
}

func (e *Embedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.provider.CreateEmbedding(ctx, texts)
}
