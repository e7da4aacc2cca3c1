// Package vectorstore defines the retrieval index contract consumed by the
// answering pipeline.
package vectorstore

import (
	"context"

	"github.com/corpusqa/corpusqa/models"
)

// Store is the read side used by retrieval. SimilaritySearch returns at most
// k scored chunks; an empty or uninitialized index yields an empty result,
// not an error. Scores are normalized to [0,1].
type Store interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]models.ScoredChunk, error)
	Ready() bool
}

// Index is the write side used by ingestion.
type Index interface {
	Store
	Upsert(ctx context.Context, chunks []models.Chunk) error
}

// Embedder turns texts into vectors. Satisfied by internal/embedding.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
