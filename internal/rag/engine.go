// Package rag turns a question plus retrieved document chunks into a
// confidence-scored, source-attributed answer.
package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/corpusqa/corpusqa/config"
	"github.com/corpusqa/corpusqa/internal/telemetry"
	"github.com/corpusqa/corpusqa/internal/vectorstore"
	"github.com/corpusqa/corpusqa/models"
	"github.com/corpusqa/corpusqa/provider"
)

// InsufficientInformation is the fixed text of an ungrounded answer.
const InsufficientInformation = "I don't have enough information to answer that question confidently. Please make sure relevant documents are loaded."

const excerptLen = 100

// Engine is stateless across calls; given deterministic collaborators,
// Answer is idempotent.
type Engine struct {
	cfg   config.RetrievalConfig
	store vectorstore.Store
	llm   provider.Provider
}

func NewEngine(cfg config.RetrievalConfig, store vectorstore.Store, llm provider.Provider) *Engine {
	return &Engine{cfg: cfg, store: store, llm: llm}
}

// Search returns at most k scored chunks for the query. An empty or
// uninitialized store yields an empty result.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if !e.store.Ready() {
		return nil, nil
	}
	defer telemetry.ObserveRetrieval(time.Now())
	return e.store.SimilaritySearch(ctx, query, k)
}

// Answer runs one retrieval-augmented generation pass. When no chunk passes
// the relevance threshold the result is ungrounded with confidence 0 and the
// model is never invoked. Otherwise confidence is the mean score of the
// chunks that actually reached the prompt, and sources are deduplicated by
// (source, locator).
func (e *Engine) Answer(ctx context.Context, question, conversationContext string) (models.Answer, error) {
	results, err := e.Search(ctx, question, e.cfg.TopK)
	if err != nil {
		return models.Answer{}, fmt.Errorf("retrieval failed: %w", err)
	}

	// The store's ordering is advisory; re-derive the ranking here, keeping
	// the received order for equal scores.
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	relevant := results[:0:0]
	for _, r := range results {
		if r.Score >= e.cfg.MinRelevance {
			relevant = append(relevant, r)
		}
	}

	if len(relevant) == 0 {
		return models.Answer{
			Text:       InsufficientInformation,
			Sources:    []models.SourceRef{},
			Confidence: 0.0,
			Grounded:   false,
		}, nil
	}

	// Bound generation cost; a precision/latency trade-off, not correctness.
	if m := e.cfg.MaxContextChunks; m > 0 && len(relevant) > m {
		relevant = relevant[:m]
	}

	text, err := e.llm.Generate(ctx, buildPrompt(question, conversationContext, relevant))
	if err != nil {
		return models.Answer{}, fmt.Errorf("generation failed: %w", err)
	}

	var sum float64
	for _, r := range relevant {
		sum += r.Score
	}

	return models.Answer{
		Text:       strings.TrimSpace(text),
		Sources:    collectSources(relevant),
		Confidence: sum / float64(len(relevant)),
		Grounded:   true,
	}, nil
}

// collectSources derives one citation per distinct (source, locator) pair,
// in the order chunks were used.
func collectSources(used []models.ScoredChunk) []models.SourceRef {
	seen := make(map[string]struct{}, len(used))
	out := make([]models.SourceRef, 0, len(used))
	for _, r := range used {
		key := r.Chunk.Meta.CitationKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, models.SourceRef{
			Source:  r.Chunk.Meta.Source,
			Locator: r.Chunk.Meta.Locator(),
			Score:   r.Score,
			Excerpt: excerpt(r.Chunk.Text),
		})
	}
	return out
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLen {
		return text
	}
	return string(runes[:excerptLen]) + "..."
}
