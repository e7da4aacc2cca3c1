// Package qdrant is a minimal REST client for a Qdrant collection, assuming
// cosine distance.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/corpusqa/corpusqa/config"
	"github.com/corpusqa/corpusqa/internal/vectorstore"
	"github.com/corpusqa/corpusqa/models"
)

type Store struct {
	cfg      config.QdrantConfig
	embedder vectorstore.Embedder
	client   *http.Client

	mu     sync.Mutex
	seeded bool
	count  int
}

func NewStore(cfg config.QdrantConfig, embedder vectorstore.Embedder) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{cfg: cfg, embedder: embedder, client: &http.Client{Timeout: timeout}}
}

// Init creates the collection when missing. Qdrant answers 200 for an
// existing collection with the same schema.
func (s *Store) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	body := map[string]any{
		"vectors": map[string]any{"size": dimension, "distance": "Cosine"},
	}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", s.cfg.URL, s.cfg.Collection), body, nil)
}

// Ready reports whether the collection holds any points, so a remote index
// populated by a previous process still counts.
func (s *Store) Ready() bool {
	s.mu.Lock()
	n := s.count
	s.mu.Unlock()
	if n > 0 {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := s.remoteCount(ctx)
	if err != nil {
		return false
	}
	return n > 0
}

// remoteCount asks the collection for its current point count. An error
// usually means the collection does not exist yet.
func (s *Store) remoteCount(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s", s.cfg.URL, s.cfg.Collection)
	if err := s.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Result.PointsCount, nil
}

func (s *Store) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Point ids continue from whatever the collection already holds, so a
	// fresh process ingesting into an existing collection never reuses an
	// id and overwrites earlier points.
	if !s.seeded {
		n, err := s.remoteCount(ctx)
		if err != nil {
			if err := s.Init(ctx, len(vecs[0])); err != nil {
				return err
			}
			n = 0
		}
		s.count = n
		s.seeded = true
	}
	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		points[i] = map[string]any{
			"id":     s.count + i,
			"vector": vecs[i],
			"payload": map[string]any{
				"text":   c.Text,
				"source": c.Meta.Source,
				"format": c.Meta.Format,
				"page":   c.Meta.Page,
				"sheet":  c.Meta.Sheet,
				"slide":  c.Meta.Slide,
			},
		}
	}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.cfg.URL, s.cfg.Collection)
	if err := s.do(ctx, http.MethodPut, url, map[string]any{"points": points}, nil); err != nil {
		return err
	}
	s.count += len(chunks)
	return nil
}

func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	qvecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(qvecs) == 0 {
		return nil, nil
	}
	req := map[string]any{"vector": qvecs[0], "limit": k, "with_payload": true}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.cfg.URL, s.cfg.Collection)
	if err := s.do(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}
	out := make([]models.ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		c := models.Chunk{}
		if v, ok := r.Payload["text"].(string); ok {
			c.Text = v
		}
		if v, ok := r.Payload["source"].(string); ok {
			c.Meta.Source = v
		}
		if v, ok := r.Payload["format"].(string); ok {
			c.Meta.Format = v
		}
		if v, ok := r.Payload["page"].(float64); ok {
			c.Meta.Page = int(v)
		}
		if v, ok := r.Payload["sheet"].(string); ok {
			c.Meta.Sheet = v
		}
		if v, ok := r.Payload["slide"].(float64); ok {
			c.Meta.Slide = int(v)
		}
		score := r.Score
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		out = append(out, models.ScoredChunk{Chunk: c, Score: score})
	}
	return out, nil
}

func (s *Store) do(ctx context.Context, method, url string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
