// Package memory is the embedded vector index: brute-force cosine over
// in-process vectors, fused with a BM25 keyword leg, with a JSON snapshot on
// disk so the index survives restarts.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/corpusqa/corpusqa/internal/vectorstore"
	"github.com/corpusqa/corpusqa/models"
)

const rrfK = 60 // reciprocal-rank-fusion constant

// Store holds chunks, their vectors and a mem-only BM25 index side by side.
// The reported relevance score is always the cosine similarity clamped to
// [0,1]; the keyword leg only influences which candidates surface.
type Store struct {
	embedder vectorstore.Embedder
	path     string

	mu      sync.RWMutex
	chunks  []models.Chunk
	vectors [][]float32
	keyword bleve.Index
}

type snapshot struct {
	Chunks  []models.Chunk `json:"chunks"`
	Vectors [][]float32    `json:"vectors"`
}

// NewStore opens the index, loading the snapshot at path when one exists.
// An empty path disables persistence.
func NewStore(embedder vectorstore.Embedder, path string) (*Store, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating keyword index: %w", err)
	}
	s := &Store{embedder: embedder, path: path, keyword: idx}
	if path != "" {
		if err := s.loadSnapshot(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks) > 0
}

// Upsert embeds the chunks, adds them to both legs of the index and rewrites
// the snapshot.
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
	if len(vecs) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(chunks))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		id := strconv.Itoa(len(s.chunks))
		s.chunks = append(s.chunks, c)
		s.vectors = append(s.vectors, vecs[i])
		if err := s.keyword.Index(id, map[string]string{"text": c.Text}); err != nil {
			return fmt.Errorf("indexing chunk %s: %w", id, err)
		}
	}
	return s.saveSnapshotLocked()
}

// SimilaritySearch ranks chunks for the query. Candidates come from both the
// cosine and the BM25 leg, fused by reciprocal rank; each survivor carries
// its cosine score.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.chunks) == 0 || k <= 0 {
		return nil, nil
	}

	qvecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(qvecs) == 0 {
		return nil, nil
	}
	qvec := qvecs[0]

	scores := make([]float64, len(s.chunks))
	vectorRank := make([]int, len(s.chunks))
	for i := range vectorRank {
		scores[i] = cosine(qvec, s.vectors[i])
		vectorRank[i] = i
	}
	sort.SliceStable(vectorRank, func(a, b int) bool {
		return scores[vectorRank[a]] > scores[vectorRank[b]]
	})

	fused := make(map[int]float64, len(s.chunks))
	limit := min(len(vectorRank), k*3)
	for rank, idx := range vectorRank[:limit] {
		fused[idx] += 1.0 / float64(rrfK+rank+1)
	}
	for rank, idx := range s.keywordCandidates(query, k*3) {
		fused[idx] += 1.0 / float64(rrfK+rank+1)
	}

	ids := make([]int, 0, len(fused))
	for idx := range fused {
		ids = append(ids, idx)
	}
	sort.SliceStable(ids, func(a, b int) bool {
		if fused[ids[a]] != fused[ids[b]] {
			return fused[ids[a]] > fused[ids[b]]
		}
		return ids[a] < ids[b]
	})
	if len(ids) > k {
		ids = ids[:k]
	}

	out := make([]models.ScoredChunk, 0, len(ids))
	for _, idx := range ids {
		out = append(out, models.ScoredChunk{Chunk: s.chunks[idx], Score: clamp01(scores[idx])})
	}
	return out, nil
}

// keywordCandidates returns chunk offsets ranked by BM25. Keyword failures
// degrade to vector-only retrieval.
func (s *Store) keywordCandidates(query string, limit int) []int {
	q := bleve.NewQueryStringQuery(query)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	res, err := s.keyword.Search(req)
	if err != nil {
		return nil
	}
	out := make([]int, 0, len(res.Hits))
	for _, hit := range res.Hits {
		idx, err := strconv.Atoi(hit.ID)
		if err != nil || idx < 0 || idx >= len(s.chunks) {
			continue
		}
		out = append(out, idx)
	}
	return out
}

func (s *Store) loadSnapshot() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading index snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decoding index snapshot: %w", err)
	}
	s.chunks = snap.Chunks
	s.vectors = snap.Vectors
	for i, c := range s.chunks {
		if err := s.keyword.Index(strconv.Itoa(i), map[string]string{"text": c.Text}); err != nil {
			return fmt.Errorf("rebuilding keyword index: %w", err)
		}
	}
	return nil
}

func (s *Store) saveSnapshotLocked() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating index dir: %w", err)
	}
	data, err := json.Marshal(snapshot{Chunks: s.chunks, Vectors: s.vectors})
	if err != nil {
		return fmt.Errorf("encoding index snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing index snapshot: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
