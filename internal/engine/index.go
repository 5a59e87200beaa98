package engine

import (
	"context"
	"math"
	"sort"
	"sync"

	"studyvault-backend/internal/logger"
)

// VectorIndex is an in-memory embedding index over one document collection.
// Rebuild replaces the whole collection atomically: the candidate vectors are
// computed off-lock, and the swap happens only after every chunk embedded
// successfully, so a failed rebuild leaves the previous collection queryable.
type VectorIndex struct {
	embedder Embedder

	mu           sync.RWMutex
	collectionID string
	chunks       []Chunk
	vectors      [][]float32
	ready        bool
}

func NewVectorIndex(embedder Embedder) *VectorIndex {
	return &VectorIndex{embedder: embedder}
}

// Rebuild embeds chunks and swaps them in as the new collection.
func (ix *VectorIndex) Rebuild(ctx context.Context, collectionID string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return ErrEmptyInput
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		logger.Error("Index rebuild failed, previous collection kept",
			"collection_id", collectionID, "chunks", len(chunks), "error", err)
		return &GenerationError{Op: "embed", Cause: err}
	}
	if len(vectors) != len(chunks) {
		return &GenerationError{Op: "embed", Cause: &ParseError{Reason: "embedding count mismatch"}}
	}

	ix.mu.Lock()
	ix.collectionID = collectionID
	ix.chunks = chunks
	ix.vectors = vectors
	ix.ready = true
	ix.mu.Unlock()

	logger.Info("Memory index rebuilt", "collection_id", collectionID, "chunks", len(chunks))
	return nil
}

// Query embeds the query text and returns the texts of the topK most similar
// chunks by cosine similarity, best first.
func (ix *VectorIndex) Query(ctx context.Context, query string, topK int) ([]string, error) {
	ix.mu.RLock()
	if !ix.ready {
		ix.mu.RUnlock()
		return nil, ErrIndexNotReady
	}
	ix.mu.RUnlock()

	qvecs, err := ix.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, &GenerationError{Op: "embed query", Cause: err}
	}
	if len(qvecs) != 1 {
		return nil, &GenerationError{Op: "embed query", Cause: &ParseError{Reason: "embedding count mismatch"}}
	}
	qvec := qvecs[0]

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.ready {
		return nil, ErrIndexNotReady
	}

	scores := make([]float64, len(ix.vectors))
	for i, v := range ix.vectors {
		scores[i] = cosineSimilarity(qvec, v)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	if topK > len(order) {
		topK = len(order)
	}
	results := make([]string, 0, topK)
	for _, idx := range order[:topK] {
		results = append(results, ix.chunks[idx].Text)
	}
	return results, nil
}

// Ready reports whether at least one rebuild has succeeded.
func (ix *VectorIndex) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ready
}

// CollectionID returns the id of the currently indexed collection.
func (ix *VectorIndex) CollectionID() string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.collectionID
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
