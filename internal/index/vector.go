package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/xiaot623/worldrag/internal/adapter/embedding"
	"github.com/xiaot623/worldrag/internal/domain"
)

// VectorIndex ranks chunks by cosine similarity of their embeddings.
type VectorIndex struct {
	embedder embedding.Embedder
	chunks   []domain.Chunk
	vectors  [][]float32
	norms    []float64
}

// NewVectorIndex embeds every chunk.
func NewVectorIndex(ctx context.Context, embedder embedding.Embedder, chunks []domain.Chunk) (*VectorIndex, error) {
	if embedder == nil {
		return nil, fmt.Errorf("vector index requires an embedder")
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		norms[i] = norm(v)
	}
	return &VectorIndex{embedder: embedder, chunks: chunks, vectors: vectors, norms: norms}, nil
}

// Len returns the number of indexed chunks.
func (v *VectorIndex) Len() int { return len(v.chunks) }

// Retrieve returns the k chunks most similar to query, best first. Equal
// scores keep index order.
func (v *VectorIndex) Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error) {
	if k <= 0 || len(v.chunks) == 0 {
		return []domain.Chunk{}, nil
	}
	qv, err := v.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(qv) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 query", len(qv))
	}
	q := qv[0]
	qn := norm(q)

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(v.chunks))
	for i, vec := range v.vectors {
		ranked[i] = scored{idx: i, score: cosine(q, qn, vec, v.norms[i])}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	n := min(k, len(ranked))
	out := make([]domain.Chunk, 0, n)
	for _, r := range ranked[:n] {
		out = append(out, withScore(v.chunks[r.idx], r.score))
	}
	return out, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}
