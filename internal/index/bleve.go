package index

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"

	"github.com/xiaot623/worldrag/internal/domain"
)

// BleveIndex ranks chunks with an in-memory bleve full-text index.
type BleveIndex struct {
	index  bleve.Index
	chunks []domain.Chunk
}

type bleveDoc struct {
	Content string `json:"content"`
}

// NewBleveIndex indexes the chunk contents. Documents are keyed by chunk
// position.
func NewBleveIndex(chunks []domain.Chunk) (*BleveIndex, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	batch := idx.NewBatch()
	for i, c := range chunks {
		if err := batch.Index(strconv.Itoa(i), bleveDoc{Content: c.Content}); err != nil {
			return nil, fmt.Errorf("failed to index chunk %d: %w", i, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("failed to commit bleve batch: %w", err)
	}
	return &BleveIndex{index: idx, chunks: chunks}, nil
}

// Len returns the number of indexed chunks.
func (b *BleveIndex) Len() int { return len(b.chunks) }

// Retrieve returns up to k chunks matching query, best first.
func (b *BleveIndex) Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error) {
	if k <= 0 || len(b.chunks) == 0 {
		return []domain.Chunk{}, nil
	}
	q := bleve.NewMatchQuery(query)
	q.SetField("content")
	req := bleve.NewSearchRequestOptions(q, k, 0, false)

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	out := make([]domain.Chunk, 0, len(res.Hits))
	for _, hit := range res.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(b.chunks) {
			return nil, fmt.Errorf("bleve returned unknown document %q", hit.ID)
		}
		out = append(out, withScore(b.chunks[i], hit.Score))
	}
	return out, nil
}

// Close releases the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
