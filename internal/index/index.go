// Package index builds the searchable chunk index once at startup and serves
// similarity lookups from it.
package index

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/xiaot623/worldrag/internal/adapter/embedding"
	"github.com/xiaot623/worldrag/internal/domain"
	"github.com/xiaot623/worldrag/internal/ingest"
)

// Backends accepted by Build.
const (
	BackendVector = "vector"
	BackendBleve  = "bleve"
)

// Index is a read-only retriever over a fixed set of chunks. It is safe for
// concurrent use.
type Index interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error)
	Len() int
}

// Ensure implementations satisfy Index.
var (
	_ Index = (*VectorIndex)(nil)
	_ Index = (*BleveIndex)(nil)
)

// Options controls how documents are chunked and indexed.
type Options struct {
	Backend      string
	ChunkSize    int
	ChunkOverlap int
}

// Build chunks the documents and indexes them with the selected backend.
// The embedder is only used by the vector backend.
func Build(ctx context.Context, opts Options, embedder embedding.Embedder, docs []domain.Document) (Index, error) {
	chunks := ingest.NewSplitter(opts.ChunkSize, opts.ChunkOverlap).SplitDocuments(docs)
	log.Info().
		Int("documents", len(docs)).
		Int("chunks", len(chunks)).
		Str("backend", opts.Backend).
		Msg("building index")

	switch opts.Backend {
	case BackendVector, "":
		return NewVectorIndex(ctx, embedder, chunks)
	case BackendBleve:
		return NewBleveIndex(chunks)
	default:
		return nil, fmt.Errorf("unknown index backend %q", opts.Backend)
	}
}

// withScore returns a copy of c with its relevance score in the metadata.
func withScore(c domain.Chunk, score float64) domain.Chunk {
	out := c.Clone()
	out.Metadata["score"] = score
	return out
}
