// Package embedding turns text into vectors for similarity search.
package embedding

import "context"

// Embedder embeds a batch of texts. The i-th vector belongs to the i-th text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Ensure implementations satisfy Embedder.
var (
	_ Embedder = (*HFClient)(nil)
	_ Embedder = (*HashEmbedder)(nil)
)
