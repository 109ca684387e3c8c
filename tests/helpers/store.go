// Package helpers provides shared test fixtures.
package helpers

import (
	"context"
	"strings"
	"testing"

	"github.com/xiaot623/worldrag/internal/domain"
	"github.com/xiaot623/worldrag/internal/repository"
)

func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// KeywordIndex is an in-memory index that ranks chunks by how many query
// words they contain.
type KeywordIndex struct {
	Chunks []domain.Chunk
}

func (k *KeywordIndex) Retrieve(ctx context.Context, query string, n int) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	words := strings.Fields(strings.ToLower(query))
	type scored struct {
		chunk domain.Chunk
		hits  int
	}
	var ranked []scored
	for _, c := range k.Chunks {
		content := strings.ToLower(c.Content)
		hits := 0
		for _, w := range words {
			if strings.Contains(content, w) {
				hits++
			}
		}
		if hits > 0 {
			ranked = append(ranked, scored{chunk: c.Clone(), hits: hits})
		}
	}
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].hits > ranked[j-1].hits; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	out := make([]domain.Chunk, 0, n)
	for i := 0; i < len(ranked) && i < n; i++ {
		out = append(out, ranked[i].chunk)
	}
	return out, nil
}

func (k *KeywordIndex) Len() int { return len(k.Chunks) }

// WorldDataChunks is a small corpus in the shape of world_data.csv rows.
func WorldDataChunks() []domain.Chunk {
	return []domain.Chunk{
		{Content: "country: Brazil\nyear: 1995\nPoverty headcount ratio: 14.7", Metadata: map[string]any{"source": "world_data.csv", "row": 0}},
		{Content: "country: Brazil\nyear: 2019\nUnemployment: 11.9", Metadata: map[string]any{"source": "world_data.csv", "row": 1}},
		{Content: "country: World\nyear: 2019\nIndividuals using the Internet: 53.6", Metadata: map[string]any{"source": "world_data.csv", "row": 2}},
	}
}
