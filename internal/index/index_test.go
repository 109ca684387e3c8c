package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/worldrag/internal/adapter/embedding"
	"github.com/xiaot623/worldrag/internal/domain"
)

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{Content: "Brazil poverty rate 1995: 14.7%", Metadata: map[string]any{"row": 0}},
		{Content: "Individuals using the Internet in Brazil 2010", Metadata: map[string]any{"row": 1}},
		{Content: "Unemployment total for the World in 2020", Metadata: map[string]any{"row": 2}},
	}
}

func TestVectorIndexRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	idx, err := NewVectorIndex(ctx, embedding.NewHashEmbedder(512), testChunks())
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())

	got, err := idx.Retrieve(ctx, "poverty rate brazil 1995", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Brazil poverty rate 1995: 14.7%", got[0].Content)
	assert.Equal(t, 0, got[0].Metadata["row"])
	assert.GreaterOrEqual(t, got[0].Metadata["score"].(float64), got[1].Metadata["score"].(float64))

	// The stored chunk is not touched by scoring.
	_, hasScore := testChunks()[0].Metadata["score"]
	assert.False(t, hasScore)
}

func TestVectorIndexKLargerThanCorpus(t *testing.T) {
	ctx := context.Background()
	idx, err := NewVectorIndex(ctx, embedding.NewHashEmbedder(64), testChunks())
	require.NoError(t, err)

	got, err := idx.Retrieve(ctx, "anything", 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

type failingEmbedder struct{ err error }

func (f failingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, f.err
}

func TestVectorIndexEmbedderFailure(t *testing.T) {
	_, err := NewVectorIndex(context.Background(), failingEmbedder{err: errors.New("down")}, testChunks())
	require.Error(t, err)

	_, err = NewVectorIndex(context.Background(), nil, testChunks())
	require.Error(t, err)
}

func TestBleveIndexMatchesKeywords(t *testing.T) {
	idx, err := NewBleveIndex(testChunks())
	require.NoError(t, err)
	defer idx.Close()

	got, err := idx.Retrieve(context.Background(), "poverty", 4)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Brazil poverty rate 1995: 14.7%", got[0].Content)
	assert.Contains(t, got[0].Metadata, "score")

	got, err = idx.Retrieve(context.Background(), "brazil", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBuildSelectsBackend(t *testing.T) {
	docs := []domain.Document{{Content: "Brazil poverty rate 1995: 14.7%", Metadata: map[string]any{"source": "world_data.csv"}}}
	ctx := context.Background()

	v, err := Build(ctx, Options{Backend: BackendVector, ChunkSize: 2000, ChunkOverlap: 200}, embedding.NewHashEmbedder(32), docs)
	require.NoError(t, err)
	assert.IsType(t, &VectorIndex{}, v)
	assert.Equal(t, 1, v.Len())

	b, err := Build(ctx, Options{Backend: BackendBleve, ChunkSize: 2000, ChunkOverlap: 200}, nil, docs)
	require.NoError(t, err)
	assert.IsType(t, &BleveIndex{}, b)

	_, err = Build(ctx, Options{Backend: "faiss", ChunkSize: 2000}, nil, docs)
	require.Error(t, err)
}
