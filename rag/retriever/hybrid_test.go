package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/adaptiverag/rag"
	"github.com/smallnest/adaptiverag/rag/store"
)

type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (s *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = s.EmbedDocument(ctx, t)
	}
	return out, nil
}

func TestHybridRetriever_ParentDedup(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"query":   {1, 0, 0},
		"child a": {0.95, 0, 0},
		"child b": {0.9, 0.1, 0},
		"child c": {0.2, 0.8, 0},
	}}
	vectors := store.NewVectorStore(emb)
	parents := store.NewDocStore()
	parents.Put("p1", "parent one full text")
	parents.Put("p2", "parent two full text")

	ctx := context.Background()
	require.NoError(t, vectors.Add(ctx, []store.Entry{
		{ID: "c1", ParentID: "p1", Content: "child a"},
		{ID: "c2", ParentID: "p1", Content: "child b"},
		{ID: "c3", ParentID: "p2", Content: "child c"},
	}))

	r := New(vectors, parents, 4)
	passages, err := r.Search(ctx, "query")
	require.NoError(t, err)

	// Two children of p1 collapse into one parent passage, best match first.
	require.Len(t, passages, 2)
	assert.Equal(t, "parent one full text", passages[0].Content)
	assert.Equal(t, "parent two full text", passages[1].Content)
	for _, p := range passages {
		assert.Equal(t, rag.SourceCorpus, p.Source)
	}
}

func TestHybridRetriever_EmptyCorpus(t *testing.T) {
	r := New(store.NewVectorStore(&stubEmbedder{}), store.NewDocStore(), 4)
	passages, err := r.Search(context.Background(), "query")
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestHybridRetriever_OrphanChunkFallsBackToOwnContent(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{"query": {1, 0, 0}, "orphan": {1, 0, 0}}}
	vectors := store.NewVectorStore(emb)
	require.NoError(t, vectors.Add(context.Background(), []store.Entry{
		{ID: "c1", Content: "orphan"},
	}))

	r := New(vectors, store.NewDocStore(), 4)
	passages, err := r.Search(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "orphan", passages[0].Content)
}
