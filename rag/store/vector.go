package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Embedder generates embeddings for text.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Entry is an embedded child chunk. ParentID links it back to the parent
// passage held in a DocStore.
type Entry struct {
	ID        string
	ParentID  string
	Content   string
	Embedding []float32
}

// SearchResult pairs an entry with its similarity score.
type SearchResult struct {
	Entry Entry
	Score float64
}

// VectorStore is a simple in-memory vector store over child chunks. It is
// safe for concurrent use.
type VectorStore struct {
	mu       sync.RWMutex
	entries  []Entry
	embedder Embedder
}

// NewVectorStore creates an empty vector store using the given embedder for
// entries and queries that arrive without an embedding.
func NewVectorStore(embedder Embedder) *VectorStore {
	return &VectorStore{embedder: embedder}
}

// Add inserts entries, embedding any that lack an embedding.
func (s *VectorStore) Add(ctx context.Context, entries []Entry) error {
	prepared := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if len(e.Embedding) == 0 {
			if s.embedder == nil {
				return fmt.Errorf("no embedder configured and entry %q has no embedding", e.ID)
			}
			emb, err := s.embedder.EmbedDocument(ctx, e.Content)
			if err != nil {
				return fmt.Errorf("failed to embed entry %q: %w", e.ID, err)
			}
			e.Embedding = emb
		}
		prepared = append(prepared, e)
	}

	s.mu.Lock()
	s.entries = append(s.entries, prepared...)
	s.mu.Unlock()
	return nil
}

// Search embeds the query and returns the k nearest entries by cosine
// similarity, best first.
func (s *VectorStore) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}

	queryEmb, err := s.embedder.EmbedDocument(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return []SearchResult{}, nil
	}

	results := make([]SearchResult, len(s.entries))
	for i, e := range s.entries {
		results[i] = SearchResult{Entry: e, Score: cosineSimilarity(queryEmb, e.Embedding)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Len returns the number of stored entries.
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// cosineSimilarity computes cosine similarity between two vectors. Mismatched
// or zero-length vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
