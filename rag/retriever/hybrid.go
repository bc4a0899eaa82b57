// Package retriever implements the corpus lookup used by the answering
// workflow: a hybrid parent/child retriever that searches embedded child
// chunks and returns the parent passages they were split from.
package retriever

import (
	"context"
	"fmt"

	"github.com/smallnest/adaptiverag/rag"
	"github.com/smallnest/adaptiverag/rag/store"
)

const defaultTopK = 4

// HybridRetriever searches the child-chunk vector store and resolves matches
// to their parent passages, deduplicated, ordered by best child score.
// It implements rag.Searcher.
type HybridRetriever struct {
	vectors *store.VectorStore
	parents *store.DocStore
	topK    int
}

// New creates a hybrid retriever over the given stores. topK <= 0 uses the
// default.
func New(vectors *store.VectorStore, parents *store.DocStore, topK int) *HybridRetriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &HybridRetriever{
		vectors: vectors,
		parents: parents,
		topK:    topK,
	}
}

// Search returns parent passages for the query, tagged as corpus evidence.
// An empty corpus yields zero passages, not an error.
func (r *HybridRetriever) Search(ctx context.Context, query string) ([]rag.Passage, error) {
	if r.vectors.Len() == 0 {
		return nil, nil
	}

	// Over-fetch children so parent dedup still fills topK parents.
	results, err := r.vectors.Search(ctx, query, r.topK*2)
	if err != nil {
		return nil, fmt.Errorf("corpus search failed: %w", err)
	}

	seen := make(map[string]bool)
	passages := make([]rag.Passage, 0, r.topK)
	for _, res := range results {
		if len(passages) >= r.topK {
			break
		}
		parentID := res.Entry.ParentID
		if parentID == "" {
			// Standalone chunk, use its own content.
			passages = append(passages, rag.Passage{Content: res.Entry.Content, Source: rag.SourceCorpus})
			continue
		}
		if seen[parentID] {
			continue
		}
		seen[parentID] = true
		content, ok := r.parents.Get(parentID)
		if !ok {
			content = res.Entry.Content
		}
		passages = append(passages, rag.Passage{Content: content, Source: rag.SourceCorpus})
	}
	return passages, nil
}
