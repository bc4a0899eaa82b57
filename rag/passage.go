package rag

import (
	"context"
	"strings"
)

// Source identifies where an evidence passage came from.
type Source string

const (
	// SourceCorpus marks a passage retrieved from the private document corpus.
	SourceCorpus Source = "corpus"
	// SourceWeb marks a passage produced by a web search.
	SourceWeb Source = "web"
)

// Passage is a unit of evidence text with a provenance tag. Passages are
// immutable once produced; pipeline steps build new slices instead of
// mutating the one they received.
type Passage struct {
	Content string
	Source  Source
}

// Searcher returns ranked evidence passages for a query. The corpus retriever
// and the web search tools both implement it.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Passage, error)
}

// JoinPassages renders passages into a single context block, order-preserving,
// separated by blank lines.
func JoinPassages(passages []Passage) string {
	if len(passages) == 0 {
		return ""
	}
	parts := make([]string, len(passages))
	for i, p := range passages {
		parts[i] = p.Content
	}
	return strings.Join(parts, "\n\n")
}
