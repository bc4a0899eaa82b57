package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/smallnest/adaptiverag/log"
	"github.com/smallnest/adaptiverag/rag/store"
)

const (
	defaultParentSize    = 2000
	defaultParentOverlap = 0
	defaultChildSize     = 400
	defaultChildOverlap  = 50
)

// Ingestor splits documents into parent sections and child chunks. Parents
// are stored whole for answer context; children are embedded for search and
// point back to their parent.
type Ingestor struct {
	vectors *store.VectorStore
	parents *store.DocStore

	parentSize    int
	parentOverlap int
	childSize     int
	childOverlap  int
}

type IngestorOption func(*Ingestor)

// WithParentChunking sets the parent section size and overlap.
func WithParentChunking(size, overlap int) IngestorOption {
	return func(i *Ingestor) {
		i.parentSize = size
		i.parentOverlap = overlap
	}
}

// WithChildChunking sets the child chunk size and overlap.
func WithChildChunking(size, overlap int) IngestorOption {
	return func(i *Ingestor) {
		i.childSize = size
		i.childOverlap = overlap
	}
}

// NewIngestor creates an ingestor writing to the given stores.
func NewIngestor(vectors *store.VectorStore, parents *store.DocStore, opts ...IngestorOption) *Ingestor {
	ing := &Ingestor{
		vectors:       vectors,
		parents:       parents,
		parentSize:    defaultParentSize,
		parentOverlap: defaultParentOverlap,
		childSize:     defaultChildSize,
		childOverlap:  defaultChildOverlap,
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// IngestText splits text into parents and children and indexes the children.
// It returns the number of parent sections and child chunks created.
func (i *Ingestor) IngestText(ctx context.Context, text string) (int, int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, 0, fmt.Errorf("nothing to ingest")
	}

	parentTexts, err := splitRecursive(text, i.parentSize, i.parentOverlap)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to split into sections: %w", err)
	}

	var entries []store.Entry
	for _, parent := range parentTexts {
		parentID := uuid.NewString()
		i.parents.Put(parentID, parent)

		childTexts, err := splitRecursive(parent, i.childSize, i.childOverlap)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to split into chunks: %w", err)
		}
		for _, child := range childTexts {
			entries = append(entries, store.Entry{
				ID:       uuid.NewString(),
				ParentID: parentID,
				Content:  child,
			})
		}
	}

	if err := i.vectors.Add(ctx, entries); err != nil {
		return 0, 0, fmt.Errorf("failed to index chunks: %w", err)
	}

	log.Debug("ingested %d sections as %d chunks", len(parentTexts), len(entries))
	return len(parentTexts), len(entries), nil
}

// IngestFile loads a file from disk and ingests its text.
func (i *Ingestor) IngestFile(ctx context.Context, path string) (int, int, error) {
	text, err := LoadFile(path)
	if err != nil {
		return 0, 0, err
	}
	return i.IngestText(ctx, text)
}

func splitRecursive(text string, size, overlap int) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter()
	splitter.ChunkSize = size
	splitter.ChunkOverlap = overlap
	splitter.Separators = []string{"\n\n", "\n", ". ", " ", ""}

	chunks, err := splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}
