package workflow

import (
	"errors"
	"fmt"

	"github.com/smallnest/adaptiverag/rag"
)

// ErrWebSearchNotConfigured is returned when a run reaches the web search
// step without a configured web search tool. Missing credentials are a
// configuration error surfaced to the caller, never swallowed mid-run.
var ErrWebSearchNotConfigured = errors.New("web search tool is not configured")

// RetrievalError reports a failed corpus or web-search lookup.
type RetrievalError struct {
	Source rag.Source
	Err    error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval from %s failed: %v", e.Source, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError reports a failed answer-synthesis call. It bubbles up
// unchanged; the engine never silently retries a failed generation.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
