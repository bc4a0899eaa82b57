// Package rag holds the shared evidence types and contracts of the answering
// pipeline: the Passage evidence unit, the Searcher interface implemented by
// both the corpus retriever and the web search tools, and the answer
// Generator.
package rag
