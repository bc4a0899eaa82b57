// Package tool provides the web-facing search and fetch clients used as
// fallback evidence sources. Each search client implements rag.Searcher so
// the workflow engine can consume corpus and web evidence uniformly.
package tool
