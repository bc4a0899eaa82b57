// Package ingest loads documents from files and web pages, splits them into
// parent sections and child chunks, and indexes the chunks for retrieval.
package ingest
