// Package store provides the in-memory stores backing a session's corpus:
// a cosine-similarity vector store holding embedded child chunks, and a
// document store holding the parent passages the chunks were split from.
package store
