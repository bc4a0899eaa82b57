// Adaptive RAG - A Self-Correcting Retrieval-Augmented Answering Service in Go
//
// Adaptive RAG answers user questions from a private document corpus or from
// live web search, whichever an LLM router judges more appropriate. Retrieved
// evidence is graded for relevance before generation, and every generated
// answer is verified twice: once for groundedness in the evidence
// (hallucination check) and once for usefulness against the question. Failed
// verification drives a bounded self-correction loop that either regenerates
// the answer or fetches additional web evidence.
//
// Package layout:
//
//   - workflow:      the explicit state machine driving route/retrieve/grade/
//     search/generate/verify transitions
//   - rag:           evidence passages, the Searcher contract and the answer
//     generator
//   - rag/judge:     the four binary LLM judges (router, relevance,
//     hallucination, usefulness) with strict verdict parsing
//   - rag/store:     in-memory child-vector store and parent document store
//   - rag/retriever: hybrid parent/child corpus retriever
//   - tool:          Tavily and Brave web search clients, page text extraction
//   - ingest:        file loaders, parent/child chunking and embeddings
//   - session:       per-conversation registry with history, expiry and
//     optional Redis persistence
//   - order:         the order-parsing side channel with an arithmetic
//     tool-call loop
//   - transaction:   the bookkeeping CRUD store (SQLite or Postgres)
//   - server:        the HTTP API
//
// The cmd/adaptiverag binary runs either the HTTP server or an interactive
// terminal chat.
package adaptiverag
