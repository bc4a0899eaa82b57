// Package server exposes the HTTP API: chat with the retrieval workflow,
// document upload, the transactions CRUD endpoints and a health check.
package server
