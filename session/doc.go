// Package session tracks per-conversation state: each session owns its own
// corpus stores and chat history, and serializes its question runs so
// concurrent requests on one conversation cannot interleave.
package session
