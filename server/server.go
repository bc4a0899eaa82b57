package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/smallnest/adaptiverag/log"
	"github.com/smallnest/adaptiverag/session"
	"github.com/smallnest/adaptiverag/tool"
	"github.com/smallnest/adaptiverag/transaction"
	"github.com/smallnest/adaptiverag/workflow"
)

// Chatter answers chat messages and ingests documents for a session.
// *session.Manager implements it.
type Chatter interface {
	Ask(ctx context.Context, sessionID, message string) (workflow.Outcome, error)
	IngestText(ctx context.Context, sessionID, text string) (int, int, error)
	IngestFile(ctx context.Context, sessionID, path string) (int, int, error)
}

// OrderHandler intercepts order messages before they reach the workflow.
// *order.Pipeline implements it.
type OrderHandler interface {
	Handle(ctx context.Context, message string) (bool, string, error)
}

// Server is the HTTP boundary of the application.
type Server struct {
	cfg     Config
	chat    Chatter
	orders  OrderHandler
	store   transaction.Store
	fetcher *tool.PageFetcher
}

// NewServer creates the HTTP server. orders and store may be nil, which
// disables the order side channel and the transactions API.
func NewServer(cfg Config, chat Chatter, orders OrderHandler, store transaction.Store) *Server {
	return &Server{
		cfg:     cfg,
		chat:    chat,
		orders:  orders,
		store:   store,
		fetcher: tool.NewPageFetcher(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/health", s.handleHealth)
	return s.cors(mux)
}

// Start runs the HTTP server until it fails.
func (s *Server) Start() error {
	addr := s.cfg.ServerHost + ":" + s.cfg.ServerPort
	log.Info("starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.AllowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ChatRequest is the /api/chat request body.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// ChatResponse is the /api/chat response body.
type ChatResponse struct {
	Answer     string `json:"answer"`
	AnswerHTML string `json:"answer_html"`
	SessionID  string `json:"session_id"`
	Verified   bool   `json:"verified"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		sendJSONError(w, "message is required", http.StatusBadRequest)
		return
	}
	// An id-less client stays in the shared default session so its
	// history keeps folding into followup prompts.
	if req.SessionID == "" {
		req.SessionID = session.DefaultSessionID
	}

	ctx := r.Context()
	log.Debug("chat request from session %s", req.SessionID)

	// Order messages never enter the retrieval workflow.
	if s.orders != nil {
		handled, reply, err := s.orders.Handle(ctx, req.Message)
		if err != nil {
			log.Error("order handling failed: %v", err)
			sendJSONError(w, "Failed to process order", http.StatusInternalServerError)
			return
		}
		if handled {
			sendJSONResponse(w, ChatResponse{
				Answer:     reply,
				AnswerHTML: renderMarkdown(reply),
				SessionID:  req.SessionID,
				Verified:   true,
			})
			return
		}
	}

	out, err := s.chat.Ask(ctx, req.SessionID, req.Message)
	if err != nil {
		log.Error("chat failed: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, workflow.ErrWebSearchNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		sendJSONError(w, err.Error(), status)
		return
	}

	sendJSONResponse(w, ChatResponse{
		Answer:     out.Answer,
		AnswerHTML: renderMarkdown(out.Answer),
		SessionID:  req.SessionID,
		Verified:   out.Verified,
	})
}

// UploadResponse is the /api/upload response body.
type UploadResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Sections int    `json:"sections"`
	Chunks   int    `json:"chunks"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		sendJSONError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	sessionID := r.FormValue("session_id")

	file, header, err := r.FormFile("file")
	if err != nil {
		// Without a file the form may name a web page to ingest instead.
		if pageURL := r.FormValue("url"); pageURL != "" {
			s.ingestURL(w, r, sessionID, pageURL)
			return
		}
		sendJSONError(w, "file or url field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// The PDF loader needs a file on disk, so spool the upload to a
	// temp file named like the original.
	tmpDir, err := os.MkdirTemp("", "upload-*")
	if err != nil {
		sendJSONError(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, filepath.Base(header.Filename))
	dst, err := os.Create(path)
	if err != nil {
		sendJSONError(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		sendJSONError(w, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	dst.Close()

	sections, chunks, err := s.chat.IngestFile(r.Context(), sessionID, path)
	if err != nil {
		log.Error("ingestion failed: %v", err)
		sendJSONError(w, fmt.Sprintf("Ingestion failed: %v", err), http.StatusBadRequest)
		return
	}

	log.Info("ingested %s: %d sections, %d chunks", header.Filename, sections, chunks)
	sendJSONResponse(w, UploadResponse{
		Success:  true,
		Message:  "Document ingested successfully",
		Sections: sections,
		Chunks:   chunks,
	})
}

// ingestURL downloads a web page, extracts its readable text and ingests it
// into the session's corpus.
func (s *Server) ingestURL(w http.ResponseWriter, r *http.Request, sessionID, pageURL string) {
	text, err := s.fetcher.Fetch(r.Context(), pageURL)
	if err != nil {
		log.Error("page fetch failed: %v", err)
		sendJSONError(w, fmt.Sprintf("Failed to fetch page: %v", err), http.StatusBadGateway)
		return
	}

	sections, chunks, err := s.chat.IngestText(r.Context(), sessionID, text)
	if err != nil {
		log.Error("ingestion failed: %v", err)
		sendJSONError(w, fmt.Sprintf("Ingestion failed: %v", err), http.StatusBadRequest)
		return
	}

	log.Info("ingested %s: %d sections, %d chunks", pageURL, sections, chunks)
	sendJSONResponse(w, UploadResponse{
		Success:  true,
		Message:  "Page ingested successfully",
		Sections: sections,
		Chunks:   chunks,
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		sendJSONError(w, "Transactions are not configured", http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var t transaction.Transaction
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			sendJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.store.Create(r.Context(), &t); err != nil {
			log.Error("transaction create failed: %v", err)
			sendJSONError(w, "Failed to create transaction", http.StatusInternalServerError)
			return
		}
		sendJSONResponse(w, t)
	case http.MethodGet:
		offset := queryInt(r, "skip", 0)
		limit := queryInt(r, "limit", 100)
		list, err := s.store.List(r.Context(), offset, limit)
		if err != nil {
			log.Error("transaction list failed: %v", err)
			sendJSONError(w, "Failed to list transactions", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []transaction.Transaction{}
		}
		sendJSONResponse(w, list)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, map[string]any{"status": "ok"})
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return defaultValue
}

func sendJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func sendJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
