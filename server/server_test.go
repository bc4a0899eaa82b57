package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/adaptiverag/session"
	"github.com/smallnest/adaptiverag/transaction"
	"github.com/smallnest/adaptiverag/workflow"
)

type stubChatter struct {
	answer      string
	askCalls    int
	ingested    string
	lastAsked   string
	lastSession string
}

func (c *stubChatter) Ask(ctx context.Context, sessionID, message string) (workflow.Outcome, error) {
	c.askCalls++
	c.lastAsked = message
	c.lastSession = sessionID
	return workflow.Outcome{Answer: c.answer, Verified: true, Generations: 1}, nil
}

func (c *stubChatter) IngestText(ctx context.Context, sessionID, text string) (int, int, error) {
	c.ingested = text
	c.lastSession = sessionID
	return 1, 2, nil
}

func (c *stubChatter) IngestFile(ctx context.Context, sessionID, path string) (int, int, error) {
	return 1, 3, nil
}

type stubOrders struct {
	handled bool
	reply   string
	calls   int
}

func (o *stubOrders) Handle(ctx context.Context, message string) (bool, string, error) {
	o.calls++
	return o.handled, o.reply, nil
}

func newTestServer(t *testing.T, chat *stubChatter, orders OrderHandler) *Server {
	t.Helper()
	store, err := transaction.NewSqliteStore(transaction.SqliteOptions{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewServer(Config{AllowOrigin: "http://localhost:3000"}, chat, orders, store)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHandleChat(t *testing.T) {
	chat := &stubChatter{answer: "**Tokyo** is the capital."}
	srv := newTestServer(t, chat, &stubOrders{})

	w := postJSON(t, srv.Handler(), "/api/chat", ChatRequest{Message: "capital of japan?"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "**Tokyo** is the capital.", resp.Answer)
	assert.Contains(t, resp.AnswerHTML, "<strong>Tokyo</strong>")
	assert.Equal(t, session.DefaultSessionID, resp.SessionID, "an id-less client lands in the default session")
	assert.Equal(t, session.DefaultSessionID, chat.lastSession)
	assert.True(t, resp.Verified)
	assert.Equal(t, 1, chat.askCalls)
}

func TestHandleChat_IDLessClientsShareTheDefaultSession(t *testing.T) {
	chat := &stubChatter{answer: "a"}
	srv := newTestServer(t, chat, &stubOrders{})
	h := srv.Handler()

	first := postJSON(t, h, "/api/chat", ChatRequest{Message: "q1"})
	second := postJSON(t, h, "/api/chat", ChatRequest{Message: "q2"})
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	var r1, r2 ChatResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &r1))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &r2))
	assert.Equal(t, r1.SessionID, r2.SessionID, "consecutive id-less requests accumulate in one session")
}

func TestHandleChat_KeepsSessionID(t *testing.T) {
	srv := newTestServer(t, &stubChatter{answer: "a"}, nil)

	w := postJSON(t, srv.Handler(), "/api/chat", ChatRequest{Message: "q", SessionID: "abc"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "abc", resp.SessionID)
}

func TestHandleChat_OrderShortCircuits(t *testing.T) {
	chat := &stubChatter{answer: "never"}
	orders := &stubOrders{handled: true, reply: "The order total is 12."}
	srv := newTestServer(t, chat, orders)

	w := postJSON(t, srv.Handler(), "/api/chat", ChatRequest{Message: "three widgets at $4"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "The order total is 12.", resp.Answer)
	assert.Equal(t, 1, orders.calls)
	assert.Equal(t, 0, chat.askCalls, "order messages never reach the workflow")
}

func TestHandleChat_BadRequests(t *testing.T) {
	srv := newTestServer(t, &stubChatter{}, nil)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, h, "/api/chat", ChatRequest{Message: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleUpload(t *testing.T) {
	srv := newTestServer(t, &stubChatter{}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("some corpus text"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Sections)
	assert.Equal(t, 3, resp.Chunks)
}

func TestHandleUpload_FromURL(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><script>nope()</script></head><body><article><h1>Refunds</h1><p>Refunds take five days.</p></article></body></html>`))
	}))
	defer page.Close()

	chat := &stubChatter{}
	srv := newTestServer(t, chat, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("session_id", "s1"))
	require.NoError(t, mw.WriteField("url", page.URL))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Sections)
	assert.Equal(t, 2, resp.Chunks)
	assert.Equal(t, "s1", chat.lastSession)
	assert.Contains(t, chat.ingested, "Refunds take five days.")
	assert.NotContains(t, chat.ingested, "nope()")
}

func TestHandleUpload_MissingFile(t *testing.T) {
	srv := newTestServer(t, &stubChatter{}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("session_id", "s1"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleTransactions(t *testing.T) {
	srv := newTestServer(t, &stubChatter{}, nil)
	h := srv.Handler()

	w := postJSON(t, h, "/api/transactions", transaction.Transaction{Amount: 12.5, Category: "groceries", Date: "2026-08-01"})
	require.Equal(t, http.StatusOK, w.Code)

	var created transaction.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?skip=0&limit=10", nil)
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, req)
	require.Equal(t, http.StatusOK, w2.Code)

	var list []transaction.Transaction
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created, list[0])
}

func TestHandleTransactions_EmptyListIsArray(t *testing.T) {
	srv := newTestServer(t, &stubChatter{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, &stubChatter{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, &stubChatter{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRenderMarkdown_Sanitizes(t *testing.T) {
	got := renderMarkdown("# Title\n\n<script>alert(1)</script>*em*")
	assert.Contains(t, got, "<h1")
	assert.Contains(t, got, "<em>em</em>")
	assert.NotContains(t, got, "<script>")
}

func TestValidateConfig(t *testing.T) {
	cfg := Config{OpenAIKey: "k", WebSearch: "tavily", TavilyKey: "t", DBBackend: "sqlite"}
	assert.NoError(t, ValidateConfig(cfg))
	assert.NoError(t, ValidateConfig(Config{OpenAIKey: "k", WebSearch: "brave", BraveKey: "b", DBBackend: "sqlite"}))
	assert.NoError(t, ValidateConfig(Config{OpenAIKey: "k", WebSearch: "", DBBackend: "sqlite"}), "empty backend disables web search")

	assert.Error(t, ValidateConfig(Config{WebSearch: "", DBBackend: "sqlite"}))
	assert.Error(t, ValidateConfig(Config{OpenAIKey: "k", WebSearch: "tavily", DBBackend: "sqlite"}), "tavily needs a key")
	assert.Error(t, ValidateConfig(Config{OpenAIKey: "k", WebSearch: "brave", DBBackend: "sqlite"}), "brave needs a key")
	assert.Error(t, ValidateConfig(Config{OpenAIKey: "k", WebSearch: "bing", DBBackend: "sqlite"}))
	assert.Error(t, ValidateConfig(Config{OpenAIKey: "k", DBBackend: "postgres"}))
	assert.Error(t, ValidateConfig(Config{OpenAIKey: "k", DBBackend: "oracle"}))
}
