package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smallnest/adaptiverag/ingest"
	"github.com/smallnest/adaptiverag/log"
	"github.com/smallnest/adaptiverag/rag/retriever"
	"github.com/smallnest/adaptiverag/rag/store"
	"github.com/smallnest/adaptiverag/workflow"
)

// DefaultSessionID names the implicit session used when a client does not
// supply one.
const DefaultSessionID = "default"

const (
	defaultIdleTTL       = time.Hour
	defaultJanitorPeriod = 5 * time.Minute
	defaultTopK          = 4
)

// Session owns one conversation: its corpus stores, its retriever and its
// run lock. Runs on the same session never interleave.
type Session struct {
	ID string

	mu        sync.Mutex
	vectors   *store.VectorStore
	parents   *store.DocStore
	retriever *retriever.HybridRetriever
	ingestor  *ingest.Ingestor
	lastUsed  time.Time
}

// Manager creates sessions on first use and evicts the ones that have been
// idle past the TTL.
type Manager struct {
	engine   *workflow.Engine
	embedder store.Embedder
	history  History

	idleTTL       time.Duration
	janitorPeriod time.Duration
	topK          int

	mu       sync.Mutex
	sessions map[string]*Session
	stop     chan struct{}
	stopOnce sync.Once
}

type ManagerOption func(*Manager)

// WithIdleTTL sets how long a session may sit unused before eviction.
func WithIdleTTL(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.idleTTL = d
	}
}

// WithJanitorPeriod sets how often idle sessions are swept.
func WithJanitorPeriod(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.janitorPeriod = d
	}
}

// WithTopK sets the per-session retriever depth.
func WithTopK(k int) ManagerOption {
	return func(m *Manager) {
		m.topK = k
	}
}

// NewManager creates a session manager and starts its eviction janitor.
// Call Close to stop it.
func NewManager(engine *workflow.Engine, embedder store.Embedder, history History, opts ...ManagerOption) *Manager {
	m := &Manager{
		engine:        engine,
		embedder:      embedder,
		history:       history,
		idleTTL:       defaultIdleTTL,
		janitorPeriod: defaultJanitorPeriod,
		topK:          defaultTopK,
		sessions:      make(map[string]*Session),
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.janitor()
	return m
}

// Close stops the eviction janitor.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Get returns the session for id, creating it on first use. An empty id
// maps to the default session.
func (m *Manager) Get(id string) *Session {
	if id == "" {
		id = DefaultSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		vectors := store.NewVectorStore(m.embedder)
		parents := store.NewDocStore()
		sess = &Session{
			ID:        id,
			vectors:   vectors,
			parents:   parents,
			retriever: retriever.New(vectors, parents, m.topK),
			ingestor:  ingest.NewIngestor(vectors, parents),
			lastUsed:  time.Now(),
		}
		m.sessions[id] = sess
		log.Debug("created session %s", id)
	}
	return sess
}

// Ask runs one question through the workflow for the given session. The
// chat history is folded into the question, and the finished exchange is
// appended to it.
func (m *Manager) Ask(ctx context.Context, sessionID, message string) (workflow.Outcome, error) {
	sess := m.Get(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastUsed = time.Now()

	history, err := m.history.List(ctx, sess.ID)
	if err != nil {
		return workflow.Outcome{}, err
	}

	question := BuildPrompt(message, history)
	out, err := m.engine.Run(ctx, question, sess.retriever)
	if err != nil {
		return workflow.Outcome{}, err
	}

	if err := m.history.Append(ctx, sess.ID, Exchange{User: message, Assistant: out.Answer}); err != nil {
		log.Warn("failed to persist history for session %s: %v", sess.ID, err)
	}
	if err := sess.rememberQuery(ctx, message); err != nil {
		log.Warn("failed to index question for session %s: %v", sess.ID, err)
	}
	sess.lastUsed = time.Now()
	return out, nil
}

// rememberQuery indexes the completed run's user message as session
// evidence, so later retrievals can surface what was previously asked.
func (s *Session) rememberQuery(ctx context.Context, message string) error {
	parentID := uuid.NewString()
	s.parents.Put(parentID, message)
	return s.vectors.Add(ctx, []store.Entry{{
		ID:       uuid.NewString(),
		ParentID: parentID,
		Content:  message,
	}})
}

// IngestText adds a document to the session's corpus. It returns the number
// of parent sections and child chunks created.
func (m *Manager) IngestText(ctx context.Context, sessionID, text string) (int, int, error) {
	sess := m.Get(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastUsed = time.Now()
	return sess.ingestor.IngestText(ctx, text)
}

// IngestFile loads a file from disk into the session's corpus.
func (m *Manager) IngestFile(ctx context.Context, sessionID, path string) (int, int, error) {
	sess := m.Get(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastUsed = time.Now()
	return sess.ingestor.IngestFile(ctx, path)
}

// History returns the stored exchanges for a session.
func (m *Manager) History(ctx context.Context, sessionID string) ([]Exchange, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	return m.history.List(ctx, sessionID)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) janitor() {
	ticker := time.NewTicker(m.janitorPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evictIdle(time.Now())
		}
	}
}

func (m *Manager) evictIdle(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		// A session whose lock is held is mid-run, so it is not idle.
		if !sess.mu.TryLock() {
			continue
		}
		idle := now.Sub(sess.lastUsed)
		sess.mu.Unlock()
		if idle > m.idleTTL {
			delete(m.sessions, id)
			log.Debug("evicted idle session %s", id)
		}
	}
}
