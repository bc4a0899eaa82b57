package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/smallnest/adaptiverag/log"
	"github.com/smallnest/adaptiverag/rag"
	"github.com/smallnest/adaptiverag/rag/judge"
)

// DefaultMaxRetries bounds the self-correction cycles. Without a cap an
// adversarial or noisy judge can loop the engine forever.
const DefaultMaxRetries = 3

// Judges drives routing and verification. *judge.Client satisfies it; tests
// substitute scripted implementations.
type Judges interface {
	RouteQuestion(ctx context.Context, question string) (judge.Datasource, error)
	GradeRelevance(ctx context.Context, question, document string) (bool, error)
	GradeGrounding(ctx context.Context, generation, facts string) (bool, error)
	GradeUsefulness(ctx context.Context, generation, question string) (bool, error)
}

// Generator produces an answer from a question and evidence passages.
// *rag.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, question string, passages []rag.Passage) (string, error)
}

// Options configures an Engine.
type Options struct {
	// MaxRetries is the shared budget for the two verification cycles.
	// Zero means DefaultMaxRetries.
	MaxRetries int
	// CallTimeout bounds each external call (judge, retrieval, search,
	// generation). Zero disables per-call deadlines.
	CallTimeout time.Duration
}

// Outcome is the result of a completed run.
type Outcome struct {
	// Answer is the final (or, when unverified, the last drafted) answer.
	Answer string
	// Verified is false when the retry budget was exhausted before both
	// verification checks passed. An unverified answer is still returned:
	// a low-confidence answer is usually more useful than none.
	Verified bool
	// Generations counts answer-synthesis calls performed by the run.
	Generations int
	// WebSearches counts web search calls performed by the run.
	WebSearches int
}

// Engine executes the answering state machine. Judges, the generator and the
// web search tool are stateless and shared across sessions; the corpus
// retriever is session-owned and passed per run.
type Engine struct {
	judges Judges
	gen    Generator
	web    rag.Searcher
	opts   Options
}

// NewEngine creates an engine. web may be nil when no web search credential
// is configured; runs that reach the web search step then fail with
// ErrWebSearchNotConfigured.
func NewEngine(judges Judges, gen Generator, web rag.Searcher, opts Options) *Engine {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	return &Engine{judges: judges, gen: gen, web: web, opts: opts}
}

// Run executes one question through the state machine. A run is a sequential
// chain of blocking calls; the machine never advances on a partial result.
// Any unrecovered failure surfaces as an error and the run produces no
// answer; partial progress is discarded.
func (e *Engine) Run(ctx context.Context, question string, corpus rag.Searcher) (Outcome, error) {
	ws := WorkflowState{Question: question}
	state := StateRoute
	var sig Signal
	var out Outcome
	retries := 0

	for state != StateDone {
		log.Debug("node: %s", state)

		switch state {
		case StateRoute:
			ds, err := e.routeQuestion(ctx, ws.Question)
			if err != nil {
				return Outcome{}, err
			}
			sig.Datasource = ds
			log.Info("route question to %s", ds)

		case StateRetrieve:
			docs, err := e.retrieve(ctx, ws.Question, corpus)
			if err != nil {
				return Outcome{}, err
			}
			ws.Documents = docs
			log.Info("retrieved %d corpus passage(s)", len(docs))

		case StateGradeDocuments:
			filtered, needsWeb, err := e.gradeDocuments(ctx, ws.Question, ws.Documents)
			if err != nil {
				return Outcome{}, err
			}
			ws.Documents = filtered
			ws.NeedsWebSearch = needsWeb
			log.Info("graded documents: %d relevant, web search needed: %t", len(filtered), needsWeb)

		case StateWebSearch:
			docs, err := e.webSearch(ctx, ws.Question, ws.Documents)
			if err != nil {
				return Outcome{}, err
			}
			ws.Documents = docs
			out.WebSearches++

		case StateGenerate:
			gen, err := e.generate(ctx, ws.Question, ws.Documents)
			if err != nil {
				return Outcome{}, err
			}
			ws.Generation = gen
			out.Generations++

		case StateCheckGeneration:
			grounded, useful, err := e.checkGeneration(ctx, ws)
			if err != nil {
				return Outcome{}, err
			}
			sig.Grounded = grounded
			sig.Useful = useful
		}

		next := Transition(state, ws, sig)

		// Both self-correction cycles pass through the verification state;
		// charging the budget here bounds them jointly.
		if state == StateCheckGeneration && next != StateDone {
			retries++
			if retries >= e.opts.MaxRetries {
				log.Warn("verification retry budget (%d) exhausted, returning unverified answer", e.opts.MaxRetries)
				out.Answer = ws.Generation
				out.Verified = false
				return out, nil
			}
			log.Info("verification failed (grounded=%t useful=%t), retry %d/%d",
				sig.Grounded, sig.Useful, retries, e.opts.MaxRetries)
		}

		state = next
	}

	out.Answer = ws.Generation
	out.Verified = true
	return out, nil
}

func (e *Engine) routeQuestion(ctx context.Context, question string) (judge.Datasource, error) {
	ctx, cancel := e.callCtx(ctx)
	defer cancel()
	return e.judges.RouteQuestion(ctx, question)
}

func (e *Engine) retrieve(ctx context.Context, question string, corpus rag.Searcher) ([]rag.Passage, error) {
	ctx, cancel := e.callCtx(ctx)
	defer cancel()

	docs, err := corpus.Search(ctx, question)
	if err != nil {
		return nil, &RetrievalError{Source: rag.SourceCorpus, Err: err}
	}
	return docs, nil
}

// gradeDocuments evaluates each passage independently and keeps the relevant
// ones in their original relative order. An empty input short-circuits to
// forced web search without invoking the grader; a single irrelevant passage
// flags supplementary web search without excluding the relevant ones.
func (e *Engine) gradeDocuments(ctx context.Context, question string, docs []rag.Passage) ([]rag.Passage, bool, error) {
	if len(docs) == 0 {
		return nil, true, nil
	}

	filtered := make([]rag.Passage, 0, len(docs))
	needsWeb := false
	for _, d := range docs {
		gctx, cancel := e.callCtx(ctx)
		relevant, err := e.judges.GradeRelevance(gctx, question, d.Content)
		cancel()
		if err != nil {
			return nil, false, err
		}
		if relevant {
			filtered = append(filtered, d)
		} else {
			needsWeb = true
		}
	}
	return filtered, needsWeb, nil
}

// webSearch issues one query and appends the concatenated result texts as a
// single synthetic web passage. Prior evidence is kept, never replaced.
func (e *Engine) webSearch(ctx context.Context, question string, docs []rag.Passage) ([]rag.Passage, error) {
	if e.web == nil {
		return nil, ErrWebSearchNotConfigured
	}

	ctx, cancel := e.callCtx(ctx)
	defer cancel()

	results, err := e.web.Search(ctx, question)
	if err != nil {
		return nil, &RetrievalError{Source: rag.SourceWeb, Err: err}
	}

	contents := make([]string, len(results))
	for i, p := range results {
		contents[i] = p.Content
	}

	out := make([]rag.Passage, len(docs), len(docs)+1)
	copy(out, docs)
	return append(out, rag.Passage{
		Content: strings.Join(contents, "\n"),
		Source:  rag.SourceWeb,
	}), nil
}

func (e *Engine) generate(ctx context.Context, question string, docs []rag.Passage) (string, error) {
	ctx, cancel := e.callCtx(ctx)
	defer cancel()

	gen, err := e.gen.Generate(ctx, question, docs)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	return gen, nil
}

func (e *Engine) checkGeneration(ctx context.Context, ws WorkflowState) (grounded, useful bool, err error) {
	gctx, cancel := e.callCtx(ctx)
	grounded, err = e.judges.GradeGrounding(gctx, ws.Generation, rag.JoinPassages(ws.Documents))
	cancel()
	if err != nil {
		return false, false, err
	}
	if !grounded {
		return false, false, nil
	}

	uctx, cancel := e.callCtx(ctx)
	useful, err = e.judges.GradeUsefulness(uctx, ws.Generation, ws.Question)
	cancel()
	if err != nil {
		return false, false, err
	}
	return true, useful, nil
}

func (e *Engine) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.CallTimeout > 0 {
		return context.WithTimeout(ctx, e.opts.CallTimeout)
	}
	return ctx, func() {}
}
