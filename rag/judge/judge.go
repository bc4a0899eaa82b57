package judge

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// Client runs the four judges against a single shared model. Judges are
// stateless and side-effect free beyond their LLM call, so one Client is
// safely reused across sessions.
type Client struct {
	llm llms.Model
}

// NewClient creates a judge client backed by the given model.
func NewClient(llm llms.Model) *Client {
	return &Client{llm: llm}
}

// complete issues one judge call in JSON mode and returns the raw output.
func (c *Client) complete(ctx context.Context, name, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := c.llm.GenerateContent(ctx, messages, llms.WithJSONMode())
	if err != nil {
		return "", &Error{Judge: name, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Judge: name, Err: fmt.Errorf("model returned no choices")}
	}
	return resp.Choices[0].Content, nil
}

// RouteQuestion classifies which evidence source to consult first. A failed
// call or malformed verdict is an *Error; the caller must not default a
// datasource, since defaulting would mask a routing bug.
func (c *Client) RouteQuestion(ctx context.Context, question string) (Datasource, error) {
	raw, err := c.complete(ctx, "router", fmt.Sprintf(routerPrompt, question))
	if err != nil {
		return "", err
	}
	ds, err := parseDatasource(raw)
	if err != nil {
		return "", &Error{Judge: "router", Err: err}
	}
	return ds, nil
}

// GradeRelevance judges whether a single retrieved document is relevant to
// the question.
func (c *Client) GradeRelevance(ctx context.Context, question, document string) (bool, error) {
	raw, err := c.complete(ctx, "relevance", fmt.Sprintf(relevancePrompt, document, question))
	if err != nil {
		return false, err
	}
	ok, err := parseScore(raw)
	if err != nil {
		return false, &Error{Judge: "relevance", Err: err}
	}
	return ok, nil
}

// GradeGrounding judges whether the generated answer is grounded in the
// evidence text it was generated from.
func (c *Client) GradeGrounding(ctx context.Context, generation, facts string) (bool, error) {
	raw, err := c.complete(ctx, "hallucination", fmt.Sprintf(hallucinationPrompt, facts, generation))
	if err != nil {
		return false, err
	}
	ok, err := parseScore(raw)
	if err != nil {
		return false, &Error{Judge: "hallucination", Err: err}
	}
	return ok, nil
}

// GradeUsefulness judges whether the generated answer actually addresses the
// posed question.
func (c *Client) GradeUsefulness(ctx context.Context, generation, question string) (bool, error) {
	raw, err := c.complete(ctx, "usefulness", fmt.Sprintf(usefulnessPrompt, generation, question))
	if err != nil {
		return false, err
	}
	ok, err := parseScore(raw)
	if err != nil {
		return false, &Error{Judge: "usefulness", Err: err}
	}
	return ok, nil
}
