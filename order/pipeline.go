package order

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/adaptiverag/log"
)

const defaultMaxIterations = 10

// LineItem is one priced position of an order.
type LineItem struct {
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Pipeline classifies, parses and totals order messages.
type Pipeline struct {
	llm           llms.Model
	maxIterations int
}

type Option func(*Pipeline)

// WithMaxIterations caps the calculator's tool-call rounds.
func WithMaxIterations(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxIterations = n
		}
	}
}

// NewPipeline creates an order pipeline on the given model.
func NewPipeline(llm llms.Model, opts ...Option) *Pipeline {
	p := &Pipeline{llm: llm, maxIterations: defaultMaxIterations}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle inspects a chat message. If it is an order request it parses and
// totals it and returns handled=true with the reply; otherwise it returns
// handled=false and the message should go to the retrieval workflow.
func (p *Pipeline) Handle(ctx context.Context, message string) (bool, string, error) {
	isOrder, err := p.Classify(ctx, message)
	if err != nil {
		return false, "", err
	}
	if !isOrder {
		return false, "", nil
	}

	items, err := p.Parse(ctx, message)
	if err != nil {
		return true, "", err
	}
	if len(items) == 0 {
		return true, "I could not find any priced items in your order. Please list each item with its price and quantity.", nil
	}

	log.Debug("order: totaling %d line items", len(items))
	reply, err := p.Total(ctx, items)
	if err != nil {
		return true, "", err
	}
	return true, reply, nil
}

// Classify decides whether the message is an order request.
func (p *Pipeline) Classify(ctx context.Context, message string) (bool, error) {
	out, err := p.complete(ctx, classifierPrompt, message)
	if err != nil {
		return false, fmt.Errorf("order classification failed: %w", err)
	}

	var verdict struct {
		Score string `json:"score"`
	}
	if err := decodeStrict(out, &verdict); err != nil {
		return false, fmt.Errorf("order classification failed: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(verdict.Score)) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, fmt.Errorf("order classification failed: unexpected score %q", verdict.Score)
	}
}

// Parse extracts the priced line items from an order message.
func (p *Pipeline) Parse(ctx context.Context, message string) ([]LineItem, error) {
	out, err := p.complete(ctx, parserPrompt, message)
	if err != nil {
		return nil, fmt.Errorf("order parsing failed: %w", err)
	}

	var parsed struct {
		Items []LineItem `json:"items"`
	}
	if err := decodeStrict(out, &parsed); err != nil {
		return nil, fmt.Errorf("order parsing failed: %w", err)
	}

	items := make([]LineItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if it.Price < 0 || it.Quantity <= 0 {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

func (p *Pipeline) complete(ctx context.Context, system, user string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}
	resp, err := p.llm.GenerateContent(ctx, messages, llms.WithJSONMode())
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func decodeStrict(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json %q: %w", raw, err)
	}
	if dec.More() {
		return fmt.Errorf("trailing content after json %q", raw)
	}
	return nil
}
