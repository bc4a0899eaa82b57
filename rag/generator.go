package rag

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

const defaultGeneratorSystemPrompt = "You are an assistant for question-answering tasks. " +
	"Use the provided pieces of retrieved context to answer the question. " +
	"If you don't know the answer, just say that you don't know. " +
	"Use three sentences maximum and keep the answer concise."

// Generator produces a natural-language answer from a question and a set of
// evidence passages. It performs a single LLM call per invocation; retries are
// driven by the workflow engine, never internally.
type Generator struct {
	llm          llms.Model
	systemPrompt string
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithSystemPrompt overrides the default answering instructions.
func WithSystemPrompt(prompt string) GeneratorOption {
	return func(g *Generator) {
		g.systemPrompt = prompt
	}
}

// NewGenerator creates a Generator backed by the given model.
func NewGenerator(llm llms.Model, opts ...GeneratorOption) *Generator {
	g := &Generator{
		llm:          llm,
		systemPrompt: defaultGeneratorSystemPrompt,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate answers the question from the passages. Passage contents are joined
// order-preserving into one context block.
func (g *Generator) Generate(ctx context.Context, question string, passages []Passage) (string, error) {
	prompt := fmt.Sprintf("Question: %s\nContext: %s\nAnswer:", question, JoinPassages(passages))

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, g.systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := g.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generation failed: model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
