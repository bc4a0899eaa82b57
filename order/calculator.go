package order

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

var calcTools = []llms.Tool{
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "add",
			Description: "Add two numbers and return their sum.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"a": map[string]any{"type": "number"},
					"b": map[string]any{"type": "number"},
				},
				"required":             []string{"a", "b"},
				"additionalProperties": false,
			},
		},
	},
	{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "multiply",
			Description: "Multiply two numbers and return their product.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"a": map[string]any{"type": "number"},
					"b": map[string]any{"type": "number"},
				},
				"required":             []string{"a", "b"},
				"additionalProperties": false,
			},
		},
	},
}

// Total computes the order total by letting the model drive the add and
// multiply tools, and returns the model's final reply.
func (p *Pipeline) Total(ctx context.Context, items []LineItem) (string, error) {
	var sb strings.Builder
	sb.WriteString("Compute the total for this order:\n")
	for i, it := range items {
		fmt.Fprintf(&sb, "%d. price %s, quantity %d\n", i+1, formatNumber(it.Price), it.Quantity)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, calculatorPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, sb.String()),
	}

	for i := 0; i < p.maxIterations; i++ {
		resp, err := p.llm.GenerateContent(ctx, messages, llms.WithTools(calcTools))
		if err != nil {
			return "", fmt.Errorf("order calculation failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("order calculation failed: model returned no choices")
		}
		choice := resp.Choices[0]

		aiMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			aiMsg.Parts = append(aiMsg.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			aiMsg.Parts = append(aiMsg.Parts, tc)
		}
		messages = append(messages, aiMsg)

		if len(choice.ToolCalls) == 0 {
			return choice.Content, nil
		}

		for _, tc := range choice.ToolCalls {
			result, err := executeCalcTool(tc)
			if err != nil {
				result = fmt.Sprintf("Error: %v", err)
			}
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: tc.ID,
						Name:       tc.FunctionCall.Name,
						Content:    result,
					},
				},
			})
		}
	}

	return "", fmt.Errorf("order calculation exceeded %d tool rounds", p.maxIterations)
}

func executeCalcTool(tc llms.ToolCall) (string, error) {
	var args struct {
		A float64 `json:"a"`
		B float64 `json:"b"`
	}
	if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for %s: %w", tc.FunctionCall.Name, err)
	}

	switch tc.FunctionCall.Name {
	case "add":
		return formatNumber(args.A + args.B), nil
	case "multiply":
		return formatNumber(args.A * args.B), nil
	default:
		return "", fmt.Errorf("unknown tool: %s", tc.FunctionCall.Name)
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
