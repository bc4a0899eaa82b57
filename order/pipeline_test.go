package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedLLM replays queued responses and records the conversations it saw.
type scriptedLLM struct {
	responses []*llms.ContentResponse
	calls     int
	seen      [][]llms.MessageContent
}

func textResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}
}

func toolResponse(calls ...llms.ToolCall) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{ToolCalls: calls}},
	}
}

func (s *scriptedLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.seen = append(s.seen, messages)
	resp := s.responses[s.calls%len(s.responses)]
	s.calls++
	return resp, nil
}

func (s *scriptedLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := s.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    bool
		wantErr bool
	}{
		{name: "yes", out: `{"score": "yes"}`, want: true},
		{name: "no", out: `{"score": "no"}`, want: false},
		{name: "fenced", out: "```json\n{\"score\": \"yes\"}\n```", want: true},
		{name: "bad value", out: `{"score": "maybe"}`, wantErr: true},
		{name: "wrong key", out: `{"verdict": "yes"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(&scriptedLLM{responses: []*llms.ContentResponse{textResponse(tt.out)}})
			got, err := p.Classify(context.Background(), "I want to buy two apples at $3")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	p := NewPipeline(&scriptedLLM{responses: []*llms.ContentResponse{
		textResponse(`{"items": [{"price": 2.5, "quantity": 2}, {"price": 10, "quantity": 0}, {"price": -1, "quantity": 3}]}`),
	}})

	items, err := p.Parse(context.Background(), "two apples at 2.50")
	require.NoError(t, err)
	require.Len(t, items, 1, "non-positive quantities and negative prices are dropped")
	assert.Equal(t, LineItem{Price: 2.5, Quantity: 2}, items[0])
}

func TestTotal_ToolLoop(t *testing.T) {
	llm := &scriptedLLM{responses: []*llms.ContentResponse{
		toolResponse(llms.ToolCall{
			ID:           "call-1",
			FunctionCall: &llms.FunctionCall{Name: "multiply", Arguments: `{"a": 2.5, "b": 2}`},
		}),
		toolResponse(llms.ToolCall{
			ID:           "call-2",
			FunctionCall: &llms.FunctionCall{Name: "add", Arguments: `{"a": 5, "b": 0}`},
		}),
		textResponse("The order total is 5."),
	}}
	p := NewPipeline(llm)

	reply, err := p.Total(context.Background(), []LineItem{{Price: 2.5, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, "The order total is 5.", reply)
	assert.Equal(t, 3, llm.calls)

	// The multiply result was fed back as a tool message.
	last := llm.seen[2]
	var sawToolResult bool
	for _, msg := range last {
		if msg.Role != llms.ChatMessageTypeTool {
			continue
		}
		for _, part := range msg.Parts {
			if tr, ok := part.(llms.ToolCallResponse); ok && tr.Content == "5" {
				sawToolResult = true
			}
		}
	}
	assert.True(t, sawToolResult)
}

func TestTotal_IterationCap(t *testing.T) {
	llm := &scriptedLLM{responses: []*llms.ContentResponse{
		toolResponse(llms.ToolCall{
			ID:           "loop",
			FunctionCall: &llms.FunctionCall{Name: "add", Arguments: `{"a": 1, "b": 1}`},
		}),
	}}
	p := NewPipeline(llm, WithMaxIterations(2))

	_, err := p.Total(context.Background(), []LineItem{{Price: 1, Quantity: 1}})
	assert.Error(t, err)
	assert.Equal(t, 2, llm.calls)
}

func TestExecuteCalcTool(t *testing.T) {
	got, err := executeCalcTool(llms.ToolCall{
		FunctionCall: &llms.FunctionCall{Name: "multiply", Arguments: `{"a": 3, "b": 4}`},
	})
	require.NoError(t, err)
	assert.Equal(t, "12", got)

	_, err = executeCalcTool(llms.ToolCall{
		FunctionCall: &llms.FunctionCall{Name: "divide", Arguments: `{"a": 3, "b": 4}`},
	})
	assert.Error(t, err)
}

func TestHandle_NonOrderPassesThrough(t *testing.T) {
	p := NewPipeline(&scriptedLLM{responses: []*llms.ContentResponse{textResponse(`{"score": "no"}`)}})

	handled, reply, err := p.Handle(context.Background(), "what is agent memory?")
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, reply)
}

func TestHandle_OrderWithNoItems(t *testing.T) {
	p := NewPipeline(&scriptedLLM{responses: []*llms.ContentResponse{
		textResponse(`{"score": "yes"}`),
		textResponse(`{"items": []}`),
	}})

	handled, reply, err := p.Handle(context.Background(), "I want to order")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Contains(t, reply, "could not find")
}

func TestHandle_FullOrderFlow(t *testing.T) {
	p := NewPipeline(&scriptedLLM{responses: []*llms.ContentResponse{
		textResponse(`{"score": "yes"}`),
		textResponse(`{"items": [{"price": 4, "quantity": 3}]}`),
		toolResponse(llms.ToolCall{
			ID:           "c1",
			FunctionCall: &llms.FunctionCall{Name: "multiply", Arguments: `{"a": 4, "b": 3}`},
		}),
		textResponse("The order total is 12."),
	}})

	handled, reply, err := p.Handle(context.Background(), "three widgets at $4 each")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "The order total is 12.", reply)
}
