package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt_NoHistory(t *testing.T) {
	got := BuildPrompt("what is task decomposition?", nil)
	assert.Equal(t, "<|start_header_id|>user<|end_header_id|> what is task decomposition? <|eot_id|>", got)
}

func TestBuildPrompt_WithHistory(t *testing.T) {
	history := []Exchange{
		{User: "hi ", Assistant: " hello there "},
		{User: " second question ", Assistant: "second answer"},
	}
	got := BuildPrompt("  third question  ", history)

	want := "<|start_header_id|>user<|end_header_id|>hi  <|eot_id|>" +
		"<|start_header_id|>assistant<|end_header_id|> hello there <|eot_id|> " +
		"<|start_header_id|>user<|end_header_id|>second question <|eot_id|>" +
		"<|start_header_id|>assistant<|end_header_id|> second answer <|eot_id|> " +
		"<|start_header_id|>user<|end_header_id|> third question <|eot_id|>"
	assert.Equal(t, want, got)
}

func TestBuildPrompt_FirstTurnKeepsWhitespace(t *testing.T) {
	history := []Exchange{{User: "  padded  ", Assistant: "a"}}
	got := BuildPrompt("next", history)
	assert.Contains(t, got, "<|end_header_id|>  padded   <|eot_id|>")
}
