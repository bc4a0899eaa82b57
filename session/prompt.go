package session

import "strings"

// Exchange is one completed question/answer turn.
type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// BuildPrompt serializes the chat history and the new message into a single
// llama3 chat-format question for the workflow. The first user turn keeps
// its surrounding whitespace; later turns are trimmed.
func BuildPrompt(message string, history []Exchange) string {
	var sb strings.Builder
	doStrip := false
	for _, ex := range history {
		userInput := ex.User
		if doStrip {
			userInput = strings.TrimSpace(userInput)
		}
		doStrip = true
		sb.WriteString("<|start_header_id|>user<|end_header_id|>")
		sb.WriteString(userInput)
		sb.WriteString(" <|eot_id|>")
		sb.WriteString("<|start_header_id|>assistant<|end_header_id|> ")
		sb.WriteString(strings.TrimSpace(ex.Assistant))
		sb.WriteString(" <|eot_id|> ")
	}
	if doStrip {
		message = strings.TrimSpace(message)
	}
	sb.WriteString("<|start_header_id|>user<|end_header_id|> ")
	sb.WriteString(message)
	sb.WriteString(" <|eot_id|>")
	return sb.String()
}
