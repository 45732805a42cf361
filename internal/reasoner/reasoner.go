package reasoner

import (
	"context"
)

// Roles of the messages in a request.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultTemperature is the sampling temperature of analysis requests.
const DefaultTemperature = 0.7

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is an interpretation request.
type Request struct {
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// NewRequest builds the two-message request: system instruction then user
// content, at DefaultTemperature.
func NewRequest(system, user string) Request {
	return Request{
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: user},
		},
		Temperature: DefaultTemperature,
	}
}

// Reasoner produces an interpretation for a request.
//
// Implementations return a non-empty content string or an error; they never
// return empty content with a nil error.
type Reasoner interface {
	Interpret(ctx context.Context, req Request) (string, error)
}

// completion is the OpenAI-style response body.
type completion struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	Message Message `json:"message"`
}
