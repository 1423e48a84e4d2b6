// Package chat provides the chat-model client the agent talks to.
package chat

import "context"

// Message roles follow the OpenAI-compatible wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider generates one completion for a conversation.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
