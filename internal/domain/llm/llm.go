package llm

import "context"

// Conversation roles understood by providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the conversation sent upstream.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider produces a completion for a conversation. Implementations honor
// context cancellation and return typed errors for timeout and upstream
// failure so the transport layer can map them to statuses.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
