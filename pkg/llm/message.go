// Package llm contains the provider-agnostic chat types and the HTTP client
// used to talk to upstream model servers. Provider-specific wire formats live
// under pkg/llm/provider.
package llm

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewSystemMessage creates a system message with the given content.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// NewUserMessage creates a user message with the given content.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// NewAssistantMessage creates an assistant message with the given content.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}
