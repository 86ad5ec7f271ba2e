package llm

// ChatRequest represents a provider-agnostic chat completion request.
// This is the internal representation converted to provider-specific wire
// formats by pkg/llm/provider implementations.
type ChatRequest struct {
	// Model name (e.g., "llama3.2", "gpt-4o-mini")
	Model string `json:"model"`

	// Conversation messages
	Messages []Message `json:"messages"`

	// Whether to stream the response
	Stream *bool `json:"stream,omitempty"`

	// Generation parameters (unified across providers)
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Seed        *int     `json:"seed,omitempty"`
}
