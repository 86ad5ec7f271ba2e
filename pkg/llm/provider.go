package llm

// StreamFormat identifies the wire framing an upstream uses for streaming
// responses.
type StreamFormat string

const (
	// StreamNDJSON is newline-delimited JSON, one chunk per line (Ollama).
	StreamNDJSON StreamFormat = "ndjson"

	// StreamSSE is Server-Sent Events framing (OpenAI-compatible servers).
	StreamSSE StreamFormat = "sse"
)

// Provider defines the interface for talking to a specific upstream LLM API
// format. Each implementation knows how to build its wire requests and parse
// its responses into the internal representation.
type Provider interface {
	// Name returns the canonical provider name (e.g., "ollama", "openai")
	Name() string

	// ChatPath returns the URL path of the chat completion endpoint,
	// joined onto the configured upstream base URL.
	ChatPath() string

	// StreamFormat returns the framing used for streaming responses.
	StreamFormat() StreamFormat

	// BuildRequest converts the internal request into the provider's wire format.
	BuildRequest(req *ChatRequest) ([]byte, error)

	// ParseResponse converts a provider-specific response into the internal format.
	// Returns an error if the payload cannot be parsed.
	ParseResponse(payload []byte) (*ChatResponse, error)

	// ParseStreamChunk converts a single streaming chunk into the internal format.
	// Returns (nil, nil) if the chunk should be skipped (e.g. the OpenAI
	// "[DONE]" sentinel or keep-alive noise).
	ParseStreamChunk(payload []byte) (*StreamChunk, error)
}
