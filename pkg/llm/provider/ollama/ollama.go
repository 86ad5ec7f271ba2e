// Package ollama implements the llm.Provider interface for Ollama's
// /api/chat wire format. Streaming responses are NDJSON, one chunk per line.
package ollama

import (
	"encoding/json"

	"github.com/fablehq/fable/pkg/llm"
)

// provider implements the llm.Provider interface for Ollama's API.
type provider struct{}

func New() *provider { return &provider{} }

func (o *provider) Name() string {
	return "ollama"
}

func (o *provider) ChatPath() string {
	return "/api/chat"
}

func (o *provider) StreamFormat() llm.StreamFormat {
	return llm.StreamNDJSON
}

func (o *provider) BuildRequest(req *llm.ChatRequest) ([]byte, error) {
	messages := make([]ollamaMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, ollamaMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	wire := ollamaRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   req.Stream,
	}

	// Map common generation parameters into the nested options object.
	if req.Temperature != nil || req.TopP != nil || req.Seed != nil ||
		req.MaxTokens != nil || len(req.Stop) > 0 {
		wire.Options = &ollamaOptions{
			Temperature: req.Temperature,
			TopP:        req.TopP,
			Seed:        req.Seed,
			NumPredict:  req.MaxTokens,
			Stop:        req.Stop,
		}
	}

	return json.Marshal(wire)
}

func (o *provider) ParseResponse(payload []byte) (*llm.ChatResponse, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}

	result := &llm.ChatResponse{
		Model:     resp.Model,
		CreatedAt: resp.CreatedAt,
		Message: llm.Message{
			Role:    resp.Message.Role,
			Content: resp.Message.Content,
		},
		Done:        resp.Done,
		StopReason:  stopReason(&resp),
		Usage:       usage(&resp),
		RawResponse: payload,
	}

	return result, nil
}

func (o *provider) ParseStreamChunk(payload []byte) (*llm.StreamChunk, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}

	return &llm.StreamChunk{
		Model:     resp.Model,
		CreatedAt: resp.CreatedAt,
		Message: llm.Message{
			Role:    resp.Message.Role,
			Content: resp.Message.Content,
		},
		Done:       resp.Done,
		StopReason: stopReason(&resp),
		Usage:      usage(&resp),
	}, nil
}

// stopReason maps Ollama's done flag and done_reason to the common form.
func stopReason(resp *ollamaResponse) string {
	if !resp.Done {
		return ""
	}
	if resp.DoneReason != "" {
		return resp.DoneReason
	}
	return "stop"
}

// usage maps Ollama's eval metrics to the common Usage format, returning nil
// when no metrics are present (non-final streaming chunks).
func usage(resp *ollamaResponse) *llm.Usage {
	if resp.PromptEvalCount == 0 && resp.EvalCount == 0 && resp.TotalDuration == 0 {
		return nil
	}

	return &llm.Usage{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		TotalDurationNs:  resp.TotalDuration,
		PromptDurationNs: resp.PromptEvalDuration,
	}
}
