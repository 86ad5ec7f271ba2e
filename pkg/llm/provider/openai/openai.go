// Package openai implements the llm.Provider interface for the OpenAI
// chat completions wire format, which is also spoken by many compatible
// servers. Streaming responses use SSE framing with a "[DONE]" sentinel.
package openai

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/fablehq/fable/pkg/llm"
)

// doneSentinel terminates an OpenAI SSE stream.
const doneSentinel = "[DONE]"

// provider implements the llm.Provider interface for OpenAI's API.
type provider struct{}

func New() *provider { return &provider{} }

func (p *provider) Name() string {
	return "openai"
}

func (p *provider) ChatPath() string {
	return "/v1/chat/completions"
}

func (p *provider) StreamFormat() llm.StreamFormat {
	return llm.StreamSSE
}

func (p *provider) BuildRequest(req *llm.ChatRequest) ([]byte, error) {
	messages := make([]openaiMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openaiMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	wire := openaiRequest{
		Model:       req.Model,
		Messages:    messages,
		Stream:      req.Stream,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
		Seed:        req.Seed,
	}

	return json.Marshal(wire)
}

func (p *provider) ParseResponse(payload []byte) (*llm.ChatResponse, error) {
	var resp openaiResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}

	result := &llm.ChatResponse{
		Model:       resp.Model,
		Done:        true,
		RawResponse: payload,
	}

	if resp.Created > 0 {
		result.CreatedAt = time.Unix(resp.Created, 0).UTC()
	}

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		result.Message = llm.Message{
			Role:    choice.Message.Role,
			Content: choice.Message.Content,
		}
		result.StopReason = choice.FinishReason
	}

	if resp.Usage != nil {
		result.Usage = &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	return result, nil
}

func (p *provider) ParseStreamChunk(payload []byte) (*llm.StreamChunk, error) {
	if strings.TrimSpace(string(payload)) == doneSentinel {
		return nil, nil
	}

	var chunk openaiChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return nil, err
	}

	result := &llm.StreamChunk{
		Model: chunk.Model,
	}

	if chunk.Created > 0 {
		result.CreatedAt = time.Unix(chunk.Created, 0).UTC()
	}

	if len(chunk.Choices) > 0 {
		choice := chunk.Choices[0]
		result.Message = llm.Message{
			Role:    choice.Delta.Role,
			Content: choice.Delta.Content,
		}
		if choice.FinishReason != "" {
			result.Done = true
			result.StopReason = choice.FinishReason
		}
	}

	if chunk.Usage != nil {
		result.Usage = &llm.Usage{
			PromptTokens:     chunk.Usage.PromptTokens,
			CompletionTokens: chunk.Usage.CompletionTokens,
			TotalTokens:      chunk.Usage.TotalTokens,
		}
	}

	return result, nil
}
