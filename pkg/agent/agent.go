// Package agent drives page and chat generation against an upstream model.
// It assembles the message list around a configured system prompt, applies
// bounded retries on upstream failure, and extracts strict JSON payloads
// from loosely formatted model output.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fablehq/fable/pkg/llm"
)

const (
	defaultAttempts    = 3
	defaultTemperature = 0.8
)

// Agent wraps an llm.Client with a fixed model, system prompt and sampling
// temperature. Agents are cheap; build one per request if the prompt varies.
type Agent struct {
	client      *llm.Client
	model       string
	system      string
	temperature float64
	attempts    int
	logger      *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithSystemPrompt sets the system message prepended to every call.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.system = prompt
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) Option {
	return func(a *Agent) {
		a.temperature = t
	}
}

// WithMaxAttempts bounds the retry loop for non-streaming completions.
func WithMaxAttempts(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.attempts = n
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// New creates an Agent that generates with the given model.
func New(client *llm.Client, model string, opts ...Option) *Agent {
	a := &Agent{
		client:      client,
		model:       model,
		temperature: defaultTemperature,
		attempts:    defaultAttempts,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// request builds the chat request: system message (when set) followed by the
// caller's history.
func (a *Agent) request(history []llm.Message) *llm.ChatRequest {
	messages := make([]llm.Message, 0, len(history)+1)
	if a.system != "" {
		messages = append(messages, llm.NewSystemMessage(a.system))
	}
	messages = append(messages, history...)

	temp := a.temperature

	return &llm.ChatRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: &temp,
	}
}

// Complete performs a non-streaming completion of a single user prompt.
func (a *Agent) Complete(ctx context.Context, prompt string) (string, error) {
	return a.CompleteHistory(ctx, []llm.Message{llm.NewUserMessage(prompt)})
}

// CompleteHistory performs a non-streaming completion over a full message
// history, retrying upstream failures up to the attempt bound.
func (a *Agent) CompleteHistory(ctx context.Context, history []llm.Message) (string, error) {
	req := a.request(history)

	var lastErr error
	for attempt := 1; attempt <= a.attempts; attempt++ {
		resp, err := a.client.Complete(ctx, req)
		if err == nil {
			return strings.TrimSpace(resp.Message.Content), nil
		}

		lastErr = err
		a.logger.Warn("completion attempt failed", "attempt", attempt, "model", a.model, "error", err)

		if ctx.Err() != nil {
			break
		}
	}

	return "", fmt.Errorf("completion failed after %d attempts: %w", a.attempts, lastErr)
}

// CompleteJSON performs a completion and decodes the JSON object embedded in
// the model's reply into out.
func (a *Agent) CompleteJSON(ctx context.Context, prompt string, out any) error {
	content, err := a.Complete(ctx, prompt)
	if err != nil {
		return err
	}

	return DecodeJSON(content, out)
}

// Stream opens a streaming completion for a single user prompt. The caller
// owns the returned stream and must Close it.
func (a *Agent) Stream(ctx context.Context, prompt string) (*llm.Stream, error) {
	return a.StreamHistory(ctx, []llm.Message{llm.NewUserMessage(prompt)})
}

// StreamHistory opens a streaming completion over a full message history.
func (a *Agent) StreamHistory(ctx context.Context, history []llm.Message) (*llm.Stream, error) {
	return a.client.StreamCompletion(ctx, a.request(history))
}
