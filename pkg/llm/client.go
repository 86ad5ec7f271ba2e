package llm

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fablehq/fable/pkg/sse"
	"github.com/fablehq/fable/pkg/utils"
)

const defaultTimeout = 5 * time.Minute

// Client performs chat completions against an upstream model server using a
// Provider to translate between the internal representation and the
// provider's wire format.
type Client struct {
	provider Provider
	upstream string
	apiKey   string
	http     *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithAPIKey sets a bearer token sent on every upstream request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// NewClient returns a Client that talks to the given upstream base URL
// (scheme + host + port) in the provider's wire format.
func NewClient(p Provider, upstream string, opts ...ClientOption) *Client {
	c := &Client{
		provider: p,
		upstream: strings.TrimRight(upstream, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Provider returns the provider this client speaks.
func (c *Client) Provider() Provider {
	return c.provider
}

// Complete performs a non-streaming chat completion.
func (c *Client) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	stream := false
	req.Stream = &stream

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upstream response: %w", err)
	}

	return c.provider.ParseResponse(body)
}

// StreamCompletion performs a streaming chat completion. The returned Stream
// yields parsed chunks until the upstream is exhausted; callers must Close it.
func (c *Client) StreamCompletion(ctx context.Context, req *ChatRequest) (*Stream, error) {
	stream := true
	req.Stream = &stream

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		body:     resp.Body,
		provider: c.provider,
	}

	switch c.provider.StreamFormat() {
	case StreamSSE:
		s.events = sse.NewReader(resp.Body)
	default:
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		s.scanner = scanner
	}

	return s, nil
}

// do builds the provider wire request and posts it to the upstream chat
// endpoint, returning the raw response on a 2xx status.
func (c *Client) do(ctx context.Context, req *ChatRequest) (*http.Response, error) {
	payload, err := c.provider.BuildRequest(req)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", c.provider.Name(), err)
	}

	endpoint, err := url.JoinPath(c.upstream, c.provider.ChatPath())
	if err != nil {
		return nil, fmt.Errorf("joining upstream URL: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating upstream request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling upstream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("upstream returned %d: %s", resp.StatusCode, utils.Truncate(string(body), 512))
	}

	return resp, nil
}

// Stream yields parsed chunks from a streaming completion response.
type Stream struct {
	body     io.ReadCloser
	provider Provider

	// Exactly one of events (SSE framing) or scanner (NDJSON framing) is set.
	events  *sse.Reader
	scanner *bufio.Scanner
}

// Next returns the next parsed chunk. It returns nil, nil when the upstream
// stream is exhausted.
func (s *Stream) Next() (*StreamChunk, error) {
	for {
		payload, ok, err := s.nextPayload()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}

		chunk, err := s.provider.ParseStreamChunk(payload)
		if err != nil {
			return nil, err
		}
		if chunk == nil {
			// Skippable chunk (e.g. "[DONE]" sentinel), keep reading.
			continue
		}

		return chunk, nil
	}
}

// nextPayload returns the next raw chunk payload from the wire framing.
func (s *Stream) nextPayload() ([]byte, bool, error) {
	if s.events != nil {
		ev, err := s.events.Next()
		if err != nil {
			return nil, false, err
		}
		if ev == nil {
			return nil, false, nil
		}
		return []byte(ev.Data), true, nil
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		return []byte(line), true, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, false, err
	}

	return nil, false, nil
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	return s.body.Close()
}
